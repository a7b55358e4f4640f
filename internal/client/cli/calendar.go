package cli

import (
	"fmt"
	"strings"
	"time"

	lkcommon "github.com/dmitrijs2005/labkeeper/internal/common"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var dateParser = newDateParser()

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// resolveDay turns "today", "last friday", "2025-06-10" or similar into a
// date bucket. An empty expression means today.
func resolveDay(expr string, now time.Time) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return now.Format(lkcommon.DateBucketLayout), nil
	}
	if t, err := time.ParseInLocation(lkcommon.DateBucketLayout, expr, now.Location()); err == nil {
		return t.Format(lkcommon.DateBucketLayout), nil
	}

	r, err := dateParser.Parse(expr, now)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", expr, err)
	}
	if r == nil {
		return "", fmt.Errorf("no date found in %q", expr)
	}
	return r.Time.Format(lkcommon.DateBucketLayout), nil
}
