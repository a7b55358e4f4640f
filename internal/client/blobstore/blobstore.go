// Package blobstore keeps attachment bytes behind opaque locators.
//
// A locator is "<scheme>://<key>". Callers never look past the scheme:
// the Router picks a backend by scheme and the backend interprets the key.
package blobstore

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/labkeeper/internal/common"
)

const (
	SchemeFS  = "fs"
	SchemeIDB = "idb"
	SchemeS3  = "s3"
)

var (
	ErrNotFound      = common.ErrorNotFound
	ErrUnknownScheme = errors.New("unknown blob locator scheme")
)

type Writer interface {
	Write(ctx context.Context, data []byte, filename string) (string, error)
}

type Reader interface {
	Read(ctx context.Context, locator string) ([]byte, error)
}

type Store interface {
	Writer
	Reader
}

type combined struct {
	Writer
	Reader
}

// Combine pairs a write path with a read path.
func Combine(w Writer, r Reader) Store {
	return combined{Writer: w, Reader: r}
}

// Scheme returns the scheme of a locator, or "" when it has none.
func Scheme(locator string) string {
	scheme, _, ok := strings.Cut(locator, "://")
	if !ok {
		return ""
	}
	return scheme
}

func locator(scheme, key string) string {
	return scheme + "://" + key
}

// key strips the expected scheme from a locator.
func key(loc, scheme string) (string, bool) {
	return strings.CutPrefix(loc, scheme+"://")
}
