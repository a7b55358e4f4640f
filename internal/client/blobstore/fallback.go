package blobstore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/labkeeper/internal/common"
	"github.com/dmitrijs2005/labkeeper/internal/logging"
)

// Fallback writes to Primary and, when that fails, to Secondary.
type Fallback struct {
	Primary   Writer
	Secondary Writer
	Logger    logging.Logger
}

func (f *Fallback) Write(ctx context.Context, data []byte, filename string) (string, error) {
	loc, err := f.Primary.Write(ctx, data, filename)
	if err == nil {
		return loc, nil
	}
	if f.Logger != nil {
		f.Logger.Warn(ctx, "primary blob store unavailable, using secondary", "filename", filename, "error", err)
	}

	loc, err2 := f.Secondary.Write(ctx, data, filename)
	if err2 != nil {
		return "", fmt.Errorf("%w: primary: %v; secondary: %v", common.ErrStorageUnavailable, err, err2)
	}
	return loc, nil
}
