package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dmitrijs2005/labkeeper/internal/client/blobstore"
	"github.com/dmitrijs2005/labkeeper/internal/client/models"
)

// EntryFileName is the Markdown document inside a bundle.
const EntryFileName = "entry.md"

// BundlePath is where an attachment lands inside a bundle.
func BundlePath(a models.Attachment) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(a.Filename)
	if name == "" {
		name = "attachment"
	}
	return path.Join("attachments", a.ID+"_"+name)
}

// WriteBundle writes a zip archive holding the entry as Markdown and every
// readable attachment. Attachments that cannot be read are left out and
// their ids returned; their links render as missing.
func WriteBundle(ctx context.Context, w io.Writer, entry models.Entry, attachments []models.Attachment, reader blobstore.Reader) ([]string, error) {
	zw := zip.NewWriter(w)

	byID := make(map[string]models.Attachment, len(attachments))
	exportPaths := make(map[string]string, len(attachments))
	var skipped []string

	for _, a := range attachments {
		byID[a.ID] = a

		data, err := reader.Read(ctx, a.CachedPath)
		if err != nil {
			skipped = append(skipped, a.ID)
			continue
		}
		name := BundlePath(a)
		f, err := zw.Create(name)
		if err != nil {
			return skipped, fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := f.Write(data); err != nil {
			return skipped, fmt.Errorf("write %s: %w", name, err)
		}
		exportPaths[a.ID] = name
	}

	// skipped attachments render as missing, not as their logical path
	for _, id := range skipped {
		a := byID[id]
		a.StoragePath = ""
		byID[id] = a
	}

	md := "# " + entry.Title + "\n\n" + ToMarkdown(entry.Content, byID, exportPaths) + "\n"
	f, err := zw.Create(EntryFileName)
	if err != nil {
		return skipped, fmt.Errorf("create %s: %w", EntryFileName, err)
	}
	if _, err := io.WriteString(f, md); err != nil {
		return skipped, fmt.Errorf("write %s: %w", EntryFileName, err)
	}

	if err := zw.Close(); err != nil {
		return skipped, fmt.Errorf("close bundle: %w", err)
	}
	return skipped, nil
}
