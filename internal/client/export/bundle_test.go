package export

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/dmitrijs2005/labkeeper/internal/client/blobstore"
	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapReader map[string][]byte

func (m mapReader) Read(ctx context.Context, loc string) ([]byte, error) {
	if d, ok := m[loc]; ok {
		return d, nil
	}
	return nil, blobstore.ErrNotFound
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(b)
	}
	return out
}

func TestWriteBundle(t *testing.T) {
	entry := models.Entry{
		ID:    "e1",
		Title: "Gel run",
		Content: []models.Block{
			{Payload: models.Image{AttachmentID: "a1"}},
			{Payload: models.File{AttachmentID: "a2"}},
		},
	}
	attachments := []models.Attachment{
		{ID: "a1", Filename: "gel.png", StoragePath: "attachments/e1/gel.png", CachedPath: "fs://a1_gel.png"},
		{ID: "a2", Filename: "lost.csv", StoragePath: "attachments/e1/lost.csv", CachedPath: "fs://gone"},
	}
	reader := mapReader{"fs://a1_gel.png": []byte("png-bytes")}

	var buf bytes.Buffer
	skipped, err := WriteBundle(context.Background(), &buf, entry, attachments, reader)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2"}, skipped)

	files := readZip(t, buf.Bytes())
	require.Len(t, files, 2)
	assert.Equal(t, "png-bytes", files["attachments/a1_gel.png"])
	assert.Equal(t,
		"# Gel run\n\n![gel.png](attachments/a1_gel.png)\n\n[lost.csv] (missing)\n",
		files[EntryFileName])
}

func TestBundlePath(t *testing.T) {
	assert.Equal(t, "attachments/a_x_y.txt", BundlePath(models.Attachment{ID: "a", Filename: "x/y.txt"}))
	assert.Equal(t, "attachments/a_attachment", BundlePath(models.Attachment{ID: "a"}))
}
