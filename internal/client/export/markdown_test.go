package export

import (
	"testing"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
)

func TestToMarkdown_Blocks(t *testing.T) {
	blocks := []models.Block{
		{ID: "h", Payload: models.Heading{Text: "Aim", Level: 2}},
		{ID: "p", Payload: models.Paragraph{
			Text: "grow cells",
			Runs: []models.Run{{Text: "grow", Bold: true}, {Text: " "}, {Text: "cells", Italic: true, Underline: true}},
		}},
		{ID: "q", Payload: models.Quote{Text: "line one\nline two"}},
		{ID: "c", Payload: models.Checklist{Items: []models.ChecklistItem{
			{ID: "i1", Text: "thaw", Done: true},
			{ID: "i2", Text: "plate"},
		}}},
		{ID: "d", Payload: models.Divider{}},
	}

	want := "## Aim\n\n" +
		"**grow** _<u>cells</u>_\n\n" +
		"> line one\n> line two\n\n" +
		"- [x] thaw\n- [ ] plate\n\n" +
		"---"
	assert.Equal(t, want, ToMarkdown(blocks, nil, nil))
}

func TestToMarkdown_HeadingLevelClamped(t *testing.T) {
	blocks := []models.Block{
		{Payload: models.Heading{Text: "low", Level: 0}},
		{Payload: models.Heading{Text: "deep", Level: 9}},
	}
	assert.Equal(t, "# low\n\n###### deep", ToMarkdown(blocks, nil, nil))
}

func TestToMarkdown_Tables(t *testing.T) {
	withHeader := models.Block{Payload: models.Table{
		Data:      [][]string{{"Sample", "OD"}, {"A|1", "0.4"}},
		HeaderRow: true,
	}}
	assert.Equal(t,
		"| Sample | OD |\n| --- | --- |\n| A\\|1 | 0.4 |",
		ToMarkdown([]models.Block{withHeader}, nil, nil))

	noHeader := models.Block{Payload: models.Table{
		Data:    [][]string{{"a", "b"}, {"c"}},
		Caption: "raw",
	}}
	assert.Equal(t,
		"| Column 1 | Column 2 |\n| --- | --- |\n| a | b |\n| c |  |\n\n_raw_",
		ToMarkdown([]models.Block{noHeader}, nil, nil))
}

func TestToMarkdown_AttachmentResolution(t *testing.T) {
	atts := map[string]models.Attachment{
		"a1": {ID: "a1", Filename: "gel.png", StoragePath: "attachments/e1/gel.png", CachedPath: "fs://a1_gel.png"},
		"a2": {ID: "a2", Filename: "plate.csv", StoragePath: "attachments/e1/plate.csv", CachedPath: "idb://abc"},
	}
	paths := map[string]string{"a1": "attachments/a1_gel.png"}

	blocks := []models.Block{
		{Payload: models.Image{AttachmentID: "a1", Caption: "Gel"}},
		{Payload: models.File{AttachmentID: "a2"}},
		{Payload: models.Image{AttachmentID: "gone"}},
		{Payload: models.File{AttachmentID: "gone", Label: "Raw data"}},
	}

	want := "![Gel](attachments/a1_gel.png)\n\n" +
		"[plate.csv](attachments/e1/plate.csv)\n\n" +
		"![image] (missing)\n\n" +
		"[Raw data] (missing)"
	assert.Equal(t, want, ToMarkdown(blocks, atts, paths))
}

func TestToMarkdown_MismatchedRunsFallBackToText(t *testing.T) {
	b := models.Block{Payload: models.Paragraph{Text: "actual", Runs: []models.Run{{Text: "stale", Bold: true}}}}
	assert.Equal(t, "actual", ToMarkdown([]models.Block{b}, nil, nil))
}

func TestToMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "", ToMarkdown(nil, nil, nil))
	assert.Equal(t, "", ToMarkdown([]models.Block{{Payload: models.Table{}}}, nil, nil))
}
