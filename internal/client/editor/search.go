package editor

import (
	"strings"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
)

// SearchText flattens a block into the plain string fed to the indexer.
func SearchText(b models.Block) string {
	switch p := b.Payload.(type) {
	case models.Heading:
		return p.Text
	case models.Paragraph:
		return p.Text
	case models.Quote:
		return p.Text
	case models.Table:
		var cells []string
		for _, row := range p.Data {
			cells = append(cells, row...)
		}
		return strings.Join(cells, " ")
	case models.Checklist:
		texts := make([]string, 0, len(p.Items))
		for _, it := range p.Items {
			texts = append(texts, it.Text)
		}
		return strings.Join(texts, " ")
	case models.Image:
		return p.Caption
	case models.File:
		return p.Label
	default:
		return ""
	}
}

// EntryBody joins the search text of every block that has any.
func EntryBody(blocks []models.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if s := SearchText(b); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}
