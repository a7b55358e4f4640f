package store

import (
	_ "embed"
	"fmt"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/dmitrijs2005/labkeeper/internal/common"
	"gopkg.in/yaml.v3"
)

// BlankTemplateID names the template producing a single empty paragraph.
const BlankTemplateID = "blank"

//go:embed templates.yaml
var defaultTemplatesYAML []byte

// Section is one heading + body pair of a structured template.
type Section struct {
	Label string           `yaml:"label"`
	Body  models.BlockType `yaml:"body"`
}

// Template describes the initial content of a new entry.
type Template struct {
	ID           string    `yaml:"id"`
	Name         string    `yaml:"name"`
	DefaultTitle string    `yaml:"defaultTitle"`
	Sections     []Section `yaml:"sections"`
}

type templateFile struct {
	Templates []Template `yaml:"templates"`
}

// ParseTemplates decodes a YAML template catalogue.
func ParseTemplates(data []byte) (map[string]Template, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	out := make(map[string]Template, len(f.Templates))
	for _, t := range f.Templates {
		if t.ID == "" {
			return nil, fmt.Errorf("parse templates: template without id")
		}
		for _, s := range t.Sections {
			if s.Body != models.BlockParagraph && s.Body != models.BlockChecklist {
				return nil, fmt.Errorf("parse templates: %s/%s: unsupported body %q", t.ID, s.Label, s.Body)
			}
		}
		out[t.ID] = t
	}
	if _, ok := out[BlankTemplateID]; !ok {
		out[BlankTemplateID] = Template{ID: BlankTemplateID, Name: "Blank note", DefaultTitle: "Untitled note"}
	}
	return out, nil
}

// DefaultTemplates returns the built-in catalogue.
func DefaultTemplates() map[string]Template {
	t, err := ParseTemplates(defaultTemplatesYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// instantiate builds the initial content and pinned regions for entryID.
func (t Template) instantiate(entryID string, newID common.IDGenerator) ([]models.Block, []models.PinnedRegion) {
	if len(t.Sections) == 0 {
		return []models.Block{{ID: newID(), Payload: models.Paragraph{}}}, nil
	}

	content := make([]models.Block, 0, len(t.Sections)*2)
	regions := make([]models.PinnedRegion, 0, len(t.Sections))

	for _, s := range t.Sections {
		heading := models.Block{
			ID:      newID(),
			Locked:  true,
			Payload: models.Heading{Text: s.Label, Level: 2},
		}

		body := models.Block{ID: newID()}
		if s.Body == models.BlockChecklist {
			body.Payload = models.Checklist{Items: []models.ChecklistItem{{ID: newID()}}}
		} else {
			body.Payload = models.Paragraph{}
		}

		content = append(content, heading, body)
		regions = append(regions, models.PinnedRegion{
			ID:       newID(),
			EntryID:  entryID,
			Label:    s.Label,
			BlockIDs: []string{heading.ID, body.ID},
		})
	}
	return content, regions
}
