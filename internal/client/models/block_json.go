package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrUnknownBlockType = errors.New("unknown block type")

// blockWire is the flat JSON form of a Block, discriminated by "type".
type blockWire struct {
	ID           string          `json:"id"`
	Type         BlockType       `json:"type"`
	UpdatedAt    *time.Time      `json:"updatedAt,omitempty"`
	UpdatedBy    string          `json:"updatedBy,omitempty"`
	Locked       bool            `json:"locked,omitempty"`
	Align        Align           `json:"align,omitempty"`
	Text         string          `json:"text,omitempty"`
	Level        int             `json:"level,omitempty"`
	Runs         []Run           `json:"runs,omitempty"`
	Items        []ChecklistItem `json:"items,omitempty"`
	Data         [][]string      `json:"data,omitempty"`
	HeaderRow    bool            `json:"headerRow,omitempty"`
	Caption      string          `json:"caption,omitempty"`
	AttachmentID string          `json:"attachmentId,omitempty"`
	Label        string          `json:"label,omitempty"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	w := blockWire{
		ID:        b.ID,
		Type:      b.Type(),
		UpdatedAt: b.UpdatedAt,
		UpdatedBy: b.UpdatedBy,
		Locked:    b.Locked,
		Align:     b.Align,
	}

	switch p := b.Payload.(type) {
	case Heading:
		w.Text, w.Level, w.Runs = p.Text, p.Level, p.Runs
	case Paragraph:
		w.Text, w.Runs = p.Text, p.Runs
	case Quote:
		w.Text, w.Runs = p.Text, p.Runs
	case Checklist:
		w.Items = p.Items
	case Table:
		w.Data, w.HeaderRow, w.Caption = p.Data, p.HeaderRow, p.Caption
	case Image:
		w.AttachmentID, w.Caption = p.AttachmentID, p.Caption
	case File:
		w.AttachmentID, w.Label = p.AttachmentID, p.Label
	case Divider:
	default:
		return nil, fmt.Errorf("block %s: %w", b.ID, ErrUnknownBlockType)
	}

	return json.Marshal(w)
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var w blockWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var p Payload
	switch w.Type {
	case BlockHeading:
		level := w.Level
		if level == 0 {
			level = 1
		}
		p = Heading{Text: w.Text, Level: level, Runs: w.Runs}
	case BlockParagraph:
		p = Paragraph{Text: w.Text, Runs: w.Runs}
	case BlockQuote:
		p = Quote{Text: w.Text, Runs: w.Runs}
	case BlockChecklist:
		p = Checklist{Items: w.Items}
	case BlockTable:
		p = Table{Data: w.Data, HeaderRow: w.HeaderRow, Caption: w.Caption}
	case BlockImage:
		p = Image{AttachmentID: w.AttachmentID, Caption: w.Caption}
	case BlockFile:
		p = File{AttachmentID: w.AttachmentID, Label: w.Label}
	case BlockDivider:
		p = Divider{}
	default:
		return fmt.Errorf("block %s type %q: %w", w.ID, w.Type, ErrUnknownBlockType)
	}

	*b = Block{
		ID:        w.ID,
		UpdatedAt: w.UpdatedAt,
		UpdatedBy: w.UpdatedBy,
		Locked:    w.Locked,
		Align:     w.Align,
		Payload:   p,
	}
	return nil
}
