// Package models defines notebook entities: content blocks, entries,
// attachments and the change records the sync queue tracks.
package models

import (
	"strings"
	"time"
)

// BlockType classifies a block payload.
type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockQuote     BlockType = "quote"
	BlockChecklist BlockType = "checklist"
	BlockTable     BlockType = "table"
	BlockImage     BlockType = "image"
	BlockFile      BlockType = "file"
	BlockDivider   BlockType = "divider"
)

// Align is the horizontal alignment of a block.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Run is a formatted slice of text. The texts of a block's runs concatenate
// to the block's plain text.
type Run struct {
	Text      string `json:"text"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
}

// Plain reports whether the run carries no formatting.
func (r Run) Plain() bool {
	return !r.Bold && !r.Italic && !r.Underline
}

// SameFormat reports whether two runs carry identical formatting.
func (r Run) SameFormat(o Run) bool {
	return r.Bold == o.Bold && r.Italic == o.Italic && r.Underline == o.Underline
}

// RunsText concatenates run texts.
func RunsText(runs []Run) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// RunsMatch reports whether runs are absent or concatenate to text.
func RunsMatch(text string, runs []Run) bool {
	return len(runs) == 0 || RunsText(runs) == text
}

// Payload is the type-specific content of a block. The set of
// implementations is closed.
type Payload interface {
	Type() BlockType
	isPayload()
}

type Heading struct {
	Text  string
	Level int
	Runs  []Run
}

type Paragraph struct {
	Text string
	Runs []Run
}

type Quote struct {
	Text string
	Runs []Run
}

// ChecklistItem is one line of a checklist.
type ChecklistItem struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	Done         bool   `json:"done"`
	TimerMinutes *int   `json:"timerMinutes,omitempty"`
	Runs         []Run  `json:"runs,omitempty"`
}

type Checklist struct {
	Items []ChecklistItem
}

// Table is a grid of cells. When HeaderRow is set the first row holds
// column titles.
type Table struct {
	Data      [][]string
	HeaderRow bool
	Caption   string
}

type Image struct {
	AttachmentID string
	Caption      string
}

type File struct {
	AttachmentID string
	Label        string
}

type Divider struct{}

func (Heading) Type() BlockType   { return BlockHeading }
func (Paragraph) Type() BlockType { return BlockParagraph }
func (Quote) Type() BlockType     { return BlockQuote }
func (Checklist) Type() BlockType { return BlockChecklist }
func (Table) Type() BlockType     { return BlockTable }
func (Image) Type() BlockType     { return BlockImage }
func (File) Type() BlockType      { return BlockFile }
func (Divider) Type() BlockType   { return BlockDivider }

func (Heading) isPayload()   {}
func (Paragraph) isPayload() {}
func (Quote) isPayload()     {}
func (Checklist) isPayload() {}
func (Table) isPayload()     {}
func (Image) isPayload()     {}
func (File) isPayload()      {}
func (Divider) isPayload()   {}

// Block is the unit of content and of change tracking.
type Block struct {
	ID        string
	UpdatedAt *time.Time
	UpdatedBy string
	Locked    bool
	Align     Align
	Payload   Payload
}

// Type returns the payload type, or "" for a block without payload.
func (b Block) Type() BlockType {
	if b.Payload == nil {
		return ""
	}
	return b.Payload.Type()
}

// Text returns the plain text of heading, paragraph and quote blocks.
func (b Block) Text() string {
	switch p := b.Payload.(type) {
	case Heading:
		return p.Text
	case Paragraph:
		return p.Text
	case Quote:
		return p.Text
	default:
		return ""
	}
}

// AttachmentID returns the attachment referenced by image and file blocks.
func (b Block) AttachmentID() string {
	switch p := b.Payload.(type) {
	case Image:
		return p.AttachmentID
	case File:
		return p.AttachmentID
	default:
		return ""
	}
}

// Clone returns a deep copy of b.
func (b Block) Clone() Block {
	out := b
	if b.UpdatedAt != nil {
		t := *b.UpdatedAt
		out.UpdatedAt = &t
	}
	switch p := b.Payload.(type) {
	case Heading:
		p.Runs = cloneRuns(p.Runs)
		out.Payload = p
	case Paragraph:
		p.Runs = cloneRuns(p.Runs)
		out.Payload = p
	case Quote:
		p.Runs = cloneRuns(p.Runs)
		out.Payload = p
	case Checklist:
		p.Items = cloneItems(p.Items)
		out.Payload = p
	case Table:
		if p.Data != nil {
			data := make([][]string, len(p.Data))
			for i, row := range p.Data {
				data[i] = append([]string(nil), row...)
			}
			p.Data = data
		}
		out.Payload = p
	}
	return out
}

// CloneBlocks deep-copies a block slice.
func CloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return out
}

func cloneRuns(runs []Run) []Run {
	if runs == nil {
		return nil
	}
	return append([]Run(nil), runs...)
}

func cloneItems(items []ChecklistItem) []ChecklistItem {
	if items == nil {
		return nil
	}
	out := make([]ChecklistItem, len(items))
	for i, it := range items {
		out[i] = it
		out[i].Runs = cloneRuns(it.Runs)
		if it.TimerMinutes != nil {
			m := *it.TimerMinutes
			out[i].TimerMinutes = &m
		}
	}
	return out
}
