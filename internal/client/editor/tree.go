// Package editor converts entry content between the block list stored on an
// entry and the node tree a rich-text editing surface works with.
//
// Every node carries the id of the block it came from, so edits made in the
// tree map back onto the same block identity. Blocks the text surface cannot
// edit (tables, images, files, dividers) travel as opaque nodes embedding the
// whole block and come back unchanged.
package editor

import (
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/dmitrijs2005/labkeeper/internal/common"
)

// NodeKind is the editor-native node type.
type NodeKind string

const (
	KindHeading       NodeKind = "heading"
	KindParagraph     NodeKind = "paragraph"
	KindBlockquote    NodeKind = "blockquote"
	KindChecklist     NodeKind = "checklist"
	KindChecklistItem NodeKind = "checklist-item"
	KindOpaque        NodeKind = "opaque"
	KindText          NodeKind = "text"
)

// Node is one element of the editor tree. Text leaves use Text and the
// formatting flags; element nodes use Children.
type Node struct {
	Kind         NodeKind      `json:"type"`
	BlockID      string        `json:"blockId,omitempty"`
	ItemID       string        `json:"itemId,omitempty"`
	Level        int           `json:"level,omitempty"`
	Checked      bool          `json:"checked,omitempty"`
	TimerMinutes *int          `json:"timerMinutes,omitempty"`
	Locked       bool          `json:"locked,omitempty"`
	Align        models.Align  `json:"align,omitempty"`
	UpdatedAt    *time.Time    `json:"updatedAt,omitempty"`
	UpdatedBy    string        `json:"updatedBy,omitempty"`
	Embedded     *models.Block `json:"block,omitempty"`
	Text         string        `json:"text,omitempty"`
	Bold         bool          `json:"bold,omitempty"`
	Italic       bool          `json:"italic,omitempty"`
	Underline    bool          `json:"underline,omitempty"`
	Children     []Node        `json:"children,omitempty"`
}

// Editor is the capability the notebook uses to move content in and out of
// an editing surface.
type Editor interface {
	Deserialize(blocks []models.Block) []Node
	Serialize(nodes []Node) []models.Block
}

// TreeEditor is the default Editor backed by ToEditableTree and
// FromEditableTree.
type TreeEditor struct {
	newID common.IDGenerator
}

// NewTreeEditor returns a TreeEditor using newID for blocks and items that
// arrive without an identity. A nil generator falls back to common.NewID.
func NewTreeEditor(newID common.IDGenerator) *TreeEditor {
	if newID == nil {
		newID = common.NewID
	}
	return &TreeEditor{newID: newID}
}

func (e *TreeEditor) Deserialize(blocks []models.Block) []Node {
	return ToEditableTree(blocks)
}

func (e *TreeEditor) Serialize(nodes []Node) []models.Block {
	return FromEditableTree(nodes, e.newID)
}

// ToEditableTree maps blocks to editor nodes.
func ToEditableTree(blocks []models.Block) []Node {
	nodes := make([]Node, 0, len(blocks))
	for _, b := range blocks {
		n := Node{
			BlockID:   b.ID,
			Locked:    b.Locked,
			Align:     b.Align,
			UpdatedAt: b.UpdatedAt,
			UpdatedBy: b.UpdatedBy,
		}

		switch p := b.Payload.(type) {
		case models.Heading:
			n.Kind = KindHeading
			n.Level = p.Level
			n.Children = leaves(p.Text, p.Runs)
		case models.Paragraph:
			n.Kind = KindParagraph
			n.Children = leaves(p.Text, p.Runs)
		case models.Quote:
			n.Kind = KindBlockquote
			n.Children = leaves(p.Text, p.Runs)
		case models.Checklist:
			n.Kind = KindChecklist
			n.Children = make([]Node, 0, len(p.Items))
			for _, it := range p.Items {
				n.Children = append(n.Children, Node{
					Kind:         KindChecklistItem,
					ItemID:       it.ID,
					Checked:      it.Done,
					TimerMinutes: it.TimerMinutes,
					Children:     leaves(it.Text, it.Runs),
				})
			}
		default:
			embedded := b.Clone()
			n.Kind = KindOpaque
			n.Embedded = &embedded
		}

		nodes = append(nodes, n)
	}
	return nodes
}

func leaves(text string, runs []models.Run) []Node {
	if len(runs) == 0 {
		return []Node{{Kind: KindText, Text: text}}
	}
	out := make([]Node, 0, len(runs))
	for _, r := range runs {
		out = append(out, Node{Kind: KindText, Text: r.Text, Bold: r.Bold, Italic: r.Italic, Underline: r.Underline})
	}
	return out
}

// FromEditableTree maps editor nodes back to blocks. Nodes and checklist
// items without an id get one from newID. Unknown or malformed nodes become
// an empty paragraph.
func FromEditableTree(nodes []Node, newID common.IDGenerator) []models.Block {
	if newID == nil {
		newID = common.NewID
	}

	blocks := make([]models.Block, 0, len(nodes))
	for _, n := range nodes {
		blocks = append(blocks, fromNode(n, newID))
	}
	return blocks
}

func fromNode(n Node, newID common.IDGenerator) models.Block {
	b := models.Block{
		ID:        n.BlockID,
		UpdatedAt: n.UpdatedAt,
		UpdatedBy: n.UpdatedBy,
		Locked:    n.Locked,
		Align:     n.Align,
	}
	if b.ID == "" {
		b.ID = newID()
	}

	switch n.Kind {
	case KindHeading:
		text, runs := collapse(n.Children)
		b.Payload = models.Heading{Text: text, Level: clampLevel(n.Level), Runs: runs}
	case KindParagraph:
		text, runs := collapse(n.Children)
		b.Payload = models.Paragraph{Text: text, Runs: runs}
	case KindBlockquote:
		text, runs := collapse(n.Children)
		b.Payload = models.Quote{Text: text, Runs: runs}
	case KindChecklist:
		items := make([]models.ChecklistItem, 0, len(n.Children))
		for _, c := range n.Children {
			if c.Kind != KindChecklistItem {
				continue
			}
			text, runs := collapse(c.Children)
			id := c.ItemID
			if id == "" {
				id = newID()
			}
			items = append(items, models.ChecklistItem{
				ID:           id,
				Text:         text,
				Done:         c.Checked,
				TimerMinutes: c.TimerMinutes,
				Runs:         runs,
			})
		}
		b.Payload = models.Checklist{Items: items}
	case KindOpaque:
		if n.Embedded == nil || n.Embedded.Payload == nil {
			return emptyParagraph(newID)
		}
		embedded := n.Embedded.Clone()
		if embedded.ID == "" {
			embedded.ID = b.ID
		}
		return embedded
	default:
		return emptyParagraph(newID)
	}

	return b
}

func emptyParagraph(newID common.IDGenerator) models.Block {
	return models.Block{ID: newID(), Payload: models.Paragraph{}}
}

func clampLevel(level int) int {
	switch {
	case level < 1:
		return 1
	case level > 3:
		return 3
	default:
		return level
	}
}

// collapse concatenates leaf text and run-length merges adjacent leaves
// with identical formatting. Runs are dropped when the result is a single
// unformatted run.
func collapse(children []Node) (string, []models.Run) {
	var merged []models.Run
	for _, leaf := range flatten(children) {
		if leaf.Text == "" {
			continue
		}
		r := models.Run{Text: leaf.Text, Bold: leaf.Bold, Italic: leaf.Italic, Underline: leaf.Underline}
		if last := len(merged) - 1; last >= 0 && merged[last].SameFormat(r) {
			merged[last].Text += r.Text
			continue
		}
		merged = append(merged, r)
	}

	text := models.RunsText(merged)
	if len(merged) == 0 || (len(merged) == 1 && merged[0].Plain()) {
		return text, nil
	}
	return text, merged
}

// flatten returns the text leaves under children in document order.
// Nested element nodes contribute their own leaves.
func flatten(children []Node) []Node {
	var out []Node
	for _, c := range children {
		if c.Kind == KindText || (c.Kind == "" && len(c.Children) == 0) {
			out = append(out, c)
			continue
		}
		out = append(out, flatten(c.Children)...)
	}
	return out
}
