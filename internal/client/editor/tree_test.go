package editor

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/dmitrijs2005/labkeeper/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBlocks() []models.Block {
	ts := time.Date(2025, 5, 4, 9, 30, 0, 0, time.UTC)
	minutes := 20
	return []models.Block{
		{ID: "h1", Locked: true, UpdatedAt: &ts, UpdatedBy: "u1", Payload: models.Heading{Text: "Aim", Level: 2}},
		{ID: "p1", Align: models.AlignCenter, Payload: models.Paragraph{
			Text: "plain bold",
			Runs: []models.Run{{Text: "plain "}, {Text: "bold", Bold: true}},
		}},
		{ID: "q1", Payload: models.Quote{Text: "cite"}},
		{ID: "c1", Payload: models.Checklist{Items: []models.ChecklistItem{
			{ID: "i1", Text: "Thaw", Done: true, TimerMinutes: &minutes},
			{ID: "i2", Text: "Spin"},
		}}},
		{ID: "t1", Payload: models.Table{Data: [][]string{{"a", "b"}, {"1", "2"}}, HeaderRow: true, Caption: "plate"}},
		{ID: "img", Payload: models.Image{AttachmentID: "att1", Caption: "gel"}},
		{ID: "f1", Payload: models.File{AttachmentID: "att2", Label: "raw"}},
		{ID: "d1", Payload: models.Divider{}},
		{ID: "p2", Payload: models.Paragraph{}},
	}
}

func TestRoundTrip_PreservesBlocks(t *testing.T) {
	in := sampleBlocks()

	out := FromEditableTree(ToEditableTree(in), func() string {
		t.Fatal("round trip must not mint ids")
		return ""
	})

	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestToEditableTree_Shapes(t *testing.T) {
	nodes := ToEditableTree(sampleBlocks())
	require.Len(t, nodes, 9)

	assert.Equal(t, KindHeading, nodes[0].Kind)
	assert.Equal(t, "h1", nodes[0].BlockID)
	assert.True(t, nodes[0].Locked)

	require.Len(t, nodes[1].Children, 2)
	assert.True(t, nodes[1].Children[1].Bold)

	assert.Equal(t, KindBlockquote, nodes[2].Kind)

	require.Len(t, nodes[3].Children, 2)
	assert.Equal(t, KindChecklistItem, nodes[3].Children[0].Kind)
	assert.Equal(t, "i1", nodes[3].Children[0].ItemID)
	assert.True(t, nodes[3].Children[0].Checked)

	for _, i := range []int{4, 5, 6, 7} {
		assert.Equal(t, KindOpaque, nodes[i].Kind)
		require.NotNil(t, nodes[i].Embedded)
		assert.Equal(t, nodes[i].BlockID, nodes[i].Embedded.ID)
	}
}

func TestFromEditableTree_MergesAdjacentRuns(t *testing.T) {
	nodes := []Node{{
		Kind:    KindParagraph,
		BlockID: "p",
		Children: []Node{
			{Kind: KindText, Text: "a", Bold: true},
			{Kind: KindText, Text: "b", Bold: true},
			{Kind: KindText, Text: "c"},
			{Kind: KindText, Text: "d"},
			{Kind: KindText, Text: "e", Bold: true, Italic: true},
		},
	}}

	blocks := FromEditableTree(nodes, common.SequenceIDs("x"))
	require.Len(t, blocks, 1)
	p := blocks[0].Payload.(models.Paragraph)

	assert.Equal(t, "abcde", p.Text)
	assert.Equal(t, []models.Run{
		{Text: "ab", Bold: true},
		{Text: "cd"},
		{Text: "e", Bold: true, Italic: true},
	}, p.Runs)
	for i := 1; i < len(p.Runs); i++ {
		assert.False(t, p.Runs[i-1].SameFormat(p.Runs[i]), "adjacent runs must differ in formatting")
	}
}

func TestFromEditableTree_PlainLeavesDropRuns(t *testing.T) {
	nodes := []Node{{
		Kind:     KindHeading,
		BlockID:  "h",
		Level:    7,
		Children: []Node{{Kind: KindText, Text: "Res"}, {Kind: KindText, Text: "ults"}},
	}}

	blocks := FromEditableTree(nodes, nil)
	h := blocks[0].Payload.(models.Heading)
	assert.Equal(t, "Results", h.Text)
	assert.Nil(t, h.Runs)
	assert.Equal(t, 3, h.Level)
}

func TestFromEditableTree_AssignsMissingIDs(t *testing.T) {
	nodes := []Node{
		{Kind: KindParagraph, Children: []Node{{Kind: KindText, Text: "new"}}},
		{Kind: KindChecklist, BlockID: "c", Children: []Node{
			{Kind: KindChecklistItem, Children: []Node{{Kind: KindText, Text: "step"}}},
			{Kind: KindText, Text: "stray"},
		}},
	}

	blocks := FromEditableTree(nodes, common.SequenceIDs("gen"))
	require.Len(t, blocks, 2)
	assert.Equal(t, "gen-1", blocks[0].ID)
	assert.Equal(t, "c", blocks[1].ID)

	cl := blocks[1].Payload.(models.Checklist)
	require.Len(t, cl.Items, 1)
	assert.Equal(t, "gen-2", cl.Items[0].ID)
	assert.Equal(t, "step", cl.Items[0].Text)
}

func TestFromEditableTree_MalformedNodesDegrade(t *testing.T) {
	nodes := []Node{
		{Kind: "video", BlockID: "v"},
		{Kind: KindOpaque, BlockID: "o"},
	}

	blocks := FromEditableTree(nodes, common.SequenceIDs("fresh"))
	require.Len(t, blocks, 2)
	for i, b := range blocks {
		assert.Equal(t, models.BlockParagraph, b.Type())
		assert.Equal(t, "", b.Text())
		assert.Equal(t, "fresh-"+string(rune('1'+i)), b.ID)
	}
}

func TestFromEditableTree_OpaqueWithoutIDUsesNodeID(t *testing.T) {
	nodes := []Node{{Kind: KindOpaque, BlockID: "d", Embedded: &models.Block{Payload: models.Divider{}}}}

	blocks := FromEditableTree(nodes, nil)
	assert.Equal(t, "d", blocks[0].ID)
	assert.Equal(t, models.BlockDivider, blocks[0].Type())
}

func TestTreeEditor(t *testing.T) {
	ed := NewTreeEditor(common.SequenceIDs("e"))
	var _ Editor = ed

	nodes := ed.Deserialize(sampleBlocks())
	nodes = append(nodes, Node{Kind: KindParagraph, Children: []Node{{Kind: KindText, Text: "added"}}})

	blocks := ed.Serialize(nodes)
	require.Len(t, blocks, 10)
	assert.Equal(t, "e-1", blocks[9].ID)
	assert.Equal(t, "added", blocks[9].Text())
}
