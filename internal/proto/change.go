package proto

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Change is the payload of a PushChange call.
type Change struct {
	ID        string
	EntryID   string
	BlockIDs  []string
	UpdatedAt time.Time
	Attempts  int
}

// ToStruct encodes c as a protobuf Struct.
func (c Change) ToStruct() (*structpb.Struct, error) {
	blocks := make([]interface{}, 0, len(c.BlockIDs))
	for _, id := range c.BlockIDs {
		blocks = append(blocks, id)
	}
	return structpb.NewStruct(map[string]interface{}{
		"id":        c.ID,
		"entryId":   c.EntryID,
		"blockIds":  blocks,
		"updatedAt": c.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"attempts":  c.Attempts,
	})
}

// ChangeFromStruct decodes a Change, requiring id and entryId.
func ChangeFromStruct(s *structpb.Struct) (Change, error) {
	f := s.GetFields()

	c := Change{
		ID:       f["id"].GetStringValue(),
		EntryID:  f["entryId"].GetStringValue(),
		Attempts: int(f["attempts"].GetNumberValue()),
	}
	if c.ID == "" || c.EntryID == "" {
		return Change{}, fmt.Errorf("change without id or entryId")
	}

	for _, v := range f["blockIds"].GetListValue().GetValues() {
		c.BlockIDs = append(c.BlockIDs, v.GetStringValue())
	}

	if raw := f["updatedAt"].GetStringValue(); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return Change{}, fmt.Errorf("change %s: bad updatedAt: %w", c.ID, err)
		}
		c.UpdatedAt = t
	}
	return c, nil
}
