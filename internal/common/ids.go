package common

import (
	"strconv"

	"github.com/google/uuid"
)

// IDGenerator produces unique identifiers for blocks, entries and queue items.
// Tests replace it with a deterministic sequence.
type IDGenerator func() string

// NewID returns a random UUIDv4 string.
func NewID() string {
	return uuid.NewString()
}

// SequenceIDs returns a generator yielding prefix-1, prefix-2, ...
// It is not safe for concurrent use.
func SequenceIDs(prefix string) IDGenerator {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}
