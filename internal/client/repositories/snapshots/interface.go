package snapshots

import "context"

// Repository keeps one opaque document per collection key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
}

// BatchWriter is implemented by repositories that can write several
// collections atomically.
type BatchWriter interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}

var (
	_ Repository  = (*SQLiteRepository)(nil)
	_ BatchWriter = (*SQLiteRepository)(nil)
)
