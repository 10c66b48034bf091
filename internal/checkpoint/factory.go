package checkpoint

import "fmt"

// NewStore builds a checkpoint backend. An empty kind selects the in-memory
// store; "sqlite" needs a file path.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("%w: unsupported backend %q", ErrCheckpoint, kind)
	}
}
