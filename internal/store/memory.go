package store

import (
	"context"

	"adquest/internal/catalog"
	"adquest/internal/types"
)

// MemoryStore holds the serialized snapshot in memory. It round-trips
// through JSON like the durable backends so tests exercise the same
// encoding path.
type MemoryStore struct {
	raw []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (*types.AppState, error) {
	if m.raw == nil {
		return catalog.NewState(), nil
	}
	return decodeState(m.raw, "memory"), nil
}

func (m *MemoryStore) Save(ctx context.Context, state *types.AppState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	m.raw = raw
	return nil
}

func (m *MemoryStore) Close() error { return nil }
