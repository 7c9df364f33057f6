// Package store persists the application snapshot as one opaque value.
// Every Save replaces the whole serialized state; there are no partial or
// per-entity writes. A missing or unreadable snapshot is never fatal: Load
// self-heals by returning a freshly seeded default state.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"adquest/internal/catalog"
	"adquest/internal/types"
)

type Store interface {
	Load(ctx context.Context) (*types.AppState, error)
	Save(ctx context.Context, state *types.AppState) error
	Close() error
}

var ErrUnsupportedScheme = errors.New("unsupported snapshot url scheme")

// Open selects a backend from the snapshot URL scheme:
// file://, redis:// (or rediss://), postgres:// (or postgresql://), mem://.
func Open(ctx context.Context, rawURL string) (Store, error) {
	switch {
	case strings.HasPrefix(rawURL, "file://"):
		return NewFileStore(strings.TrimPrefix(rawURL, "file://")), nil
	case strings.HasPrefix(rawURL, "redis://"), strings.HasPrefix(rawURL, "rediss://"):
		return NewRedisStore(ctx, rawURL)
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		return NewPostgresStore(ctx, rawURL)
	case strings.HasPrefix(rawURL, "mem://"), rawURL == "":
		return NewMemoryStore(), nil
	default:
		return nil, ErrUnsupportedScheme
	}
}

func encodeState(state *types.AppState) ([]byte, error) {
	return json.Marshal(state)
}

// decodeState turns a serialized snapshot into state, falling back to a
// seeded default when the payload does not parse. A corrupt snapshot is
// discarded, not propagated.
func decodeState(raw []byte, source string) *types.AppState {
	var state types.AppState
	if err := json.Unmarshal(raw, &state); err != nil {
		log.Printf("store: corrupt snapshot in %s, starting fresh: %v", source, err)
		return catalog.NewState()
	}
	if state.Tasks == nil {
		state.Tasks = catalog.DefaultTasks()
	}
	if state.Users == nil {
		state.Users = []*types.User{}
	}
	if state.Transactions == nil {
		state.Transactions = []*types.Transaction{}
	}
	return &state
}
