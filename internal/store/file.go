package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"adquest/internal/catalog"
	"adquest/internal/types"
)

// FileStore keeps the snapshot as one JSON document on disk. Saves go
// through a temp file and rename so a crash mid-write leaves the previous
// snapshot intact.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(ctx context.Context) (*types.AppState, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return catalog.NewState(), nil
		}
		return nil, err
	}
	return decodeState(raw, f.path), nil
}

func (f *FileStore) Save(ctx context.Context, state *types.AppState) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".adquest-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, f.path)
}

func (f *FileStore) Close() error { return nil }
