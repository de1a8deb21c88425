package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/maptile"
)

// DirStore keeps tiles as files laid out as root/z/x/y.ext.
type DirStore struct {
	root string
	ext  string
}

// NewDirStore creates root if needed.
func NewDirStore(root, ext string) (*DirStore, error) {
	if root == "" {
		return nil, errors.New("cache: directory store needs a path")
	}
	if ext == "" {
		ext = "png"
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create tile directory: %w", err)
	}
	return &DirStore{root: root, ext: ext}, nil
}

// Path returns the file holding t.
func (s *DirStore) Path(t maptile.Tile) string {
	return filepath.Join(s.root, fmt.Sprintf("%d", t.Z), fmt.Sprintf("%d", t.X), fmt.Sprintf("%d.%s", t.Y, s.ext))
}

func (s *DirStore) Get(_ context.Context, t maptile.Tile) ([]byte, bool, error) {
	data, err := os.ReadFile(s.Path(t))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put writes the tile through a temporary file so readers never see a
// partial tile.
func (s *DirStore) Put(_ context.Context, t maptile.Tile, data []byte) error {
	path := s.Path(t)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create tile directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tile-*")
	if err != nil {
		return fmt.Errorf("create tile file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write tile file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write tile file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename tile file: %w", err)
	}
	return nil
}

func (s *DirStore) Close() error { return nil }
