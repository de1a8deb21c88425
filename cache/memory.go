package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb/maptile"
)

// DefaultMemorySize is the number of tiles kept by a memory store when no
// size is given.
const DefaultMemorySize = 1024

// MemoryStore keeps the most recently used tiles in memory.
type MemoryStore struct {
	tiles *lru.Cache[maptile.Tile, []byte]
}

// NewMemoryStore creates a store holding up to size tiles.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	c, err := lru.New[maptile.Tile, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create memory store: %w", err)
	}
	return &MemoryStore{tiles: c}, nil
}

func (s *MemoryStore) Get(_ context.Context, t maptile.Tile) ([]byte, bool, error) {
	data, ok := s.tiles.Get(t)
	return data, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, t maptile.Tile, data []byte) error {
	s.tiles.Add(t, data)
	return nil
}

// Len returns the number of cached tiles.
func (s *MemoryStore) Len() int { return s.tiles.Len() }

func (s *MemoryStore) Close() error {
	s.tiles.Purge()
	return nil
}
