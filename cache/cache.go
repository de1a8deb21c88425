// Package cache puts a tile store in front of a tile.Downloader.
//
// A store holds the tiles of a single provider, keyed by tile position.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb/maptile"
	"github.com/sirupsen/logrus"

	"github.com/RoninZc/geotiler/tile"
)

// Store keeps encoded tiles.
type Store interface {
	// Get returns the tile payload and whether it was found.
	Get(ctx context.Context, t maptile.Tile) ([]byte, bool, error)
	// Put stores the tile payload.
	Put(ctx context.Context, t maptile.Tile, data []byte) error
	Close() error
}

// Store kinds accepted by Open.
const (
	KindNone    = "none"
	KindMemory  = "memory"
	KindDir     = "dir"
	KindMBTiles = "mbtiles"
)

// ErrUnknownKind is returned by Open for an unsupported store kind.
var ErrUnknownKind = errors.New("cache: unknown store kind")

// Open creates a store of the given kind. path is the directory or file
// for disk stores, size the number of entries for the memory store and
// ext the tile file extension for the directory store. KindNone and ""
// return a nil store.
func Open(kind, path string, size int, ext string) (Store, error) {
	switch kind {
	case "", KindNone:
		return nil, nil
	case KindMemory:
		return NewMemoryStore(size)
	case KindDir:
		return NewDirStore(path, ext)
	case KindMBTiles:
		return OpenMBTiles(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// Downloader serves tiles from a store and falls back to another
// downloader on a miss, storing what it fetched.
type Downloader struct {
	store Store
	next  tile.Downloader
	log   logrus.FieldLogger
}

// NewDownloader wraps next with store. A nil logger logs to the standard
// logrus logger.
func NewDownloader(store Store, next tile.Downloader, log logrus.FieldLogger) *Downloader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Downloader{store: store, next: next, log: log}
}

// Download implements tile.Downloader. Store failures are logged and
// treated as a miss; they never fail the tile.
func (d *Downloader) Download(ctx context.Context, desc tile.Descriptor) tile.Result {
	data, ok, err := d.store.Get(ctx, desc.Tile)
	if err != nil {
		d.log.WithField("tile", desc.String()).Warnf("read cached tile error: %v", err)
	}
	if ok && len(data) > 0 {
		d.log.Debugf("tile %s served from cache", desc)
		return tile.Succeeded(desc, data)
	}

	r := d.next.Download(ctx, desc)
	if r.OK() {
		if err := d.store.Put(ctx, desc.Tile, r.Image()); err != nil {
			d.log.WithField("tile", desc.String()).Warnf("cache tile error: %v", err)
		}
	}
	return r
}
