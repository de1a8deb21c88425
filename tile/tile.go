// Package tile fetches map tiles from a tile provider.
//
// A Descriptor names one tile of the pyramid and the URL it is served from.
// A Fetcher hands a batch of descriptors to a Downloader concurrently and
// returns one Result per descriptor, in input order. A failing tile never
// fails the batch; its Result carries the error instead of image bytes.
package tile

import (
	"fmt"

	"github.com/paulmach/orb/maptile"
)

// Size is the default tile edge in pixels.
const Size = 256

// ZoomMin and ZoomMax bound the zoom levels served by common providers.
const (
	ZoomMin = 0
	ZoomMax = 20
)

// Tile payload formats
const (
	PNG  = "png"
	JPG  = "jpg"
	PBF  = "pbf"
	WEBP = "webp"
)

// Descriptor identifies a tile and its fully resolved source URL.
type Descriptor struct {
	Tile maptile.Tile
	URL  string
}

// New returns the descriptor of the tile at x, y, z served from url.
func New(x, y uint32, z maptile.Zoom, url string) Descriptor {
	return Descriptor{Tile: maptile.New(x, y, z), URL: url}
}

func (d Descriptor) String() string {
	return Key(d.Tile)
}

// Key renders a tile as z/x/y.
func Key(t maptile.Tile) string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Result is the outcome of retrieving one Descriptor. It holds either the
// raw image payload or the error, never both. Results are values built by
// Succeeded or Failed and are not changed afterwards.
type Result struct {
	Descriptor

	img []byte
	err error
}

// Succeeded builds the result of a successful retrieval. An empty payload
// is not a tile, so it yields a failed result carrying ErrEmptyTile.
func Succeeded(d Descriptor, img []byte) Result {
	if len(img) == 0 {
		return Failed(d, &TransportError{URL: d.URL, Err: ErrEmptyTile})
	}
	return Result{Descriptor: d, img: img}
}

// Failed builds the result of a failed retrieval.
func Failed(d Descriptor, err error) Result {
	if err == nil {
		err = ErrUnknown
	}
	return Result{Descriptor: d, err: err}
}

// Image returns the encoded image payload, or nil if retrieval failed.
// The returned slice is shared with the result and must not be modified.
func (r Result) Image() []byte { return r.img }

// Err returns the retrieval error, or nil if the tile was fetched.
func (r Result) Err() error { return r.err }

// OK reports whether the result carries an image.
func (r Result) OK() bool { return r.err == nil }
