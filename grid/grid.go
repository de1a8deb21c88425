// Package grid computes which tiles cover an area of the map.
//
// Every function returns tiles in row-major order (north to south, then
// west to east), which is the order a compositor lays them out in.
package grid

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"

	"github.com/RoninZc/geotiler/tile"
)

// MaxLatitude is the latitude limit of the web mercator projection.
const MaxLatitude = 85.05112877980659

// Bound returns the tiles covering b at zoom z. A bound whose Min lies
// east or north of its Max covers no tiles.
func Bound(b orb.Bound, z maptile.Zoom) []maptile.Tile {
	nw := At(orb.Point{b.Min.Lon(), b.Max.Lat()}, z)
	se := At(orb.Point{b.Max.Lon(), b.Min.Lat()}, z)
	if b.Min.Lon() > b.Max.Lon() || b.Min.Lat() > b.Max.Lat() || se.X < nw.X || se.Y < nw.Y {
		return []maptile.Tile{}
	}

	tiles := make([]maptile.Tile, 0, int(se.X-nw.X+1)*int(se.Y-nw.Y+1))
	for y := nw.Y; y <= se.Y; y++ {
		for x := nw.X; x <= se.X; x++ {
			tiles = append(tiles, maptile.New(x, y, z))
		}
	}
	return tiles
}

// At returns the tile containing p at zoom z. Points on the east or south
// edge of the world belong to the last column or row.
func At(p orb.Point, z maptile.Zoom) maptile.Tile {
	last := float64(uint64(1)<<uint(z)) - 1
	fx, fy := fraction(clamp(p), z)
	x := math.Min(math.Max(math.Floor(fx), 0), last)
	y := math.Min(math.Max(math.Floor(fy), 0), last)
	return maptile.New(uint32(x), uint32(y), z)
}

// Viewport returns the tiles needed to render a width x height pixel image
// centered on center at zoom z. Columns wrap around the antimeridian and
// rows outside the pyramid are dropped.
func Viewport(center orb.Point, z maptile.Zoom, width, height int) []maptile.Tile {
	if width <= 0 || height <= 0 {
		return []maptile.Tile{}
	}

	n := int64(1) << uint(z)
	fx, fy := fraction(clamp(center), z)

	halfW := float64(width) / 2 / tile.Size
	halfH := float64(height) / 2 / tile.Size

	x0 := int64(math.Floor(fx - halfW))
	x1 := int64(math.Ceil(fx+halfW)) - 1
	y0 := int64(math.Floor(fy - halfH))
	y1 := int64(math.Ceil(fy+halfH)) - 1
	if y0 < 0 {
		y0 = 0
	}
	if y1 > n-1 {
		y1 = n - 1
	}
	// never list a column twice when the viewport is wider than the world
	if x1-x0+1 > n {
		x1 = x0 + n - 1
	}

	var tiles []maptile.Tile
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			wx := ((x % n) + n) % n
			tiles = append(tiles, maptile.New(uint32(wx), uint32(y), z))
		}
	}
	if tiles == nil {
		tiles = []maptile.Tile{}
	}
	return tiles
}

// Collection returns the tiles covering the geometries of c at zoom z.
func Collection(c orb.Collection, z maptile.Zoom) []maptile.Tile {
	ch := make(chan maptile.Tile, 256)
	go tilecover.CollectionChannel(c, z, ch)

	seen := make(map[maptile.Tile]struct{})
	tiles := make([]maptile.Tile, 0)
	for t := range ch {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tiles = append(tiles, t)
	}
	Sort(tiles)
	return tiles
}

// Count returns the number of tiles covering c at zoom z.
func Count(c orb.Collection, z maptile.Zoom) int64 {
	return tilecover.CollectionCount(c, z)
}

// Sort orders tiles by zoom, row and column.
func Sort(tiles []maptile.Tile) {
	sort.Slice(tiles, func(i, j int) bool {
		a, b := tiles[i], tiles[j]
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}

// LoadCollection reads the geometries of a GeoJSON feature collection.
func LoadCollection(path string) (orb.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal geojson %s: %w", path, err)
	}

	var collection orb.Collection
	for _, f := range fc.Features {
		if f.Geometry != nil {
			collection = append(collection, f.Geometry)
		}
	}
	return collection, nil
}

// fraction returns the fractional tile position of p at zoom z.
func fraction(p orb.Point, z maptile.Zoom) (float64, float64) {
	n := math.Exp2(float64(z))
	lat := p.Lat() * math.Pi / 180

	x := (p.Lon() + 180) / 360 * n
	y := (1 - math.Log(math.Tan(lat)+1/math.Cos(lat))/math.Pi) / 2 * n
	return x, y
}

func clamp(p orb.Point) orb.Point {
	lon, lat := p.Lon(), p.Lat()
	lat = math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
	lon = math.Max(-180, math.Min(180, lon))
	return orb.Point{lon, lat}
}
