package main

import (
	"bytes"
	"compress/gzip"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/RoninZc/geotiler/grid"
	"github.com/RoninZc/geotiler/tile"
)

// gzipTile compresses vector tiles the way MBTiles and z/x/y servers
// expect them.
func gzipTile(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// loadLayers expands the configured lrs entries into one layer per zoom.
func loadLayers() ([]Layer, error) {
	var layers []Layer
	for i, lrs := range conf.Lrs {
		var (
			c     orb.Collection
			bound *orb.Bound
		)
		switch {
		case lrs.Geojson != "":
			var err error
			c, err = grid.LoadCollection(lrs.Geojson)
			if err != nil {
				return nil, err
			}
		case len(lrs.Bbox) == 4:
			if lrs.Bbox[0] > lrs.Bbox[2] || lrs.Bbox[1] > lrs.Bbox[3] {
				return nil, fmt.Errorf("lrs[%d]: bbox %v must be [minLon, minLat, maxLon, maxLat]", i, lrs.Bbox)
			}
			bound = &orb.Bound{
				Min: orb.Point{lrs.Bbox[0], lrs.Bbox[1]},
				Max: orb.Point{lrs.Bbox[2], lrs.Bbox[3]},
			}
		default:
			return nil, fmt.Errorf("lrs[%d]: need a geojson file or a bbox of 4 numbers", i)
		}
		if lrs.Min < tile.ZoomMin || lrs.Max > tile.ZoomMax {
			return nil, fmt.Errorf("lrs[%d]: zoom range %d-%d outside %d-%d", i, lrs.Min, lrs.Max, tile.ZoomMin, tile.ZoomMax)
		}
		if lrs.Min > lrs.Max {
			return nil, fmt.Errorf("lrs[%d]: min zoom %d above max zoom %d", i, lrs.Min, lrs.Max)
		}
		for z := lrs.Min; z <= lrs.Max; z++ {
			layers = append(layers, Layer{Zoom: z, Collection: c, Bound: bound})
		}
	}
	return layers, nil
}
