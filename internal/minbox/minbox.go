// Package minbox computes the minimum bounding box of a source raster's
// footprint under a destination projection, by densely sampling the
// source's boundary rather than just its four corners.
package minbox

import (
	"fmt"
	"math"

	"github.com/prasterblaster/prasterblaster/internal/projection"
	"github.com/prasterblaster/prasterblaster/internal/raster"
)

// ErrEmptyFootprint is returned when no boundary sample transforms
// successfully into the destination CRS.
var ErrEmptyFootprint = fmt.Errorf("minbox: empty footprint")

// Source describes the source raster's georeferencing and projection.
type Source struct {
	UL        raster.Coordinate
	PixelSize float64
	Rows      int
	Cols      int
	Proj      projection.Handle
}

// Box is the destination-world axis-aligned bounding box of a source
// footprint, plus the output raster dimensions it implies at a given
// destination pixel size.
type Box struct {
	UL   raster.Coordinate
	LR   raster.Coordinate
	Rows int
	Cols int
}

// Compute walks the four edges of src at single-pixel resolution,
// transforming each boundary sample two ways (direct source→destination,
// and source→geographic→destination) and folding every successful result
// into the running extrema. dstPixelSize sizes the
// resulting Box's Rows/Cols.
func Compute(src Source, dst projection.Handle, dstPixelSize float64) (Box, error) {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	found := false

	fold := func(x, y float64, ok bool) {
		if !ok {
			return
		}
		found = true
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	for _, p := range boundarySamples(src) {
		x, y, ok := sampleDirect(src, dst, p.col, p.row)
		fold(x, y, ok)

		x, y, ok = sampleViaGeographic(src, dst, p.col, p.row)
		fold(x, y, ok)
	}

	if !found {
		return Box{}, ErrEmptyFootprint
	}

	ul := raster.Coordinate{X: minX, Y: maxY}
	lr := raster.Coordinate{X: maxX, Y: minY}
	rows := int(math.Floor((ul.Y - lr.Y) / dstPixelSize))
	cols := int(math.Floor((lr.X - ul.X) / dstPixelSize))
	return Box{UL: ul, LR: lr, Rows: rows, Cols: cols}, nil
}

type boundaryPoint struct{ col, row int }

// boundarySamples enumerates every pixel corner on the source raster's
// outer boundary, at single-pixel resolution; the right and bottom edges
// sit at col == Cols and row == Rows (world x = UL.X + Cols*PixelSize).
func boundarySamples(src Source) []boundaryPoint {
	var pts []boundaryPoint
	for c := 0; c <= src.Cols; c++ {
		pts = append(pts, boundaryPoint{c, 0}, boundaryPoint{c, src.Rows})
	}
	for r := 0; r <= src.Rows; r++ {
		pts = append(pts, boundaryPoint{0, r}, boundaryPoint{src.Cols, r})
	}
	return pts
}

func pixelToWorld(src Source, col, row int) (float64, float64) {
	x := float64(col)*src.PixelSize + src.UL.X
	y := src.UL.Y - float64(row)*src.PixelSize
	return x, y
}

// sampleDirect treats the source pixel's world coordinate as if it were
// already expressed in the destination's projected units (the degenerate
// "same family" path used when both CRSs share a projection engine that
// can convert directly); when the families differ this path is driven by
// the geographic round trip instead, so it only contributes when the
// projections are equal.
func sampleDirect(src Source, dst projection.Handle, col, row int) (float64, float64, bool) {
	if src.Proj == nil || dst == nil || !src.Proj.Equals(dst) {
		return 0, 0, false
	}
	x, y := pixelToWorld(src, col, row)
	return x, y, true
}

// sampleViaGeographic converts a source pixel to geographic coordinates
// through the source projection, then to destination-projected
// coordinates through the destination projection.
func sampleViaGeographic(src Source, dst projection.Handle, col, row int) (float64, float64, bool) {
	if src.Proj == nil || dst == nil {
		return 0, 0, false
	}
	x, y := pixelToWorld(src, col, row)
	lon, lat, err := src.Proj.Inverse(x, y)
	if err != nil {
		return 0, 0, false
	}
	dx, dy, err := dst.Forward(lon, lat)
	if err != nil {
		return 0, 0, false
	}
	return dx, dy, true
}
