// Package transform implements the RasterCoordTransformer: the
// per-pixel mapping from a destination raster pixel to the rectangle of
// source-raster pixels that contribute to it.
package transform

import (
	"math"

	"github.com/prasterblaster/prasterblaster/internal/raster"
)

// EmptyAreaSentinel is the UL.X value that marks an Area returned by
// Transform as empty.
const EmptyAreaSentinel = -1.0

// DefaultRoundTripTolerance is the default anti-fold guard tolerance, in
// projected units, used by TransformGuarded.
const DefaultRoundTripTolerance = 1e-4

// Grid describes one side (source or destination) of a coordinate
// transform: its projection and the georeferencing needed to convert
// between pixel and world coordinates.
type Grid struct {
	Proj      raster.Projection
	UL        raster.Coordinate
	PixelSize float64
	Rows      int
	Cols      int
}

// RasterCoordTransformer maps destination-raster pixel coordinates to the
// source-raster pixel area that contributes to them.
type RasterCoordTransformer struct {
	Dst Grid
	Src Grid
}

// New constructs a RasterCoordTransformer for the given destination and
// source grids.
func New(dst, src Grid) *RasterCoordTransformer {
	return &RasterCoordTransformer{Dst: dst, Src: src}
}

// Transform maps a destination pixel (col, row) to the Area of source
// pixels that contribute to it: the pixel's upper-left and lower-right
// corners are converted to destination world coordinates, inverse-projected
// through the destination projection to geographic coordinates,
// forward-projected through the source projection, and converted to
// source pixel space. It returns the empty sentinel area if either
// projection step fails.
func (t *RasterCoordTransformer) Transform(cx, cy int) raster.Area {
	ps := t.Dst.PixelSize
	ulWorld := destCorner(t.Dst, float64(cx), float64(cy), ps)
	lrWorld := destCorner(t.Dst, float64(cx+1), float64(cy+1), ps)

	ulSrc, ok := t.toSourceWorld(ulWorld)
	if !ok {
		return raster.EmptyArea()
	}
	lrSrc, ok := t.toSourceWorld(lrWorld)
	if !ok {
		return raster.EmptyArea()
	}

	ulPx := worldToSourcePixel(t.Src, ulSrc)
	lrPx := worldToSourcePixel(t.Src, lrSrc)

	return raster.Area{
		UL: raster.Coordinate{X: math.Min(ulPx.X, lrPx.X), Y: math.Min(ulPx.Y, lrPx.Y)},
		LR: raster.Coordinate{X: math.Max(ulPx.X, lrPx.X), Y: math.Max(ulPx.Y, lrPx.Y)},
	}
}

// TransformGuarded is Transform with an added anti-fold round-trip guard:
// the destination UL corner is forward-then-inverse transformed through
// the destination projection and rejected if the round-trip error exceeds
// tol. Pass tol <= 0 to use DefaultRoundTripTolerance.
func (t *RasterCoordTransformer) TransformGuarded(cx, cy int, tol float64) raster.Area {
	if tol <= 0 {
		tol = DefaultRoundTripTolerance
	}
	ps := t.Dst.PixelSize
	ulWorld := destCorner(t.Dst, float64(cx), float64(cy), ps)

	lon, lat, err := t.Dst.Proj.Inverse(ulWorld.X, ulWorld.Y)
	if err != nil {
		return raster.EmptyArea()
	}
	x2, y2, err := t.Dst.Proj.Forward(lon, lat)
	if err != nil {
		return raster.EmptyArea()
	}
	if math.Abs(x2-ulWorld.X) > tol || math.Abs(y2-ulWorld.Y) > tol {
		return raster.EmptyArea()
	}
	return t.Transform(cx, cy)
}

// destCorner converts a destination pixel-space corner (fractional column,
// fractional row) to a destination world coordinate. World y increases
// north while pixel row increases south, so y = UL.Y - row*ps.
func destCorner(g Grid, col, row, ps float64) raster.Coordinate {
	return raster.Coordinate{
		X: col*ps + g.UL.X,
		Y: g.UL.Y - row*ps,
	}
}

// toSourceWorld converts a destination world coordinate to a source world
// coordinate by going through geographic space: destination inverse,
// source forward.
func (t *RasterCoordTransformer) toSourceWorld(w raster.Coordinate) (raster.Coordinate, bool) {
	lon, lat, err := t.Dst.Proj.Inverse(w.X, w.Y)
	if err != nil {
		return raster.Coordinate{}, false
	}
	x, y, err := t.Src.Proj.Forward(lon, lat)
	if err != nil {
		return raster.Coordinate{}, false
	}
	return raster.Coordinate{X: x, Y: y}, true
}

// worldToSourcePixel converts a source world coordinate to source pixel
// space. Both axes divide by the source pixel size — never the
// destination pixel size.
func worldToSourcePixel(src Grid, w raster.Coordinate) raster.Coordinate {
	return raster.Coordinate{
		X: (w.X - src.UL.X) / src.PixelSize,
		Y: (src.UL.Y - w.Y) / src.PixelSize,
	}
}
