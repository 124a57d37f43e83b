// Package kernel implements the reprojection kernel: for each
// destination pixel, it drives the RasterCoordTransformer to find the
// contributing source area, clamps it to the source chunk, and invokes a
// Resampler to produce the output value.
package kernel

import (
	"math"

	"github.com/prasterblaster/prasterblaster/internal/raster"
	"github.com/prasterblaster/prasterblaster/internal/transform"
)

// Resampler maps a clamped source-pixel area to one output sample, per
// band. Implementations must be pure, deterministic, and must not read
// outside the supplied source chunk.
type Resampler interface {
	// Sample reads src over the integer-pixel rectangle
	// [ulCol,lrCol] x [ulRow,lrRow] (inclusive) and writes one sample per
	// band into out (len(out) == src.Bands), encoded per src.Type.
	Sample(src *raster.Chunk, ulCol, ulRow, lrCol, lrRow int, out []byte)
}

// Reproject drives the transformer over every pixel of dst, sampling src
// through resampler and falling back to fillValue (one encoded sample,
// repeated per band, matching raster.Descriptor.Fill) for pixels whose
// transform is empty or has zero width or height. A transformed area that
// lies partly or wholly outside src is clamped to src's edge pixels
// rather than filled.
func Reproject(tr *transform.RasterCoordTransformer, src, dst *raster.Chunk, fillValue []byte, resampler Resampler) {
	bandBytes := dst.Type.Size() * dst.Bands
	out := make([]byte, bandBytes)
	fillPixel := make([]byte, bandBytes)
	if len(fillValue) > 0 {
		for i := 0; i < bandBytes; i += len(fillValue) {
			copy(fillPixel[i:], fillValue)
		}
	}

	for row := 0; row < dst.Rows; row++ {
		for col := 0; col < dst.Cols; col++ {
			destCol := dst.RasterCol + col
			destRow := dst.RasterRow + row

			a := tr.Transform(destCol, destRow)
			offset := dst.PixelOffset(col, row)

			if a.IsEmpty() {
				copy(dst.Buf[offset:offset+bandBytes], fillPixel)
				continue
			}

			// a is a continuous rectangle [UL, LR); its right/bottom
			// edge pixel index is the last integer strictly below LR,
			// not LR itself when LR happens to land on an integer.
			ulCol := clampInt(int(math.Floor(a.UL.X))-src.RasterCol, 0, src.Cols-1)
			ulRow := clampInt(int(math.Floor(a.UL.Y))-src.RasterRow, 0, src.Rows-1)
			lrCol := clampInt(int(math.Floor(a.LR.X-1e-9))-src.RasterCol, 0, src.Cols-1)
			lrRow := clampInt(int(math.Floor(a.LR.Y-1e-9))-src.RasterRow, 0, src.Rows-1)

			if ulCol > lrCol || ulRow > lrRow {
				copy(dst.Buf[offset:offset+bandBytes], fillPixel)
				continue
			}

			resampler.Sample(src, ulCol, ulRow, lrCol, lrRow, out)
			copy(dst.Buf[offset:offset+bandBytes], out)
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
