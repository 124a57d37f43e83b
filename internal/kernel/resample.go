package kernel

import (
	"encoding/binary"
	"math"

	"github.com/prasterblaster/prasterblaster/internal/raster"
)

// NearestResampler always samples the clamped area's upper-left pixel.
type NearestResampler struct{}

func (NearestResampler) Sample(src *raster.Chunk, ulCol, ulRow, _, _ int, out []byte) {
	off := src.PixelOffset(ulCol, ulRow)
	copy(out, src.Buf[off:off+src.BandBytes()])
}

// MeanResampler averages every source pixel in the clamped area, per
// band, in float64 arithmetic (integer types then truncate toward zero,
// via writeSample; float types store the average directly).
type MeanResampler struct{}

func (MeanResampler) Sample(src *raster.Chunk, ulCol, ulRow, lrCol, lrRow int, out []byte) {
	bands := src.Bands
	sums := make([]float64, bands)
	count := 0

	for row := ulRow; row <= lrRow; row++ {
		for col := ulCol; col <= lrCol; col++ {
			off := src.PixelOffset(col, row)
			for b := 0; b < bands; b++ {
				sums[b] += readSample(src.Type, src.Buf, off+b*src.Type.Size())
			}
			count++
		}
	}
	if count == 0 {
		count = 1
	}
	for b := 0; b < bands; b++ {
		writeSample(src.Type, out, b*src.Type.Size(), sums[b]/float64(count))
	}
}

// BilinearResampler interpolates between the four pixels nearest the
// clamped area's centroid. A single-pixel area returns that pixel; on an
// axis where the area is one pixel wide, both interpolation neighbours on
// that axis are the same pixel.
type BilinearResampler struct{}

func (BilinearResampler) Sample(src *raster.Chunk, ulCol, ulRow, lrCol, lrRow int, out []byte) {
	if ulCol == lrCol && ulRow == lrRow {
		NearestResampler{}.Sample(src, ulCol, ulRow, lrCol, lrRow, out)
		return
	}

	cx := float64(ulCol+lrCol) / 2
	cy := float64(ulRow+lrRow) / 2

	x0 := clampInt(int(math.Floor(cx)), ulCol, lrCol)
	x1 := clampInt(x0+1, ulCol, lrCol)
	y0 := clampInt(int(math.Floor(cy)), ulRow, lrRow)
	y1 := clampInt(y0+1, ulRow, lrRow)

	fx := cx - float64(x0)
	fy := cy - float64(y0)

	bands := src.Bands
	for b := 0; b < bands; b++ {
		v00 := sampleAt(src, x0, y0, b)
		v10 := sampleAt(src, x1, y0, b)
		v01 := sampleAt(src, x0, y1, b)
		v11 := sampleAt(src, x1, y1, b)

		top := v00*(1-fx) + v10*fx
		bottom := v01*(1-fx) + v11*fx
		v := top*(1-fy) + bottom*fy

		writeSample(src.Type, out, b*src.Type.Size(), v)
	}
}

func sampleAt(src *raster.Chunk, col, row, band int) float64 {
	off := src.PixelOffset(col, row) + band*src.Type.Size()
	return readSample(src.Type, src.Buf, off)
}

// readSample decodes one pixel-type sample from buf at off.
func readSample(t raster.PixelType, buf []byte, off int) float64 {
	switch t {
	case raster.U8:
		return float64(buf[off])
	case raster.U16:
		return float64(binary.BigEndian.Uint16(buf[off:]))
	case raster.I16:
		return float64(int16(binary.BigEndian.Uint16(buf[off:])))
	case raster.U32:
		return float64(binary.BigEndian.Uint32(buf[off:]))
	case raster.I32:
		return float64(int32(binary.BigEndian.Uint32(buf[off:])))
	case raster.F32:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(buf[off:])))
	case raster.F64:
		return math.Float64frombits(binary.BigEndian.Uint64(buf[off:]))
	default:
		return 0
	}
}

// writeSample truncates v toward zero to t's representation (matching the
// C-style narrowing cast the original mean resampler relies on: 3.5
// truncates to 3, not 4) and encodes it into buf at off.
func writeSample(t raster.PixelType, buf []byte, off int, v float64) {
	switch t {
	case raster.U8:
		buf[off] = byte(clampFloat(math.Trunc(v), 0, 255))
	case raster.U16:
		binary.BigEndian.PutUint16(buf[off:], uint16(clampFloat(math.Trunc(v), 0, 65535)))
	case raster.I16:
		binary.BigEndian.PutUint16(buf[off:], uint16(int16(clampFloat(math.Trunc(v), -32768, 32767))))
	case raster.U32:
		binary.BigEndian.PutUint32(buf[off:], uint32(clampFloat(math.Trunc(v), 0, 4294967295)))
	case raster.I32:
		binary.BigEndian.PutUint32(buf[off:], uint32(int32(clampFloat(math.Trunc(v), -2147483648, 2147483647))))
	case raster.F32:
		binary.BigEndian.PutUint32(buf[off:], math.Float32bits(float32(v)))
	case raster.F64:
		binary.BigEndian.PutUint64(buf[off:], math.Float64bits(v))
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
