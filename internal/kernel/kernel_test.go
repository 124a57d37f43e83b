package kernel

import (
	"testing"

	"github.com/prasterblaster/prasterblaster/internal/projection"
	"github.com/prasterblaster/prasterblaster/internal/raster"
	"github.com/prasterblaster/prasterblaster/internal/transform"
)

func chunkU8(rasterCol, rasterRow, cols, rows int, values []byte) *raster.Chunk {
	return &raster.Chunk{
		RasterCol: rasterCol, RasterRow: rasterRow,
		Rows: rows, Cols: cols, Type: raster.U8, Bands: 1,
		Buf: values,
	}
}

func identityGrid(ul raster.Coordinate, ps float64, rows, cols int) transform.Grid {
	h, _ := projection.ForFamily(projection.FamilyWGS84Identity, [15]float64{})
	return transform.Grid{Proj: h, UL: ul, PixelSize: ps, Rows: rows, Cols: cols}
}

// TestReprojectIdentity checks that identical CRS, pixel size and UL
// reproject to a byte-identical buffer with nearest-neighbor sampling.
func TestReprojectIdentity(t *testing.T) {
	values := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	src := chunkU8(0, 0, 4, 4, append([]byte(nil), values...))
	dst := chunkU8(0, 0, 4, 4, make([]byte, 16))

	grid := identityGrid(raster.Coordinate{X: 0, Y: 4}, 1, 4, 4)
	tr := transform.New(grid, grid)

	Reproject(tr, src, dst, []byte{0}, NearestResampler{})

	for i := range values {
		if dst.Buf[i] != values[i] {
			t.Errorf("dst.Buf[%d] = %d, want %d", i, dst.Buf[i], values[i])
		}
	}
}

// TestReprojectNearestDownsample checks nearest-neighbor sampling on a
// 2x downsample.
func TestReprojectNearestDownsample(t *testing.T) {
	values := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	src := chunkU8(0, 0, 4, 4, values)
	dst := chunkU8(0, 0, 2, 2, make([]byte, 4))

	srcGrid := identityGrid(raster.Coordinate{X: 0, Y: 4}, 1, 4, 4)
	dstGrid := identityGrid(raster.Coordinate{X: 0, Y: 4}, 2, 2, 2)
	tr := transform.New(dstGrid, srcGrid)

	Reproject(tr, src, dst, []byte{0}, NearestResampler{})

	want := []byte{1, 3, 9, 11}
	for i := range want {
		if dst.Buf[i] != want[i] {
			t.Errorf("dst.Buf[%d] = %d, want %d", i, dst.Buf[i], want[i])
		}
	}
}

// TestReprojectMeanDownsample checks mean sampling, including its
// truncate-toward-zero rounding, on a 2x downsample.
func TestReprojectMeanDownsample(t *testing.T) {
	values := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	src := chunkU8(0, 0, 4, 4, values)
	dst := chunkU8(0, 0, 2, 2, make([]byte, 4))

	srcGrid := identityGrid(raster.Coordinate{X: 0, Y: 4}, 1, 4, 4)
	dstGrid := identityGrid(raster.Coordinate{X: 0, Y: 4}, 2, 2, 2)
	tr := transform.New(dstGrid, srcGrid)

	Reproject(tr, src, dst, []byte{0}, MeanResampler{})

	want := []byte{3, 5, 11, 13}
	for i := range want {
		if dst.Buf[i] != want[i] {
			t.Errorf("dst.Buf[%d] = %d, want %d", i, dst.Buf[i], want[i])
		}
	}
}

// TestReprojectFillOutsideFootprint checks that a destination whose every
// pixel fails the destination projection's inverse (e.g. a polar
// projection with the source footprint far from the pole) comes out
// uniformly fill_value.
func TestReprojectFillOutsideFootprint(t *testing.T) {
	src := chunkU8(0, 0, 4, 4, make([]byte, 16))
	dst := chunkU8(0, 0, 2, 2, make([]byte, 4))

	moll, _ := projection.ForFamily(projection.FamilyMollweide, [15]float64{})
	srcGrid := identityGrid(raster.Coordinate{X: -2, Y: 2}, 1, 4, 4)
	dstGrid := transform.Grid{Proj: moll, UL: raster.Coordinate{X: 0, Y: 1e9}, PixelSize: 1e8, Rows: 2, Cols: 2}
	tr := transform.New(dstGrid, srcGrid)

	fill := []byte{99}
	Reproject(tr, src, dst, fill, NearestResampler{})

	for i, v := range dst.Buf {
		if v != fill[0] {
			t.Errorf("dst.Buf[%d] = %d, want fill value %d", i, v, fill[0])
		}
	}
}

// TestReprojectClampingSafety checks that the kernel never indexes
// outside the supplied source chunk even when the transform reports an
// area straddling the chunk's edge.
func TestReprojectClampingSafety(t *testing.T) {
	src := chunkU8(0, 0, 2, 2, []byte{1, 2, 3, 4})
	dst := chunkU8(0, 0, 4, 4, make([]byte, 16))

	srcGrid := identityGrid(raster.Coordinate{X: 0, Y: 2}, 1, 2, 2)
	dstGrid := identityGrid(raster.Coordinate{X: -1, Y: 3}, 1, 4, 4)
	tr := transform.New(dstGrid, srcGrid)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Reproject panicked (likely out-of-bounds read): %v", r)
		}
	}()
	Reproject(tr, src, dst, []byte{0}, MeanResampler{})
}

func TestMeanResamplerTruncates(t *testing.T) {
	src := chunkU8(0, 0, 2, 1, []byte{1, 2})
	out := make([]byte, 1)
	MeanResampler{}.Sample(src, 0, 0, 1, 0, out)
	if out[0] != 1 { // mean(1,2)=1.5, truncates toward zero
		t.Errorf("mean = %d, want 1", out[0])
	}
}

func TestParseFillValue(t *testing.T) {
	got, err := ParseFillValue(raster.U16, "1000")
	if err != nil {
		t.Fatalf("ParseFillValue: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if readSample(raster.U16, got, 0) != 1000 {
		t.Errorf("decoded fill = %v, want 1000", readSample(raster.U16, got, 0))
	}
}

func TestResamplerFor(t *testing.T) {
	for _, name := range []string{"nearest", "mean", ""} {
		if _, err := ResamplerFor(name, raster.U8); err != nil {
			t.Errorf("ResamplerFor(%q, U8): %v", name, err)
		}
	}
	if _, err := ResamplerFor("bilinear", raster.F32); err != nil {
		t.Errorf("ResamplerFor(bilinear, F32): %v", err)
	}
	if _, err := ResamplerFor("bilinear", raster.U8); err == nil {
		t.Error("ResamplerFor(bilinear, U8) should fail: bilinear requires a float type")
	}
	if _, err := ResamplerFor("bogus", raster.U8); err == nil {
		t.Error("ResamplerFor(bogus) should fail")
	}
}
