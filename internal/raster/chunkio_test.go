package raster

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTestRaster creates a minimal container file with the given 8-bit,
// single-band pixel values laid out row-major.
func writeTestRaster(t *testing.T, cols, rows int, pixels []byte) string {
	t.Helper()
	if len(pixels) != cols*rows {
		t.Fatalf("writeTestRaster: %d pixels, want %d", len(pixels), cols*rows)
	}

	path := filepath.Join(t.TempDir(), "test.prb")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	hdr := Header{Cols: cols, Rows: rows, Bands: 1, Type: U8, UL: Coordinate{X: 0, Y: float64(rows)}, PixelSize: 1}
	offset, err := WriteHeader(f, hdr)
	if err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := f.WriteAt(pixels, offset); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	return path
}

func TestInputRasterReadFullExtent(t *testing.T) {
	pixels := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	path := writeTestRaster(t, 4, 4, pixels)

	r, err := OpenInput(path, nil)
	if err != nil {
		t.Fatalf("OpenInput: %v", err)
	}
	defer r.Close()

	chunk, err := r.Read(Area{UL: Coordinate{X: 0, Y: 0}, LR: Coordinate{X: 3, Y: 3}})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(chunk.Buf) != string(pixels) {
		t.Errorf("Read() buf = %v, want %v", chunk.Buf, pixels)
	}
}

func TestInputRasterReadSubWindow(t *testing.T) {
	pixels := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	path := writeTestRaster(t, 4, 4, pixels)

	r, err := OpenInput(path, nil)
	if err != nil {
		t.Fatalf("OpenInput: %v", err)
	}
	defer r.Close()

	chunk, err := r.Read(Area{UL: Coordinate{X: 1, Y: 1}, LR: Coordinate{X: 2, Y: 2}})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []byte{6, 7, 10, 11}
	if string(chunk.Buf) != string(want) {
		t.Errorf("Read() buf = %v, want %v", chunk.Buf, want)
	}
	if chunk.Rows != 2 || chunk.Cols != 2 {
		t.Errorf("Read() dims = %dx%d, want 2x2", chunk.Cols, chunk.Rows)
	}
}

func TestInputRasterReadOutOfBounds(t *testing.T) {
	path := writeTestRaster(t, 4, 4, make([]byte, 16))
	r, err := OpenInput(path, nil)
	if err != nil {
		t.Fatalf("OpenInput: %v", err)
	}
	defer r.Close()

	if _, err := r.Read(Area{UL: Coordinate{X: 0, Y: 0}, LR: Coordinate{X: 4, Y: 3}}); err == nil {
		t.Error("Read() with out-of-bounds area should fail")
	}
}

func TestAllocateZeroFilled(t *testing.T) {
	desc := Descriptor{Cols: 10, Rows: 10, Type: U16, Bands: 2, PixelSize: 1}
	chunk := Allocate(desc, Area{UL: Coordinate{X: 0, Y: 0}, LR: Coordinate{X: 2, Y: 1}})
	if chunk.Rows != 2 || chunk.Cols != 3 {
		t.Errorf("Allocate() dims = %dx%d, want 3x2", chunk.Cols, chunk.Rows)
	}
	want := 2 * 3 * 2 * 2
	if len(chunk.Buf) != want {
		t.Errorf("Allocate() buf len = %d, want %d", len(chunk.Buf), want)
	}
	for _, b := range chunk.Buf {
		if b != 0 {
			t.Fatal("Allocate() buffer not zero-filled")
		}
	}
}
