package raster

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Cols: 100, Rows: 50, Bands: 3, Type: U16,
		UL:         Coordinate{X: 10.5, Y: 20.25},
		PixelSize:  2.5,
		ProjFamily: 1,
		ProjParams: [15]float64{1, 2, 3},
	}

	var buf bytes.Buffer
	offset, err := WriteHeader(&buf, h)
	if err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	got, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	got.FirstStripOffset = 0 // computed separately below

	h.FirstStripOffset = 0
	if diff := cmp.Diff(h, got); diff != "" {
		t.Errorf("header round trip mismatch (-want +got):\n%s", diff)
	}
	if offset != int64(buf.Len()) {
		t.Errorf("WriteHeader offset = %d, want %d (no strip data written yet)", offset, buf.Len())
	}
}

func TestHeaderRoundTripWithCustomProjection(t *testing.T) {
	h := Header{
		Cols: 4, Rows: 4, Bands: 1, Type: U8,
		ProjFamily: ProjCustomCode,
		ProjCustom: "+proj=longlat +ellps=WGS84",
	}

	var buf bytes.Buffer
	if _, err := WriteHeader(&buf, h); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	got, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if got.ProjCustom != h.ProjCustom {
		t.Errorf("ProjCustom = %q, want %q", got.ProjCustom, h.ProjCustom)
	}
	if got.FirstStripOffset != int64(buf.Len()) {
		t.Errorf("FirstStripOffset = %d, want %d", got.FirstStripOffset, buf.Len())
	}
}
