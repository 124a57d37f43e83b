package raster

import (
	"fmt"
	"os"
)

// InputRaster is a read-only open handle on a container file, used to
// materialise input windows for reprojection.
type InputRaster struct {
	f    *os.File
	hdr  Header
	proj Projection
}

// OpenInput opens path read-only and parses its header. proj is the
// projection attached to the returned Descriptor and to every Chunk read;
// the projection fields stored in the header are not consulted.
func OpenInput(path string, proj Projection) (*InputRaster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster: opening %s: %w", path, err)
	}
	hdr, err := ReadHeader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("raster: reading header of %s: %w", path, err)
	}
	return &InputRaster{f: f, hdr: hdr, proj: proj}, nil
}

func (r *InputRaster) Close() error { return r.f.Close() }

// Descriptor returns the immutable metadata of the opened raster.
func (r *InputRaster) Descriptor() Descriptor {
	return Descriptor{
		Cols:      r.hdr.Cols,
		Rows:      r.hdr.Rows,
		UL:        r.hdr.UL,
		PixelSize: r.hdr.PixelSize,
		Type:      r.hdr.Type,
		Bands:     r.hdr.Bands,
		Proj:      r.proj,
	}
}

// Read materialises the requested input-pixel window into a RasterChunk.
// area must satisfy 0 <= ul <= lr < (cols,rows); callers are responsible
// for clipping areas that only partially intersect the raster.
func (r *InputRaster) Read(area Area) (*Chunk, error) {
	ulCol, ulRow := int(area.UL.X), int(area.UL.Y)
	lrCol, lrRow := int(area.LR.X), int(area.LR.Y)

	if ulCol < 0 || ulRow < 0 || lrCol >= r.hdr.Cols || lrRow >= r.hdr.Rows || lrCol < ulCol || lrRow < ulRow {
		return nil, fmt.Errorf("raster: area %+v out of bounds for %dx%d raster", area, r.hdr.Cols, r.hdr.Rows)
	}

	cols := lrCol - ulCol + 1
	rows := lrRow - ulRow + 1
	bandBytes := r.hdr.Bands * r.hdr.Type.Size()
	rowBytes := cols * bandBytes
	stripBytes := r.hdr.StripBytes()

	buf := make([]byte, rows*rowBytes)
	for row := 0; row < rows; row++ {
		srcRow := ulRow + row
		offset := r.hdr.FirstStripOffset + int64(srcRow)*stripBytes + int64(ulCol)*int64(bandBytes)
		dst := buf[row*rowBytes : (row+1)*rowBytes]
		if _, err := r.f.ReadAt(dst, offset); err != nil {
			return nil, fmt.Errorf("raster: reading row %d: %w", srcRow, err)
		}
	}

	return &Chunk{
		RasterCol: ulCol,
		RasterRow: ulRow,
		Rows:      rows,
		Cols:      cols,
		ULProjected: Coordinate{
			X: r.hdr.UL.X + float64(ulCol)*r.hdr.PixelSize,
			Y: r.hdr.UL.Y - float64(ulRow)*r.hdr.PixelSize,
		},
		PixelSize: r.hdr.PixelSize,
		Type:      r.hdr.Type,
		Bands:     r.hdr.Bands,
		Proj:      r.proj,
		Buf:       buf,
	}, nil
}

// Allocate returns a zero-filled buffer sized to area; no I/O is
// performed. Used to build the destination chunk for a work unit before
// the reprojection kernel fills it in.
func Allocate(desc Descriptor, area Area) *Chunk {
	ulCol, ulRow := int(area.UL.X), int(area.UL.Y)
	lrCol, lrRow := int(area.LR.X), int(area.LR.Y)
	cols := lrCol - ulCol + 1
	rows := lrRow - ulRow + 1

	return &Chunk{
		RasterCol: ulCol,
		RasterRow: ulRow,
		Rows:      rows,
		Cols:      cols,
		ULProjected: Coordinate{
			X: desc.UL.X + float64(ulCol)*desc.PixelSize,
			Y: desc.UL.Y - float64(ulRow)*desc.PixelSize,
		},
		PixelSize: desc.PixelSize,
		Type:      desc.Type,
		Bands:     desc.Bands,
		Proj:      desc.Proj,
		Buf:       make([]byte, rows*cols*desc.Bands*desc.Type.Size()),
	}
}
