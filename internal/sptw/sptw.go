// Package sptw is a "simple parallel tiff writer": sequentially
// consistent parallel writes to a single pre-created raster container
// file, ported from the original prasterblaster's MPI-IO sptw onto
// os.File.WriteAt, since each worker here is an independent OS process
// rather than an MPI rank sharing one MPI_File handle.
//
// Sequential consistency holds as long as the file is strip-organized,
// pixel-interleaved, with strips stored contiguously starting at a known
// offset, and no two workers write overlapping byte ranges — the
// partitioner is the authority for that disjointness, not this package.
package sptw

import (
	"fmt"
	"os"

	"github.com/prasterblaster/prasterblaster/internal/raster"
)

// Handle is an open parallel-writable raster.
type Handle struct {
	f   *os.File
	hdr raster.Header
}

// CreateRaster creates a new output file at path with the given header
// fields and writes its header, leaving the strip region unwritten
// (zero-filled on most filesystems via a single Truncate call). Only the
// coordinator's rank 0 calls this.
func CreateRaster(path string, hdr raster.Header) (*Handle, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sptw: creating %s: %w", path, err)
	}

	offset, err := raster.WriteHeader(f, hdr)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sptw: writing header: %w", err)
	}
	hdr.FirstStripOffset = offset

	total := offset + hdr.StripBytes()*int64(hdr.Rows)
	if err := f.Truncate(total); err != nil {
		f.Close()
		return nil, fmt.Errorf("sptw: sizing file: %w", err)
	}

	return &Handle{f: f, hdr: hdr}, nil
}

// Open opens an existing output file for parallel writing, reading its
// header to cache the strip layout. Every worker, including rank 0, calls
// this after the creation barrier.
func Open(path string) (*Handle, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("sptw: opening %s: %w", path, err)
	}
	hdr, err := raster.ReadHeader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sptw: reading header: %w", err)
	}
	return &Handle{f: f, hdr: hdr}, nil
}

// Header returns the cached, read-only header.
func (h *Handle) Header() raster.Header { return h.hdr }

// WriteRows writes buf, a contiguous run of (lastRow-firstRow+1) whole
// strips, starting at firstRow. len(buf) must equal that many strip_bytes
// exactly.
func (h *Handle) WriteRows(buf []byte, firstRow, lastRow int) error {
	want := h.hdr.StripBytes() * int64(lastRow-firstRow+1)
	if int64(len(buf)) != want {
		return fmt.Errorf("sptw: WriteRows buffer is %d bytes, want %d", len(buf), want)
	}
	offset := h.hdr.FirstStripOffset + int64(firstRow)*h.hdr.StripBytes()
	if _, err := h.f.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("sptw: WriteRows: %w", err)
	}
	return nil
}

// WriteSubrow writes buf, covering columns [firstCol,lastCol] of a single
// row. len(buf) must equal (lastCol-firstCol+1)*bands*bytes_per_band.
func (h *Handle) WriteSubrow(buf []byte, row, firstCol, lastCol int) error {
	bandBytes := int64(h.hdr.Bands) * int64(h.hdr.Type.Size())
	want := bandBytes * int64(lastCol-firstCol+1)
	if int64(len(buf)) != want {
		return fmt.Errorf("sptw: WriteSubrow buffer is %d bytes, want %d", len(buf), want)
	}
	offset := h.hdr.FirstStripOffset + int64(row)*h.hdr.StripBytes() + int64(firstCol)*bandBytes
	if _, err := h.f.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("sptw: WriteSubrow: %w", err)
	}
	return nil
}

// Close flushes and closes the handle. Callers are responsible for the
// group barrier that must precede Close: every worker
// must have finished writing before any worker closes.
func (h *Handle) Close() error {
	if err := h.f.Sync(); err != nil {
		h.f.Close()
		return fmt.Errorf("sptw: syncing: %w", err)
	}
	return h.f.Close()
}
