package raster

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Container is the on-disk raster format produced and consumed by this
// tool: a minimal strip-organised, pixel-interleaved format satisfying
// exactly the invariants the parallel writer requires, rather than a full
// TIFF implementation.
//
// Layout: [magic, len(magic) bytes]
//
//	[fixed fields, headerFixedSize bytes]
//	[scalar tail: UL.Y, PixelSize, reserved, 15 params; 8*3+8*15 bytes]
//	[projection blob, variable length]
//	[strip data, starting at FirstStripOffset, contiguous, row order]
const magic = "PRB1"

// headerFixedSize is the byte length of the fixed-width header fields that
// follow the magic, not counting the variable-length projection blob.
const headerFixedSize = 8*4 + 8 + 4 + 4 + 4 + 4

// Header is the immutable metadata block written once by rank 0 and
// thereafter treated as read-only by every worker.
type Header struct {
	Cols, Rows       int
	Bands            int
	Type             PixelType
	UL               Coordinate
	PixelSize        float64
	FirstStripOffset int64
	ProjFamily       uint16
	ProjParams       [15]float64
	ProjCustom       string // non-empty only for ProjFamily == ProjCustomCode
}

// ProjCustomCode marks a projection handle not in the built-in family
// enumeration; ProjCustom then holds its PROJ-like parameter string.
const ProjCustomCode = 0xFFFF

// StripBytes returns the number of bytes in one full output row, i.e. the
// strip in the output file.
func (h Header) StripBytes() int64 {
	return int64(h.Cols) * int64(h.Bands) * int64(h.Type.Size())
}

// WriteHeader serialises h to w, including the variable-length projection
// blob, and returns the byte offset the caller must use as
// FirstStripOffset (the header itself does not know its own final value
// ahead of time, since the blob length is variable).
func WriteHeader(w io.Writer, h Header) (int64, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(magic); err != nil {
		return 0, err
	}

	buf := make([]byte, headerFixedSize)
	binary.BigEndian.PutUint64(buf[0:8], uint64(h.Cols))
	binary.BigEndian.PutUint64(buf[8:16], uint64(h.Rows))
	binary.BigEndian.PutUint64(buf[16:24], uint64(h.Bands))
	binary.BigEndian.PutUint64(buf[24:32], uint64(h.Type))
	binary.BigEndian.PutUint64(buf[32:40], math.Float64bits(h.UL.X))
	binary.BigEndian.PutUint32(buf[40:44], uint32(h.ProjFamily))
	binary.BigEndian.PutUint32(buf[44:48], uint32(len(h.ProjCustom)))
	binary.BigEndian.PutUint32(buf[48:52], 0) // reserved
	binary.BigEndian.PutUint32(buf[52:56], 0) // reserved
	if _, err := bw.Write(buf); err != nil {
		return 0, err
	}

	// Remaining fixed-width scalars, written as a second block for
	// readability of the offsets above; kept in one function so the format
	// is defined in exactly one place.
	tail := make([]byte, 8*3+8*15)
	binary.BigEndian.PutUint64(tail[0:8], math.Float64bits(h.UL.Y))
	binary.BigEndian.PutUint64(tail[8:16], math.Float64bits(h.PixelSize))
	binary.BigEndian.PutUint64(tail[16:24], 0) // reserved
	for i, p := range h.ProjParams {
		binary.BigEndian.PutUint64(tail[24+i*8:32+i*8], math.Float64bits(p))
	}
	if _, err := bw.Write(tail); err != nil {
		return 0, err
	}

	if h.ProjCustom != "" {
		if _, err := bw.WriteString(h.ProjCustom); err != nil {
			return 0, err
		}
	}

	if err := bw.Flush(); err != nil {
		return 0, err
	}

	offset := int64(len(magic)) + int64(len(buf)) + int64(len(tail)) + int64(len(h.ProjCustom))
	return offset, nil
}

// ReadHeader parses a Header from the start of r.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header

	magicBuf := make([]byte, len(magic))
	if _, err := io.ReadFull(r, magicBuf); err != nil {
		return h, fmt.Errorf("raster: reading magic: %w", err)
	}
	if string(magicBuf) != magic {
		return h, fmt.Errorf("raster: bad magic %q", magicBuf)
	}

	buf := make([]byte, headerFixedSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return h, fmt.Errorf("raster: reading header: %w", err)
	}
	h.Cols = int(binary.BigEndian.Uint64(buf[0:8]))
	h.Rows = int(binary.BigEndian.Uint64(buf[8:16]))
	h.Bands = int(binary.BigEndian.Uint64(buf[16:24]))
	h.Type = PixelType(binary.BigEndian.Uint64(buf[24:32]))
	h.UL.X = math.Float64frombits(binary.BigEndian.Uint64(buf[32:40]))
	h.ProjFamily = uint16(binary.BigEndian.Uint32(buf[40:44]))
	customLen := int(binary.BigEndian.Uint32(buf[44:48]))

	tail := make([]byte, 8*3+8*15)
	if _, err := io.ReadFull(r, tail); err != nil {
		return h, fmt.Errorf("raster: reading header tail: %w", err)
	}
	h.UL.Y = math.Float64frombits(binary.BigEndian.Uint64(tail[0:8]))
	h.PixelSize = math.Float64frombits(binary.BigEndian.Uint64(tail[8:16]))
	for i := 0; i < 15; i++ {
		h.ProjParams[i] = math.Float64frombits(binary.BigEndian.Uint64(tail[24+i*8 : 32+i*8]))
	}

	if customLen > 0 {
		cb := make([]byte, customLen)
		if _, err := io.ReadFull(r, cb); err != nil {
			return h, fmt.Errorf("raster: reading projection blob: %w", err)
		}
		h.ProjCustom = string(cb)
	}

	h.FirstStripOffset = int64(len(magic)) + int64(len(buf)) + int64(len(tail)) + int64(customLen)
	return h, nil
}
