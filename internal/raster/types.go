// Package raster holds the data model shared by the reprojection pipeline:
// coordinates, areas, raster descriptors, and pixel chunks.
package raster

import (
	"fmt"

	"github.com/prasterblaster/prasterblaster/internal/projection"
)

// Unit tags a Coordinate's axes.
type Unit int

const (
	Meter Unit = iota
	Degree
)

// Coordinate is a pair of doubles with a unit tag. World coordinates are
// right-handed with Y increasing northward; pixel coordinates are
// left-handed with Y increasing southward (row index). Pixel-to-world
// conversions (package transform, package minbox, and the chunk
// constructors here) all use world_y = UL.Y - row*PixelSize.
type Coordinate struct {
	X, Y float64
	Unit Unit
}

// emptySentinel is the UL.X value that marks an Area as empty/outside the
// projected area.
const emptySentinel = -1.0

// EmptyArea returns the sentinel empty area.
func EmptyArea() Area {
	return Area{UL: Coordinate{X: emptySentinel, Y: 0}}
}

// Area is an axis-aligned rectangle described by its upper-left and
// lower-right corners. A non-empty Area satisfies UL.X <= LR.X and (in
// pixel space) UL.Y <= LR.Y.
type Area struct {
	UL, LR Coordinate
}

// IsEmpty reports whether a is the empty-area sentinel.
func (a Area) IsEmpty() bool {
	return a.UL.X == emptySentinel
}

// Clamp restricts a to the pixel rectangle [0,cols-1] x [0,rows-1], used by
// the coordinator to bound a unit's source window before reading it.
func (a Area) Clamp(cols, rows int) Area {
	ul := a.UL
	lr := a.LR
	if ul.X < 0 {
		ul.X = 0
	}
	if ul.Y < 0 {
		ul.Y = 0
	}
	if lr.X > float64(cols-1) {
		lr.X = float64(cols - 1)
	}
	if lr.Y > float64(rows-1) {
		lr.Y = float64(rows - 1)
	}
	return Area{UL: ul, LR: lr}
}

// IsSinglePixel reports whether the clamped area degenerates to one pixel.
func (a Area) IsSinglePixel() bool {
	return int(a.UL.X) == int(a.LR.X) && int(a.UL.Y) == int(a.LR.Y)
}

// PixelType is a closed enumeration of the supported per-band sample types.
// Inner loops in the reprojection kernel are monomorphic over this tag
// rather than generic,.
type PixelType int

const (
	U8 PixelType = iota
	U16
	I16
	U32
	I32
	F32
	F64
)

// Size returns the number of bytes a single sample of t occupies.
func (t PixelType) Size() int {
	switch t {
	case U8:
		return 1
	case U16, I16:
		return 2
	case U32, I32, F32:
		return 4
	case F64:
		return 8
	default:
		panic(fmt.Sprintf("raster: unknown pixel type %d", t))
	}
}

func (t PixelType) String() string {
	switch t {
	case U8:
		return "U8"
	case U16:
		return "U16"
	case I16:
		return "I16"
	case U32:
		return "U32"
	case I32:
		return "I32"
	case F32:
		return "F32"
	case F64:
		return "F64"
	default:
		return "UNKNOWN"
	}
}

// ParsePixelType parses the CLI/container spelling of a pixel type.
func ParsePixelType(s string) (PixelType, error) {
	switch s {
	case "U8":
		return U8, nil
	case "U16":
		return U16, nil
	case "I16":
		return I16, nil
	case "U32":
		return U32, nil
	case "I32":
		return I32, nil
	case "F32":
		return F32, nil
	case "F64":
		return F64, nil
	default:
		return 0, fmt.Errorf("raster: unknown pixel type %q", s)
	}
}

// Projection is the projection adapter raster.Descriptor and raster.Chunk
// carry along with pixel data. It is an alias for projection.Handle; the
// raster package never calls Forward/Inverse itself, but needs the full
// interface so callers can recover a usable Handle from a Descriptor.
type Projection = projection.Handle

// Descriptor is the immutable metadata of an open raster: dimensions,
// georeferencing, pixel type, band count, fill value and projection. It is
// created once per open and never mutated afterward.
type Descriptor struct {
	Cols, Rows int
	UL         Coordinate
	PixelSize  float64 // meters per pixel; pixels are square
	Type       PixelType
	Bands      int
	Fill       []byte // one encoded sample, repeated per band
	Proj       Projection
}

// BandBytes returns the number of bytes occupied by one pixel's bands.
func (d Descriptor) BandBytes() int {
	return d.Bands * d.Type.Size()
}

// RowBytes returns the number of bytes in one full-width row.
func (d Descriptor) RowBytes() int {
	return d.Cols * d.BandBytes()
}

// Chunk is a contiguous pixel buffer referring to an axis-aligned rectangle
// of a parent raster. Chunks are created per work unit and destroyed after
// write.
type Chunk struct {
	RasterCol, RasterRow int // raster_location: pixel UL in the parent raster
	Rows, Cols           int
	ULProjected          Coordinate
	PixelSize            float64
	Type                 PixelType
	Bands                int
	Proj                 Projection
	Buf                  []byte // rows*cols*bands*bytes_per_band
}

// BandBytes returns the number of bytes occupied by one pixel's bands.
func (c *Chunk) BandBytes() int {
	return c.Bands * c.Type.Size()
}

// RowBytes returns the number of bytes in one chunk row.
func (c *Chunk) RowBytes() int {
	return c.Cols * c.BandBytes()
}

// PixelOffset returns the byte offset of pixel (col,row) within Buf.
func (c *Chunk) PixelOffset(col, row int) int {
	return row*c.RowBytes() + col*c.BandBytes()
}
