// Package projection wraps the external CRS math the reprojection pipeline
// treats as an opaque collaborator. A Handle exposes
// forward/inverse point transforms and family+parameter equality; built-in
// families are pure-Go closed-form implementations, so unlike a typical
// binding onto a non-reentrant C projection library, no internal locking
// is required — but the interface is shaped as if one might be, so a
// future cgo-backed family can be dropped in without changing callers.
package projection

import (
	"fmt"
	"math"
)

// ErrOutOfDomain is returned by Forward/Inverse when the input coordinate
// has no valid image under the projection.
var ErrOutOfDomain = fmt.Errorf("projection: point out of domain")

// Family identifies a projection implementation, matching the family
// codes stored in a raster container header.
type Family uint16

const (
	FamilyWGS84Identity Family = iota
	FamilyWebMercator
	FamilySwissLV95
	FamilySinusoidal
	FamilyMollweide
	FamilyHammer
	FamilyCustom Family = 0xFFFF
)

// Handle is the projection adapter interface. Params holds up to 15 scalar
// parameters (ellipsoid, datum, projection family constants); built-in
// families mostly ignore Params beyond the radius, since their formulas
// are fixed, but the slot is preserved so a custom PROJ-string-backed
// handle can use it.
type Handle interface {
	// Forward converts geographic radians to projected meters.
	Forward(lonRad, latRad float64) (x, y float64, err error)
	// Inverse converts projected meters to geographic radians.
	Inverse(x, y float64) (lonRad, latRad float64, err error)
	// Equals reports whether other has the same family and parameter vector.
	Equals(other Handle) bool
	// Family identifies the projection implementation.
	Family() Family
	// Params returns the parameter vector associated with this handle.
	Params() [15]float64
	// EPSG returns the EPSG code for the projection, or 0 if not applicable.
	EPSG() int
}

const radToDeg = 180.0 / math.Pi
const degToRad = math.Pi / 180.0

// baseHandle implements the parts of Handle shared by every built-in
// family: Family and Params, plus the equals helper each family's Equals
// delegates to.
type baseHandle struct {
	family Family
	params [15]float64
}

func (b baseHandle) Family() Family      { return b.family }
func (b baseHandle) Params() [15]float64 { return b.params }

func (b baseHandle) equals(other Handle) bool {
	if other == nil || other.Family() != b.family {
		return false
	}
	return b.params == other.Params()
}

// ForFamily constructs the built-in Handle for family with the given
// parameter vector (the radius in Params()[0] for the spherical families).
func ForFamily(family Family, params [15]float64) (Handle, error) {
	switch family {
	case FamilyWGS84Identity:
		return &wgs84Identity{baseHandle{family, params}}, nil
	case FamilyWebMercator:
		return &webMercator{baseHandle{family, params}}, nil
	case FamilySwissLV95:
		return &swissLV95{baseHandle{family, params}}, nil
	case FamilySinusoidal:
		return &sinusoidal{baseHandle{family, sphericalParams(params)}}, nil
	case FamilyMollweide:
		return &mollweide{baseHandle{family, sphericalParams(params)}}, nil
	case FamilyHammer:
		return &hammer{baseHandle{family, sphericalParams(params)}}, nil
	default:
		return nil, fmt.Errorf("projection: unknown built-in family %d", family)
	}
}

// sphericalRadiusDefault is GCTP's default spherical Earth radius, used by
// the original prasterblaster driver for Mollweide/Sinusoidal (see
// original_source/src/driver.cpp's params[0] = 6370997.0).
const sphericalRadiusDefault = 6370997.0

func sphericalParams(p [15]float64) [15]float64 {
	if p[0] == 0 {
		p[0] = sphericalRadiusDefault
	}
	return p
}
