package projection

import "math"

// hammer implements the spherical Hammer-Aitoff equal-area projection,
// the third extra family the original prasterblaster driver exposes
// (original_source/src/driver.cpp's "hammer" output_projection, a
// distinct GCTP projection from Mollweide despite the visual similarity
// of the two world maps).
type hammer struct{ baseHandle }

func (h *hammer) radius() float64 { return h.params[0] }

func (h *hammer) Forward(lonRad, latRad float64) (x, y float64, err error) {
	r := h.radius()
	d := 1 + math.Cos(latRad)*math.Cos(lonRad/2)
	if d == 0 {
		return 0, 0, ErrOutOfDomain
	}
	denom := math.Sqrt(d)
	x = r * 2 * math.Sqrt2 * math.Cos(latRad) * math.Sin(lonRad/2) / denom
	y = r * math.Sqrt2 * math.Sin(latRad) / denom
	return x, y, nil
}

func (h *hammer) Inverse(x, y float64) (lonRad, latRad float64, err error) {
	r := h.radius()
	xn := x / r
	yn := y / r
	arg := 1 - (xn/4)*(xn/4) - (yn/2)*(yn/2)
	if arg < 0 {
		return 0, 0, ErrOutOfDomain
	}
	z := math.Sqrt(arg)
	lonRad = 2 * math.Atan2(z*xn, 2*(2*z*z-1))
	latRad = math.Asin(z * yn)
	return lonRad, latRad, nil
}

func (h *hammer) Equals(other Handle) bool { return h.equals(other) }

func (h *hammer) EPSG() int { return 0 }
