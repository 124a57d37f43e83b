package projection

import "math"

// sinusoidal implements the spherical Sinusoidal (Sanson-Flamsteed)
// equal-area projection, one of the families the original prasterblaster
// driver exposes (original_source/src/driver.cpp's "sinu" output
// projection), using Snyder's standard closed-form equations and the
// GCTP default spherical radius when Params()[0] is unset.
type sinusoidal struct{ baseHandle }

func (s *sinusoidal) radius() float64 { return s.params[0] }

func (s *sinusoidal) Forward(lonRad, latRad float64) (x, y float64, err error) {
	r := s.radius()
	x = r * lonRad * math.Cos(latRad)
	y = r * latRad
	return x, y, nil
}

func (s *sinusoidal) Inverse(x, y float64) (lonRad, latRad float64, err error) {
	r := s.radius()
	latRad = y / r
	if math.Abs(latRad) > math.Pi/2 {
		return 0, 0, ErrOutOfDomain
	}
	cosLat := math.Cos(latRad)
	if cosLat == 0 {
		lonRad = 0
	} else {
		lonRad = x / (r * cosLat)
	}
	return lonRad, latRad, nil
}

func (s *sinusoidal) Equals(other Handle) bool { return s.equals(other) }

func (s *sinusoidal) EPSG() int { return 0 }
