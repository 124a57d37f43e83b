package projection

// swissLV95 implements EPSG:2056 (CH1903+ / LV95) using swisstopo's
// published polynomial approximation, ported from the original
// SwissLV95 and converted from degree to radian inputs/outputs.
// Accuracy: ~1 meter, sufficient for pixel reprojection.
type swissLV95 struct{ baseHandle }

func (s *swissLV95) Inverse(easting, northing float64) (lonRad, latRad float64, err error) {
	y := (easting - 2_600_000) / 1_000_000
	x := (northing - 1_200_000) / 1_000_000

	lonSec := 2.6779094 +
		4.728982*y +
		0.791484*y*x +
		0.1306*y*x*x -
		0.0436*y*y*y

	latSec := 16.9023892 +
		3.238272*x -
		0.270978*y*y -
		0.002528*x*x -
		0.0447*y*y*x -
		0.0140*x*x*x

	lonDeg := lonSec * 100.0 / 36.0
	latDeg := latSec * 100.0 / 36.0
	return lonDeg * degToRad, latDeg * degToRad, nil
}

func (s *swissLV95) Forward(lonRad, latRad float64) (easting, northing float64, err error) {
	lonDeg := lonRad * radToDeg
	latDeg := latRad * radToDeg

	phiSec := latDeg * 3600
	lambdaSec := lonDeg * 3600

	phiAux := (phiSec - 169028.66) / 10000
	lambdaAux := (lambdaSec - 26782.5) / 10000

	easting = 2_600_072.37 +
		211_455.93*lambdaAux -
		10_938.51*lambdaAux*phiAux -
		0.36*lambdaAux*phiAux*phiAux -
		44.54*lambdaAux*lambdaAux*lambdaAux

	northing = 1_200_147.07 +
		308_807.95*phiAux +
		3_745.25*lambdaAux*lambdaAux +
		76.63*phiAux*phiAux -
		194.56*lambdaAux*lambdaAux*phiAux +
		119.79*phiAux*phiAux*phiAux

	return easting, northing, nil
}

func (s *swissLV95) Equals(other Handle) bool { return s.equals(other) }

func (s *swissLV95) EPSG() int { return 2056 }
