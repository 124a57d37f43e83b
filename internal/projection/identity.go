package projection

// wgs84Identity is a no-op projection for data already in geographic
// coordinates (ported from the original WGS84Identity, generalized from
// degrees to the radian-based Handle contract).
type wgs84Identity struct{ baseHandle }

func (w *wgs84Identity) Forward(lonRad, latRad float64) (x, y float64, err error) {
	return lonRad, latRad, nil
}

func (w *wgs84Identity) Inverse(x, y float64) (lonRad, latRad float64, err error) {
	return x, y, nil
}

func (w *wgs84Identity) Equals(other Handle) bool { return w.equals(other) }

func (w *wgs84Identity) EPSG() int { return 4326 }
