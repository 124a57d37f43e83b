package minbox

import (
	"encoding/json"
	"fmt"
	"os"

	geojson "github.com/paulmach/go.geojson"
)

// DumpFootprint writes a GeoJSON polygon describing box to path, for
// visual debugging of the minbox computation. This is an optional,
// debug-only side effect; it never affects the reprojection result.
func DumpFootprint(path string, box Box) error {
	ring := [][][]float64{{
		{box.UL.X, box.UL.Y},
		{box.LR.X, box.UL.Y},
		{box.LR.X, box.LR.Y},
		{box.UL.X, box.LR.Y},
		{box.UL.X, box.UL.Y},
	}}

	feature := geojson.NewPolygonFeature(ring)
	feature.SetProperty("rows", box.Rows)
	feature.SetProperty("cols", box.Cols)

	fc := geojson.NewFeatureCollection()
	fc.AddFeature(feature)

	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("minbox: marshaling footprint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("minbox: writing footprint: %w", err)
	}
	return nil
}
