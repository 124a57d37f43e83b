package projection

import (
	"fmt"
	"strconv"
	"strings"
)

// namedFamilies maps the short names accepted on the --t_srs/--s_srs flags
// to built-in families.
var namedFamilies = map[string]Family{
	"wgs84":       FamilyWGS84Identity,
	"longlat":     FamilyWGS84Identity,
	"epsg:4326":   FamilyWGS84Identity,
	"webmercator": FamilyWebMercator,
	"epsg:3857":   FamilyWebMercator,
	"swisslv95":   FamilySwissLV95,
	"epsg:2056":   FamilySwissLV95,
	"sinu":        FamilySinusoidal,
	"sinusoidal":  FamilySinusoidal,
	"sinosoidal":  FamilySinusoidal,
	"moll":        FamilyMollweide,
	"mollweide":   FamilyMollweide,
	"hammer":      FamilyHammer,
}

// Parse builds a Handle from a CLI projection spec. Accepted forms are a
// short family name ("wgs84", "webmercator", "swisslv95", "sinu",
// "mollweide", "hammer"), an EPSG code ("epsg:3857"), or a minimal
// PROJ-like string ("+proj=sinu +R=6371000") for the closed-form
// families; anything else is rejected rather than silently guessed at.
func Parse(spec string) (Handle, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("projection: empty spec")
	}

	if strings.HasPrefix(spec, "+") {
		return parseProjString(spec)
	}

	lower := strings.ToLower(spec)
	if family, ok := namedFamilies[lower]; ok {
		return ForFamily(family, [15]float64{})
	}
	return nil, fmt.Errorf("projection: unrecognized spec %q", spec)
}

func parseProjString(spec string) (Handle, error) {
	var family Family
	var radius float64
	found := false

	for _, tok := range strings.Fields(spec) {
		tok = strings.TrimPrefix(tok, "+")
		kv := strings.SplitN(tok, "=", 2)
		switch strings.ToLower(kv[0]) {
		case "proj":
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[1]) {
			case "longlat", "latlong":
				family, found = FamilyWGS84Identity, true
			case "merc", "webmerc":
				family, found = FamilyWebMercator, true
			case "somerc":
				family, found = FamilySwissLV95, true
			case "sinu":
				family, found = FamilySinusoidal, true
			case "moll":
				family, found = FamilyMollweide, true
			case "hammer":
				family, found = FamilyHammer, true
			}
		case "r":
			if len(kv) != 2 {
				continue
			}
			v, err := strconv.ParseFloat(kv[1], 64)
			if err != nil {
				return nil, fmt.Errorf("projection: bad +R value %q: %w", kv[1], err)
			}
			radius = v
		}
	}

	if !found {
		return nil, fmt.Errorf("projection: unrecognized +proj spec %q", spec)
	}
	return ForFamily(family, [15]float64{radius})
}
