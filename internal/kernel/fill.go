package kernel

import (
	"fmt"
	"strconv"

	"github.com/prasterblaster/prasterblaster/internal/raster"
)

// ParseFillValue parses the CLI --dstnodata string into one encoded
// sample of the given pixel type. Typed dispatch happens
// once here rather than per pixel.
func ParseFillValue(t raster.PixelType, s string) ([]byte, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("kernel: parsing fill value %q: %w", s, err)
	}
	out := make([]byte, t.Size())
	writeSample(t, out, 0, v)
	return out, nil
}

// ResamplerFor resolves the -r CLI flag to a Resampler for the given
// source pixel type. bilinear is restricted to float types: interpolating
// an integer raster through float arithmetic would silently promote its
// output precision.
func ResamplerFor(name string, t raster.PixelType) (Resampler, error) {
	switch name {
	case "", "nearest":
		return NearestResampler{}, nil
	case "mean":
		return MeanResampler{}, nil
	case "bilinear":
		if t != raster.F32 && t != raster.F64 {
			return nil, fmt.Errorf("kernel: bilinear resampler requires a float pixel type, got %s", t)
		}
		return BilinearResampler{}, nil
	default:
		return nil, fmt.Errorf("kernel: unknown resampler %q", name)
	}
}
