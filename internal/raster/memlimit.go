package raster

import (
	"log"
	"runtime"
)

// DefaultMemoryPressurePercent is the fraction of total RAM at which a
// worker's in-flight chunk pool starts spilling to disk. 0.90 = 90%.
const DefaultMemoryPressurePercent = 0.90

// ComputeBudget returns the maximum bytes a worker's chunk buffers should
// use before spilling to disk, taking a fraction (e.g. 0.90 for 90%) of
// total system RAM and subtracting current Go heap overhead plus a fixed
// headroom for the OS page cache and projection library state.
//
// Returns 0 if RAM detection fails or the computed limit is unreasonably
// small, which callers treat as "disk spilling disabled".
func ComputeBudget(fraction float64, verbose bool) int64 {
	totalRAM, err := totalSystemRAM()
	if err != nil {
		if verbose {
			log.Printf("raster: cannot detect system RAM: %v; disk spilling disabled", err)
		}
		return 0
	}

	if verbose {
		log.Printf("raster: system RAM: %.1f GB", float64(totalRAM)/(1024*1024*1024))
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	overhead := m.Sys + 1*1024*1024*1024 // current usage + 1 GB headroom

	limit := int64(float64(totalRAM)*fraction) - int64(overhead)
	if limit < 128*1024*1024 { // minimum 128 MB
		if verbose {
			log.Printf("raster: computed memory limit too small (%.0f MB); disk spilling disabled",
				float64(limit)/(1024*1024))
		}
		return 0
	}

	if verbose {
		log.Printf("raster: chunk pool memory limit: %.1f GB (%.0f%% of RAM minus %.1f GB overhead)",
			float64(limit)/(1024*1024*1024), fraction*100, float64(overhead)/(1024*1024*1024))
	}

	return limit
}
