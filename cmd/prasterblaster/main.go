package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/prasterblaster/prasterblaster/internal/coordinator"
	"github.com/prasterblaster/prasterblaster/internal/rberrors"
)

func main() {
	var (
		tSRS             string
		sSRS             string
		resampler        string
		budget           int
		fillValue        string
		partitioner      string
		layout           string
		tileSide         int
		timingPath       string
		footprintGeoJSON string
		verbose          bool
	)

	flag.StringVar(&tSRS, "t_srs", "", "destination CRS specification string")
	flag.StringVar(&sSRS, "s_srs", "", "source CRS specification string (required; the input file's stored projection is not read)")
	flag.StringVar(&resampler, "r", "nearest", "resampler: nearest, mean, bilinear")
	flag.IntVar(&budget, "n", 50000, "partition size budget in pixels")
	flag.StringVar(&fillValue, "dstnodata", "0", "fill value for pixels outside the source footprint")
	flag.StringVar(&partitioner, "q", "pixel", "partitioner: pixel (row strips) or tiled")
	flag.StringVar(&layout, "y", "strip", "output layout: strip or tiled")
	flag.IntVar(&tileSide, "x", 1024, "tile side length, when -q tiled")
	flag.StringVar(&timingPath, "c", "", "optional timings output file (also gets a .prom metrics sidecar)")
	flag.StringVar(&footprintGeoJSON, "footprint-geojson", "", "optional path to dump the computed destination footprint as GeoJSON")
	flag.BoolVar(&verbose, "v", false, "verbose progress output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: prasterblaster [options] <input> <output>\n\n")
		fmt.Fprintf(os.Stderr, "Reproject a raster in parallel across one or more worker processes.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(rberrors.BadConfig.ExitCode())
	}
	inputPath, outputPath := args[0], args[1]

	if tSRS == "" {
		fmt.Fprintln(os.Stderr, "prasterblaster: --t_srs is required")
		os.Exit(rberrors.BadConfig.ExitCode())
	}

	partitionerVal, err := parsePartitioner(partitioner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prasterblaster: %v\n", err)
		os.Exit(rberrors.BadConfig.ExitCode())
	}
	layoutVal, err := parseLayout(layout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prasterblaster: %v\n", err)
		os.Exit(rberrors.BadConfig.ExitCode())
	}

	rank := envInt("PRASTERBLASTER_RANK", 0)
	numWorkers := envInt("PRASTERBLASTER_NUM_WORKERS", 1)

	cfg := coordinator.Config{
		Rank:           rank,
		NumWorkers:     numWorkers,
		InputPath:      inputPath,
		OutputPath:     outputPath,
		BarrierDir:     outputPath + ".barrier",
		SrcSpec:        sSRS,
		DstSpec:        tSRS,
		Resampler:      resampler,
		Budget:         budget,
		FillValue:      fillValue,
		Partitioner:    partitionerVal,
		Layout:         layoutVal,
		TileSide:       tileSide,
		TimingPath:     timingPath,
		FootprintDebug: footprintGeoJSON,
		Verbose:        verbose,
	}

	if err := os.MkdirAll(cfg.BarrierDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "prasterblaster[%d]: creating barrier directory: %v\n", rank, err)
		os.Exit(rberrors.OpenFailure.ExitCode())
	}

	if err := coordinator.Run(context.Background(), cfg); err != nil {
		if rbErr, ok := err.(*rberrors.Error); ok {
			fmt.Fprintf(os.Stderr, "prasterblaster[%d]: %s: %v\n", rbErr.Rank, rbErr.Kind, rbErr.Unwrap())
			os.Exit(rbErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "prasterblaster[%d]: %v\n", rank, err)
		os.Exit(1)
	}
}

func parsePartitioner(s string) (coordinator.Partitioner, error) {
	switch s {
	case "pixel":
		return coordinator.PartitionRows, nil
	case "tiled":
		return coordinator.PartitionTiled, nil
	default:
		return "", fmt.Errorf("unknown partitioner %q (want pixel or tiled)", s)
	}
}

func parseLayout(s string) (coordinator.Layout, error) {
	switch s {
	case "strip":
		return coordinator.LayoutStrip, nil
	case "tiled":
		return coordinator.LayoutTiled, nil
	default:
		return "", fmt.Errorf("unknown layout %q (want strip or tiled)", s)
	}
}

// envInt reads an integer environment variable set by the parallel
// launcher, falling back to def when unset or malformed.
func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
