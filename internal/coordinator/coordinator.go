// Package coordinator orchestrates the eight phases of a worker's run
// across workers: describe input, size and create output (rank 0 only),
// barrier, open output, partition, reproject each assigned unit, barrier,
// close.
package coordinator

import (
	"context"
	"fmt"
	"log"
	"math"
	"path/filepath"

	"github.com/prasterblaster/prasterblaster/internal/barrier"
	"github.com/prasterblaster/prasterblaster/internal/kernel"
	"github.com/prasterblaster/prasterblaster/internal/minbox"
	"github.com/prasterblaster/prasterblaster/internal/partition"
	"github.com/prasterblaster/prasterblaster/internal/projection"
	"github.com/prasterblaster/prasterblaster/internal/raster"
	"github.com/prasterblaster/prasterblaster/internal/rberrors"
	"github.com/prasterblaster/prasterblaster/internal/sptw"
	"github.com/prasterblaster/prasterblaster/internal/telemetry"
	"github.com/prasterblaster/prasterblaster/internal/transform"
)

// Partitioner selects how the output raster is split into work units.
type Partitioner string

const (
	PartitionRows  Partitioner = "pixel"
	PartitionTiled Partitioner = "tiled"
)

// Layout records the -y output layout choice. The output container is
// strip-organized under either value, and processUnit picks WriteRows or
// per-row WriteSubrow calls from each unit's width (full-width row strips
// versus partial-width tiles from PartitionTiled), so Layout does not
// change how or where bytes are written.
type Layout string

const (
	LayoutStrip Layout = "strip"
	LayoutTiled Layout = "tiled"
)

// Config is the fully resolved configuration for one worker's run,
// assembled by the CLI from its flags and the rank/num_workers
// environment.
type Config struct {
	Rank           int
	NumWorkers     int
	InputPath      string
	OutputPath     string
	BarrierDir     string
	SrcSpec        string
	DstSpec        string
	Resampler      string
	Budget         int
	FillValue      string
	Partitioner    Partitioner
	Layout         Layout
	TileSide       int
	TimingPath     string
	FootprintDebug string
	Verbose        bool
}

// Run executes all eight coordinator phases for this worker. It returns
// nil on success, or an *rberrors.Error whose ExitCode gives the process
// exit code.
func Run(ctx context.Context, cfg Config) error {
	metrics := telemetry.NewMetrics(cfg.Rank)
	var timingLog *telemetry.TimingLog
	if cfg.TimingPath != "" {
		var err error
		timingLog, err = telemetry.OpenTimingLog(cfg.TimingPath)
		if err != nil {
			return rberrors.New(rberrors.IOError, cfg.Rank, err)
		}
		defer timingLog.Close()
	}

	timer := telemetry.StartPhase(timingLog, cfg.Rank, "describe_input")
	srcProj, err := projection.Parse(cfg.SrcSpec)
	if err != nil {
		return rberrors.New(rberrors.BadConfig, cfg.Rank, err)
	}
	in, err := raster.OpenInput(cfg.InputPath, srcProj)
	if err != nil {
		return rberrors.New(rberrors.OpenFailure, cfg.Rank, err)
	}
	defer in.Close()
	srcDesc := in.Descriptor()
	timer.Stop()

	dstProj, err := projection.Parse(cfg.DstSpec)
	if err != nil {
		return rberrors.New(rberrors.BadConfig, cfg.Rank, err)
	}

	createBarrier := barrier.New(cfg.BarrierDir, "create", cfg.NumWorkers)
	closeBarrier := barrier.New(cfg.BarrierDir, "close", cfg.NumWorkers)

	if cfg.Rank == 0 {
		timer = telemetry.StartPhase(timingLog, cfg.Rank, "compute_output")
		if err := createOutput(cfg, srcDesc, srcProj, dstProj); err != nil {
			return err
		}
		timer.Stop()
		// Close markers left in BarrierDir by an earlier run are removed
		// before this rank's create marker exists: no rank of this run can
		// reach the close barrier until it has passed the create barrier.
		closeBarrier.Cleanup()
	}

	if err := createBarrier.Wait(ctx, cfg.Rank); err != nil {
		return rberrors.New(rberrors.InternalInvariant, cfg.Rank, err)
	}

	out, err := sptw.Open(cfg.OutputPath)
	if err != nil {
		return rberrors.New(rberrors.OpenFailure, cfg.Rank, err)
	}

	fillValue, err := kernel.ParseFillValue(srcDesc.Type, cfg.FillValue)
	if err != nil {
		return rberrors.New(rberrors.BadConfig, cfg.Rank, err)
	}
	resampler, err := kernel.ResamplerFor(cfg.Resampler, srcDesc.Type)
	if err != nil {
		return rberrors.New(rberrors.BadConfig, cfg.Rank, err)
	}

	outHdr := out.Header()
	units := partitionAreas(ctx, cfg, outHdr.Rows, outHdr.Cols)

	dstDesc := raster.Descriptor{
		Cols: outHdr.Cols, Rows: outHdr.Rows, UL: outHdr.UL, PixelSize: outHdr.PixelSize,
		Type: srcDesc.Type, Bands: srcDesc.Bands, Proj: dstProj,
	}
	dstGrid := transform.Grid{Proj: dstProj, UL: outHdr.UL, PixelSize: outHdr.PixelSize, Rows: outHdr.Rows, Cols: outHdr.Cols}
	srcGrid := transform.Grid{Proj: srcProj, UL: srcDesc.UL, PixelSize: srcDesc.PixelSize, Rows: srcDesc.Rows, Cols: srcDesc.Cols}
	tr := transform.New(dstGrid, srcGrid)

	pool, err := raster.NewPool(filepath.Dir(cfg.OutputPath), raster.ComputeBudget(raster.DefaultMemoryPressurePercent, cfg.Verbose))
	if err != nil {
		return rberrors.New(rberrors.InternalInvariant, cfg.Rank, err)
	}
	defer pool.Close()

	timer = telemetry.StartPhase(timingLog, cfg.Rank, "reproject")
	pb := telemetry.NewProgressBar(fmt.Sprintf("rank %d", cfg.Rank), int64(len(units)))
	for _, area := range units {
		if err := processUnit(tr, in, srcDesc, dstDesc, out, area, fillValue, resampler, metrics, pool); err != nil {
			pb.Finish()
			return rberrors.New(rberrors.IOError, cfg.Rank, err)
		}
		metrics.PartitionsWritten.Inc()
		pb.Increment()
	}
	pb.Finish()
	timer.Stop()

	if err := closeBarrier.Wait(ctx, cfg.Rank); err != nil {
		return rberrors.New(rberrors.InternalInvariant, cfg.Rank, err)
	}
	if err := out.Close(); err != nil {
		return rberrors.New(rberrors.IOError, cfg.Rank, err)
	}
	if cfg.Rank == 0 {
		// Every rank that reached the close barrier has already returned
		// from the create barrier, so its markers can be removed now. The
		// close barrier's own markers stay until the next run's rank 0
		// removes them, since no later rendezvous tells rank 0 that every
		// rank has left this one.
		createBarrier.Cleanup()
	}

	if cfg.TimingPath != "" && metrics.HasSamples() {
		metricsPath := cfg.TimingPath + ".prom"
		if err := metrics.WriteTextfile(metricsPath); err != nil {
			log.Printf("rank %d: writing metrics: %v", cfg.Rank, err)
		}
	}
	return nil
}

// createOutput computes the destination descriptor via the minbox engine
// and creates the output file. Only rank 0 calls this.
func createOutput(cfg Config, srcDesc raster.Descriptor, srcProj, dstProj projection.Handle) error {
	dstPixelSize := srcDesc.PixelSize // a destination pixel size override belongs to a future CLI flag; default to source's

	box, err := minbox.Compute(minbox.Source{
		UL: srcDesc.UL, PixelSize: srcDesc.PixelSize, Rows: srcDesc.Rows, Cols: srcDesc.Cols, Proj: srcProj,
	}, dstProj, dstPixelSize)
	if err != nil {
		return rberrors.New(rberrors.EmptyFootprint, cfg.Rank, err)
	}

	family, params, custom := encodeProjection(dstProj)
	hdr := raster.Header{
		Cols: box.Cols, Rows: box.Rows, Bands: srcDesc.Bands, Type: srcDesc.Type,
		UL: box.UL, PixelSize: dstPixelSize,
		ProjFamily: family, ProjParams: params, ProjCustom: custom,
	}
	h, err := sptw.CreateRaster(cfg.OutputPath, hdr)
	if err != nil {
		return rberrors.New(rberrors.OpenFailure, cfg.Rank, err)
	}
	if err := h.Close(); err != nil {
		return rberrors.New(rberrors.IOError, cfg.Rank, err)
	}

	if cfg.FootprintDebug != "" {
		if err := minbox.DumpFootprint(cfg.FootprintDebug, box); err != nil {
			log.Printf("rank %d: writing footprint debug geojson: %v", cfg.Rank, err)
		}
	}
	return nil
}

// encodeProjection recovers the container header fields for a Handle
// constructed via projection.ForFamily; custom (non-built-in) handles are
// not produced by projection.Parse today, so this always returns a
// built-in family.
func encodeProjection(h projection.Handle) (family uint16, params [15]float64, custom string) {
	return uint16(h.Family()), h.Params(), ""
}

func partitionAreas(ctx context.Context, cfg Config, rows, cols int) []raster.Area {
	if cfg.Partitioner == PartitionTiled {
		areas, err := partition.TiledPartition(ctx, cfg.Rank, cfg.NumWorkers, rows, cols, cfg.Budget, cfg.TileSide)
		if err != nil {
			log.Printf("rank %d: tiled partition failed, falling back to row partition: %v", cfg.Rank, err)
		} else {
			return areas
		}
	}
	return partition.RowPartition(cfg.Rank, cfg.NumWorkers, rows, cols, cfg.Budget)
}

// processUnit computes the source window for one destination area, reads
// it, allocates the destination chunk, reprojects, and writes it out. pool
// bounds the worker's in-flight chunk memory: when the destination buffer
// about to be allocated would push the worker over budget, the source
// chunk is spilled to disk for the duration of that allocation and read
// back before Reproject needs it.
func processUnit(tr *transform.RasterCoordTransformer, in *raster.InputRaster, srcDesc, dstDesc raster.Descriptor, out *sptw.Handle, area raster.Area, fillValue []byte, resampler kernel.Resampler, metrics *telemetry.Metrics, pool *raster.Pool) error {
	srcWindow := destAreaToSourceWindow(tr, area, srcDesc)

	var srcChunk *raster.Chunk
	if srcWindow.IsEmpty() {
		srcChunk = &raster.Chunk{Rows: 0, Cols: 0, Type: srcDesc.Type, Bands: srcDesc.Bands}
	} else {
		chunk, err := in.Read(srcWindow)
		if err != nil {
			return err
		}
		srcChunk = chunk
		pool.Add(int64(len(srcChunk.Buf)))
	}

	dstRows := int(area.LR.Y-area.UL.Y) + 1
	dstCols := int(area.LR.X-area.UL.X) + 1
	dstSize := int64(dstRows) * int64(dstCols) * int64(dstDesc.BandBytes())

	var spillToken string
	if len(srcChunk.Buf) > 0 && !pool.Reserve(dstSize) {
		token, err := pool.Spill(srcChunk)
		if err != nil {
			return err
		}
		spillToken = token
	}

	pool.Add(dstSize)
	dstChunk := raster.Allocate(dstDesc, area)

	if spillToken != "" {
		restored, err := pool.Unspill(spillToken)
		if err != nil {
			return err
		}
		srcChunk = restored
	}

	if srcChunk.Rows == 0 || srcChunk.Cols == 0 {
		fillAll(dstChunk, fillValue)
		metrics.PixelsFilled.Add(float64(dstChunk.Rows * dstChunk.Cols))
	} else {
		kernel.Reproject(tr, srcChunk, dstChunk, fillValue, resampler)
	}

	pool.Release(dstSize)
	if len(srcChunk.Buf) > 0 {
		pool.Release(int64(len(srcChunk.Buf)))
	}

	// A unit spanning the full output width is a run of whole strips and
	// can be written in one call; a tiled unit (partial width) only owns
	// part of each row it spans, so each row goes through WriteSubrow
	// against the same strip-organized container.
	if dstChunk.Cols == dstDesc.Cols {
		return out.WriteRows(dstChunk.Buf, dstChunk.RasterRow, dstChunk.RasterRow+dstChunk.Rows-1)
	}
	rowBytes := dstChunk.RowBytes()
	for i := 0; i < dstChunk.Rows; i++ {
		row := dstChunk.RasterRow + i
		rowBuf := dstChunk.Buf[i*rowBytes : (i+1)*rowBytes]
		if err := out.WriteSubrow(rowBuf, row, dstChunk.RasterCol, dstChunk.RasterCol+dstChunk.Cols-1); err != nil {
			return err
		}
	}
	return nil
}

// destAreaToSourceWindow computes the source-pixel window that could
// contribute to any pixel in a destination area. A non-affine projection
// can bow the edges of the quadrilateral spanned by area's four corners,
// so every pixel along area's perimeter is transformed, not just the
// corners, mirroring the dense boundary sampling minbox.Compute does over
// a whole raster's edge.
func destAreaToSourceWindow(tr *transform.RasterCoordTransformer, area raster.Area, srcDesc raster.Descriptor) raster.Area {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	found := false

	for _, p := range areaBoundarySamples(area) {
		a := tr.Transform(p[0], p[1])
		if a.IsEmpty() {
			continue
		}
		found = true
		minX, maxX = math.Min(minX, a.UL.X), math.Max(maxX, a.LR.X)
		minY, maxY = math.Min(minY, a.UL.Y), math.Max(maxY, a.LR.Y)
	}
	if !found {
		return raster.EmptyArea()
	}

	clamped := raster.Area{UL: raster.Coordinate{X: minX, Y: minY}, LR: raster.Coordinate{X: maxX, Y: maxY}}
	return clamped.Clamp(srcDesc.Cols, srcDesc.Rows)
}

// areaBoundarySamples enumerates every destination pixel on area's four
// edges, at single-pixel resolution.
func areaBoundarySamples(area raster.Area) [][2]int {
	x0, y0 := int(area.UL.X), int(area.UL.Y)
	x1, y1 := int(area.LR.X), int(area.LR.Y)

	pts := make([][2]int, 0, 2*(x1-x0+1)+2*(y1-y0+1))
	for x := x0; x <= x1; x++ {
		pts = append(pts, [2]int{x, y0}, [2]int{x, y1})
	}
	for y := y0; y <= y1; y++ {
		pts = append(pts, [2]int{x0, y}, [2]int{x1, y})
	}
	return pts
}

func fillAll(c *raster.Chunk, fillValue []byte) {
	bandBytes := len(fillValue)
	for i := 0; i < len(c.Buf); i += bandBytes {
		copy(c.Buf[i:i+bandBytes], fillValue)
	}
}
