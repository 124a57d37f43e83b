// Package partition splits an output raster into disjoint work units:
// row strips by default, or tiles, each assigned to exactly one worker
// rank.
package partition

import (
	"context"
	"encoding/binary"
	"sort"

	"github.com/lanrat/extsort"
	"golang.org/x/sync/errgroup"

	"github.com/prasterblaster/prasterblaster/internal/raster"
)

// DefaultTileSide is the default tile grid snap used by TiledPartition.
const DefaultTileSide = 1024

// extsortTileThreshold is the tile count above which Hilbert-order
// assignment sorts via a disk-backed merge sort (extsort) instead of an
// in-memory sort.Slice, keeping a single worker's partition-list memory
// bounded even for very large tile grids.
const extsortTileThreshold = 1_000_000

// Unit is an Area owned by exactly one worker rank.
type Unit struct {
	Area raster.Area
	Rank int
}

// RowPartition returns the ordered list of row-strip areas assigned to
// rank: strips of max(1, budget/cols) rows, strip i going to rank
// i mod numWorkers.
func RowPartition(rank, numWorkers, rows, cols, budget int) []raster.Area {
	h := budget / cols
	if h < 1 {
		h = 1
	}
	strips := (rows + h - 1) / h

	var out []raster.Area
	for i := 0; i < strips; i++ {
		if i%numWorkers != rank {
			continue
		}
		top := i * h
		bottom := (i+1)*h - 1
		if bottom >= rows {
			bottom = rows - 1
		}
		out = append(out, raster.Area{
			UL: raster.Coordinate{X: 0, Y: float64(top)},
			LR: raster.Coordinate{X: float64(cols - 1), Y: float64(bottom)},
		})
	}
	return out
}

// TiledPartition returns the ordered list of tile areas assigned to rank.
// Tile sides are floor(sqrt(budget)), capped at tileSide (DefaultTileSide
// if <= 0); tiles are assigned to workers in Hilbert-curve
// order over the tile grid, preserving 2-D locality between consecutively
// processed tiles on a given worker (ported from the original
// xyToHilbert ordering of PMTiles tile coordinates, generalized from
// z/x/y tile indices to raster tile indices).
func TiledPartition(ctx context.Context, rank, numWorkers, rows, cols, budget, tileSide int) ([]raster.Area, error) {
	if tileSide <= 0 {
		tileSide = DefaultTileSide
	}
	side := isqrt(budget)
	if side > tileSide {
		side = tileSide
	}
	if side < 1 {
		side = 1
	}

	tilesX := (cols + side - 1) / side
	tilesY := (rows + side - 1) / side

	tiles := make([]tileCoord, 0, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			tiles = append(tiles, tileCoord{tx, ty})
		}
	}

	ordered, err := hilbertOrder(ctx, tiles, tilesX, tilesY)
	if err != nil {
		return nil, err
	}

	var out []raster.Area
	for i, tc := range ordered {
		if i%numWorkers != rank {
			continue
		}
		left := tc.x * side
		top := tc.y * side
		right := left + side - 1
		if right >= cols {
			right = cols - 1
		}
		bottom := top + side - 1
		if bottom >= rows {
			bottom = rows - 1
		}
		out = append(out, raster.Area{
			UL: raster.Coordinate{X: float64(left), Y: float64(top)},
			LR: raster.Coordinate{X: float64(right), Y: float64(bottom)},
		})
	}
	return out, nil
}

type tileCoord struct{ x, y int }

func (t tileCoord) ToBytes() []byte {
	buf := make([]byte, binary.MaxVarintLen64*2)
	n := binary.PutVarint(buf, int64(t.x))
	n += binary.PutVarint(buf[n:], int64(t.y))
	return buf[:n]
}

func tileCoordFromBytes(b []byte) extsort.SortType {
	x, n := binary.Varint(b)
	y, _ := binary.Varint(b[n:])
	return tileCoord{int(x), int(y)}
}

// hilbertOrder sorts tiles by their Hilbert-curve index within the
// bounding grid of side n = next power of two >= max(tilesX, tilesY).
// Below extsortTileThreshold it sorts in memory; above, it streams
// through extsort's disk-backed merge sort so a single huge tile grid
// does not force the whole index into RAM at once.
func hilbertOrder(ctx context.Context, tiles []tileCoord, tilesX, tilesY int) ([]tileCoord, error) {
	n := nextPowerOfTwo(maxInt(tilesX, tilesY))

	if len(tiles) < extsortTileThreshold {
		indices := make([]uint64, len(tiles))
		for i, t := range tiles {
			indices[i] = xyToHilbert(uint64(t.x), uint64(t.y), n)
		}
		sort.Sort(&hilbertSorter{tiles: tiles, indices: indices})
		return tiles, nil
	}

	hilbertLess := func(a, b extsort.SortType) bool {
		ta, tb := a.(tileCoord), b.(tileCoord)
		return xyToHilbert(uint64(ta.x), uint64(ta.y), n) < xyToHilbert(uint64(tb.x), uint64(tb.y), n)
	}

	in := make(chan extsort.SortType, 4096)
	config := extsort.DefaultConfig()
	sorter, outChan, errChan := extsort.New(in, tileCoordFromBytes, hilbertLess, config)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		for _, t := range tiles {
			in <- t
		}
		close(in)
		return nil
	})

	var ordered []tileCoord
	group.Go(func() error {
		sorter.Sort(groupCtx)
		for t := range outChan {
			ordered = append(ordered, t.(tileCoord))
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := <-errChan; err != nil {
		return nil, err
	}
	return ordered, nil
}

type hilbertSorter struct {
	tiles   []tileCoord
	indices []uint64
}

func (s *hilbertSorter) Len() int           { return len(s.tiles) }
func (s *hilbertSorter) Less(i, j int) bool { return s.indices[i] < s.indices[j] }
func (s *hilbertSorter) Swap(i, j int) {
	s.tiles[i], s.tiles[j] = s.tiles[j], s.tiles[i]
	s.indices[i], s.indices[j] = s.indices[j], s.indices[i]
}

// xyToHilbert converts (x, y) to a Hilbert curve index for an n x n grid.
// n must be a power of two. Ported unchanged from the original
// coord.xyToHilbert.
func xyToHilbert(x, y, n uint64) uint64 {
	var d uint64
	s := n / 2
	for s > 0 {
		var rx, ry uint64
		if (x & s) > 0 {
			rx = 1
		}
		if (y & s) > 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)
		if ry == 0 {
			if rx == 1 {
				x = s*2 - 1 - x
				y = s*2 - 1 - y
			}
			x, y = y, x
		}
		s /= 2
	}
	return d
}

func nextPowerOfTwo(v int) uint64 {
	if v < 1 {
		return 1
	}
	n := uint64(1)
	for n < uint64(v) {
		n <<= 1
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func isqrt(v int) int {
	if v <= 0 {
		return 0
	}
	x := v
	for x*x > v {
		x = (x + v/x) / 2
	}
	for (x+1)*(x+1) <= v {
		x++
	}
	return x
}
