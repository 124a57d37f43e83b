package raster

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Pool tracks a worker's in-flight chunk buffer memory against a budget
// computed by ComputeBudget. When Reserve reports that an allocation would
// exceed the budget, the caller chooses a chunk and hands it to Spill,
// which writes its buffer to disk zstd-compressed.
//
// Each worker in this tool is a separate OS process, so
// spilled files use a UUID rather than relying on os.CreateTemp's PRNG
// suffix to avoid collisions between workers that spill in the same
// instant on a shared temp directory.
type Pool struct {
	dir    string
	budget int64
	used   atomic.Int64

	mu     sync.Mutex
	onDisk map[string]spillEntry
}

type spillEntry struct {
	path string
	meta Chunk // Buf left nil; geometry only
}

// NewPool creates a spill pool rooted at dir with the given byte budget.
// A zero budget disables spilling; Reserve always succeeds and Spill is
// never invoked by callers that check Reserve first.
func NewPool(dir string, budget int64) (*Pool, error) {
	return &Pool{dir: dir, budget: budget, onDisk: make(map[string]spillEntry)}, nil
}

// Reserve reports whether n additional bytes fit within budget. Callers
// that get false should Spill an existing chunk before allocating more.
func (p *Pool) Reserve(n int64) bool {
	if p.budget <= 0 {
		return true
	}
	return p.used.Load()+n <= p.budget
}

// Add accounts for n bytes of newly allocated chunk memory.
func (p *Pool) Add(n int64) { p.used.Add(n) }

// Release accounts for n bytes of chunk memory being freed.
func (p *Pool) Release(n int64) { p.used.Add(-n) }

// Spill compresses c's buffer to a scratch file and returns a token that
// Unspill can later exchange for an equivalent chunk. The in-memory buffer
// is released from the pool's accounting; the caller must drop its
// reference to c.Buf.
func (p *Pool) Spill(c *Chunk) (string, error) {
	token := uuid.NewString()
	path := filepath.Join(p.dir, "prb-spill-"+token+".zst")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("raster: creating spill file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return "", fmt.Errorf("raster: creating spill writer: %w", err)
	}
	if _, err := w.Write(c.Buf); err != nil {
		w.Close()
		return "", fmt.Errorf("raster: writing spill data: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("raster: closing spill writer: %w", err)
	}

	meta := *c
	meta.Buf = nil

	p.mu.Lock()
	p.onDisk[token] = spillEntry{path: path, meta: meta}
	p.mu.Unlock()

	p.Release(int64(len(c.Buf)))
	return token, nil
}

// Unspill reads back a previously spilled chunk and removes its scratch
// file.
func (p *Pool) Unspill(token string) (*Chunk, error) {
	p.mu.Lock()
	entry, ok := p.onDisk[token]
	if ok {
		delete(p.onDisk, token)
	}
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("raster: unknown spill token %q", token)
	}
	defer os.Remove(entry.path)

	f, err := os.Open(entry.path)
	if err != nil {
		return nil, fmt.Errorf("raster: opening spill file: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("raster: creating spill reader: %w", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("raster: reading spill data: %w", err)
	}

	chunk := entry.meta
	chunk.Buf = buf.Bytes()
	p.Add(int64(len(chunk.Buf)))
	return &chunk, nil
}

// Close is a no-op retained for symmetry with Pool's constructor; spilled
// files are removed individually by Unspill.
func (p *Pool) Close() {}
