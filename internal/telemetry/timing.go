package telemetry

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"
)

// TimingLog appends one row per phase transition to the -c timing file
//: rank, phase name, wall-clock duration in seconds.
type TimingLog struct {
	f *os.File
	w *csv.Writer
}

// OpenTimingLog creates (or truncates) path and writes the CSV header.
func OpenTimingLog(path string) (*TimingLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: opening timing file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"rank", "phase", "seconds"}); err != nil {
		f.Close()
		return nil, fmt.Errorf("telemetry: writing timing header: %w", err)
	}
	return &TimingLog{f: f, w: w}, nil
}

// Record appends one phase's duration for rank.
func (t *TimingLog) Record(rank int, phase string, d time.Duration) error {
	return t.w.Write([]string{fmt.Sprint(rank), phase, fmt.Sprintf("%.6f", d.Seconds())})
}

// Close flushes buffered rows and closes the underlying file.
func (t *TimingLog) Close() error {
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		t.f.Close()
		return err
	}
	return t.f.Close()
}

// PhaseTimer measures one phase's wall-clock duration and records it on
// Stop.
type PhaseTimer struct {
	log   *TimingLog
	rank  int
	phase string
	start time.Time
}

// StartPhase begins timing phase for rank. log may be nil, in which case
// Stop is a no-op (the -c flag is optional).
func StartPhase(log *TimingLog, rank int, phase string) *PhaseTimer {
	return &PhaseTimer{log: log, rank: rank, phase: phase, start: time.Now()}
}

// Stop records the elapsed time since StartPhase, if a log was provided.
func (p *PhaseTimer) Stop() error {
	if p.log == nil {
		return nil
	}
	return p.log.Record(p.rank, p.phase, time.Since(p.start))
}
