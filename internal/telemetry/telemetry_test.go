package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTimingLogRecordsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timing.csv")
	log, err := OpenTimingLog(path)
	if err != nil {
		t.Fatalf("OpenTimingLog: %v", err)
	}

	timer := StartPhase(log, 0, "describe_input")
	time.Sleep(time.Millisecond)
	if err := timer.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "rank,phase,seconds") {
		t.Errorf("missing header: %q", text)
	}
	if !strings.Contains(text, "describe_input") {
		t.Errorf("missing phase row: %q", text)
	}
}

func TestPhaseTimerNilLogIsNoOp(t *testing.T) {
	timer := StartPhase(nil, 0, "phase")
	if err := timer.Stop(); err != nil {
		t.Errorf("Stop() with nil log should be a no-op: %v", err)
	}
}

func TestMetricsWriteTextfile(t *testing.T) {
	m := NewMetrics(1)
	m.PartitionsWritten.Add(3)
	m.PixelsFilled.Add(10)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "prasterblaster_partitions_written_total") {
		t.Errorf("missing metric in output: %q", text)
	}
	if !strings.Contains(text, `rank="1"`) {
		t.Errorf("missing rank label: %q", text)
	}
}

func TestMetricsHasSamples(t *testing.T) {
	m := NewMetrics(0)
	if m.HasSamples() {
		t.Error("HasSamples() = true on a freshly constructed Metrics")
	}
	m.PixelsFilled.Inc()
	if !m.HasSamples() {
		t.Error("HasSamples() = false after incrementing a counter")
	}
}

func TestProgressBarIncrementAndFinish(t *testing.T) {
	pb := NewProgressBar("test", 10)
	for i := 0; i < 10; i++ {
		pb.Increment()
	}
	pb.Finish()
}
