package record

import (
	"testing"
	"time"
)

func TestCaptureBufferAppend(t *testing.T) {
	buf := NewCaptureBuffer(8000)

	buf.AppendBlock([]int16{1, -2, 3})
	buf.AppendBlock([]int16{4, 5})

	if got := buf.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}

	want := []int{1, -2, 3, 4, 5}
	samples := buf.Samples()
	if len(samples) != len(want) {
		t.Fatalf("Samples() length = %d, want %d", len(samples), len(want))
	}
	for i, s := range samples {
		if s != want[i] {
			t.Errorf("Samples()[%d] = %d, want %d", i, s, want[i])
		}
	}
}

func TestCaptureBufferSamplesReturnsCopy(t *testing.T) {
	buf := NewCaptureBuffer(8000)
	buf.AppendBlock([]int16{10, 20, 30})

	samples := buf.Samples()
	samples[0] = 999

	if got := buf.Samples()[0]; got != 10 {
		t.Errorf("buffer mutated through returned slice: got %d, want 10", got)
	}
}

func TestCaptureBufferDuration(t *testing.T) {
	buf := NewCaptureBuffer(8000)
	buf.AppendBlock(make([]int16, 4000))

	if got, want := buf.Duration(), 500*time.Millisecond; got != want {
		t.Errorf("Duration() = %v, want %v", got, want)
	}
	if got := buf.SizeBytes(); got != 8000 {
		t.Errorf("SizeBytes() = %d, want 8000", got)
	}
}

func TestCaptureBufferEmpty(t *testing.T) {
	buf := NewCaptureBuffer(44100)

	if got := buf.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
	if got := buf.Duration(); got != 0 {
		t.Errorf("Duration() = %v, want 0", got)
	}

	stats := buf.Stats()
	if stats.Blocks != 0 || stats.Samples != 0 || stats.SizeBytes != 0 {
		t.Errorf("Stats() of empty buffer = %+v, want zeros", stats)
	}
	if !stats.StartedAt.IsZero() {
		t.Errorf("StartedAt of empty buffer = %v, want zero time", stats.StartedAt)
	}
}

func TestCaptureBufferStats(t *testing.T) {
	buf := NewCaptureBuffer(44100)
	buf.AppendBlock(make([]int16, 1024))
	buf.AppendBlock(make([]int16, 1024))

	stats := buf.Stats()
	if stats.Samples != 2048 {
		t.Errorf("Samples = %d, want 2048", stats.Samples)
	}
	if stats.Blocks != 2 {
		t.Errorf("Blocks = %d, want 2", stats.Blocks)
	}
	if stats.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", stats.SampleRate)
	}
	if stats.SizeBytes != 4096 {
		t.Errorf("SizeBytes = %d, want 4096", stats.SizeBytes)
	}
	if stats.StartedAt.IsZero() {
		t.Error("StartedAt not set after append")
	}
	if stats.LastBlockAt.Before(stats.StartedAt) {
		t.Errorf("LastBlockAt %v before StartedAt %v", stats.LastBlockAt, stats.StartedAt)
	}
}
