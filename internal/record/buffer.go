package record

import (
	"sync"
	"time"
)

// CaptureBuffer accumulates raw PCM samples read from an input stream.
// It is safe for concurrent use so a caller may inspect progress while
// the capture loop is appending.
type CaptureBuffer struct {
	mu         sync.RWMutex
	sampleRate int
	samples    []int
	blocks     int
	startedAt  time.Time
	lastBlock  time.Time
}

// BufferStats is a point-in-time snapshot of a capture buffer.
type BufferStats struct {
	Samples         int       `json:"samples"`
	Blocks          int       `json:"blocks"`
	SampleRate      int       `json:"sample_rate"`
	DurationSeconds float64   `json:"duration_seconds"`
	SizeBytes       int64     `json:"size_bytes"`
	StartedAt       time.Time `json:"started_at"`
	LastBlockAt     time.Time `json:"last_block_at"`
}

// NewCaptureBuffer creates an empty buffer for samples at the given rate.
func NewCaptureBuffer(sampleRate int) *CaptureBuffer {
	return &CaptureBuffer{sampleRate: sampleRate}
}

// AppendBlock copies one stream read into the buffer.
func (b *CaptureBuffer) AppendBlock(block []int16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if b.blocks == 0 {
		b.startedAt = now
	}
	for _, s := range block {
		b.samples = append(b.samples, int(s))
	}
	b.blocks++
	b.lastBlock = now
}

// Samples returns a copy of everything captured so far.
func (b *CaptureBuffer) Samples() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]int, len(b.samples))
	copy(out, b.samples)
	return out
}

// Len returns the number of captured samples.
func (b *CaptureBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// SampleRate returns the rate the buffer was created with.
func (b *CaptureBuffer) SampleRate() int {
	return b.sampleRate
}

// Duration returns the length of the captured audio.
func (b *CaptureBuffer) Duration() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.samples)) / float64(b.sampleRate) * float64(time.Second))
}

// SizeBytes reports the PCM payload size at 16 bits per sample.
func (b *CaptureBuffer) SizeBytes() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int64(len(b.samples)) * 2
}

// Stats returns a snapshot of the buffer state.
func (b *CaptureBuffer) Stats() BufferStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var duration float64
	if b.sampleRate > 0 {
		duration = float64(len(b.samples)) / float64(b.sampleRate)
	}
	return BufferStats{
		Samples:         len(b.samples),
		Blocks:          b.blocks,
		SampleRate:      b.sampleRate,
		DurationSeconds: duration,
		SizeBytes:       int64(len(b.samples)) * 2,
		StartedAt:       b.startedAt,
		LastBlockAt:     b.lastBlock,
	}
}
