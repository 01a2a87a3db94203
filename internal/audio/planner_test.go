package audio

import (
	"math"
	"testing"
)

func testPlanner() *Planner {
	return NewPlanner(PlannerConfig{
		MaxFileSizeBytes:      25 * 1024 * 1024,
		OverlapSeconds:        3.0,
		MinChunkDuration:      60.0,
		MaxChunkDuration:      300.0,
		FallbackChunkDuration: 240.0,
	})
}

func TestNeedsSplit(t *testing.T) {
	p := testPlanner()

	tests := []struct {
		name string
		size int64
		want bool
	}{
		{"well under ceiling", 1 * 1024 * 1024, false},
		{"exactly at ceiling", 25 * 1024 * 1024, false},
		{"one byte over", 25*1024*1024 + 1, true},
		{"well over ceiling", 40 * 1024 * 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.NeedsSplit(tt.size); got != tt.want {
				t.Errorf("NeedsSplit(%d) = %v, want %v", tt.size, got, tt.want)
			}
		})
	}
}

func TestPlanChunkDuration(t *testing.T) {
	p := testPlanner()

	tests := []struct {
		name     string
		size     int64
		duration float64
		want     float64
	}{
		{
			// 30 MiB over 300 s: bytes/s = 104857.6,
			// candidate = 25 MiB * 0.9 / 104857.6 = 225 s, inside the bounds.
			name:     "candidate within bounds",
			size:     30 * 1024 * 1024,
			duration: 300.0,
			want:     225.0,
		},
		{
			name:     "high bitrate clamps to minimum",
			size:     100 * 1024 * 1024,
			duration: 60.0,
			want:     60.0,
		},
		{
			name:     "low bitrate clamps to maximum",
			size:     1 * 1024 * 1024,
			duration: 3600.0,
			want:     300.0,
		},
		{
			name:     "zero duration falls back",
			size:     30 * 1024 * 1024,
			duration: 0,
			want:     240.0,
		},
		{
			name:     "zero size falls back",
			size:     0,
			duration: 300.0,
			want:     240.0,
		},
		{
			name:     "negative duration falls back",
			size:     30 * 1024 * 1024,
			duration: -5.0,
			want:     240.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := p.Plan(tt.size, tt.duration)
			if math.Abs(plan.ChunkDuration-tt.want) > 1e-9 {
				t.Errorf("Plan(%d, %f).ChunkDuration = %f, want %f",
					tt.size, tt.duration, plan.ChunkDuration, tt.want)
			}
			if plan.OverlapSeconds != 3.0 {
				t.Errorf("Expected overlap 3.0, got %f", plan.OverlapSeconds)
			}
		})
	}
}

func TestPlanDurationAlwaysInBounds(t *testing.T) {
	p := testPlanner()

	sizes := []int64{1, 1024, 25 * 1024 * 1024, 26 * 1024 * 1024, 500 * 1024 * 1024}
	durations := []float64{0.5, 10, 60, 300, 7200}

	for _, size := range sizes {
		for _, duration := range durations {
			plan := p.Plan(size, duration)
			if plan.ChunkDuration < 60.0 || plan.ChunkDuration > 300.0 {
				t.Errorf("Plan(%d, %f) produced out-of-bounds duration %f",
					size, duration, plan.ChunkDuration)
			}
		}
	}
}

func TestNewPlannerDefaults(t *testing.T) {
	p := NewPlanner(PlannerConfig{})

	if !p.NeedsSplit(26 * 1024 * 1024) {
		t.Error("Expected default 25 MiB ceiling to flag a 26 MiB file")
	}
	if p.NeedsSplit(24 * 1024 * 1024) {
		t.Error("Expected default 25 MiB ceiling to pass a 24 MiB file")
	}

	plan := p.Plan(0, 0)
	if plan.ChunkDuration != 240.0 {
		t.Errorf("Expected default fallback 240, got %f", plan.ChunkDuration)
	}
	if plan.OverlapSeconds != 3.0 {
		t.Errorf("Expected default overlap 3.0, got %f", plan.OverlapSeconds)
	}
}
