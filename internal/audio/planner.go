package audio

// sizeHeadroom reserves room for container overhead so a written chunk does
// not itself exceed the upload ceiling.
const sizeHeadroom = 0.9

// ChunkPlan describes how a source file should be cut before upload
type ChunkPlan struct {
	NeedsSplit     bool
	ChunkDuration  float64 // seconds
	OverlapSeconds float64
}

// PlannerConfig contains the size ceiling and chunk duration bounds
type PlannerConfig struct {
	MaxFileSizeBytes      int64
	OverlapSeconds        float64
	MinChunkDuration      float64 // seconds
	MaxChunkDuration      float64 // seconds
	FallbackChunkDuration float64 // seconds, used when size or duration is unknown
}

// Planner decides whether a file needs splitting and sizes its chunks
type Planner struct {
	config PlannerConfig
}

// NewPlanner creates a planner, filling unset config fields with defaults
func NewPlanner(config PlannerConfig) *Planner {
	if config.MaxFileSizeBytes <= 0 {
		config.MaxFileSizeBytes = 25 * 1024 * 1024
	}
	if config.OverlapSeconds <= 0 {
		config.OverlapSeconds = 3.0
	}
	if config.MinChunkDuration <= 0 {
		config.MinChunkDuration = 60.0
	}
	if config.MaxChunkDuration <= 0 {
		config.MaxChunkDuration = 300.0
	}
	if config.FallbackChunkDuration <= 0 {
		config.FallbackChunkDuration = 240.0
	}

	return &Planner{config: config}
}

// NeedsSplit reports whether a file of the given size exceeds the upload ceiling
func (p *Planner) NeedsSplit(sizeBytes int64) bool {
	return sizeBytes > p.config.MaxFileSizeBytes
}

// Plan computes the chunk duration for a source of the given byte size and
// play time. A chunk should come out just under the ceiling once written,
// so the duration derives from the observed bytes per second with headroom,
// clamped to the configured bounds. Unknown size or duration falls back to
// a fixed duration instead of failing: splitting must never be blocked by a
// metadata problem.
func (p *Planner) Plan(sizeBytes int64, durationSeconds float64) ChunkPlan {
	plan := ChunkPlan{
		NeedsSplit:     p.NeedsSplit(sizeBytes),
		OverlapSeconds: p.config.OverlapSeconds,
	}

	if sizeBytes <= 0 || durationSeconds <= 0 {
		plan.ChunkDuration = p.config.FallbackChunkDuration
		return plan
	}

	bytesPerSecond := float64(sizeBytes) / durationSeconds
	candidate := float64(p.config.MaxFileSizeBytes) * sizeHeadroom / bytesPerSecond

	if candidate < p.config.MinChunkDuration {
		candidate = p.config.MinChunkDuration
	}
	if candidate > p.config.MaxChunkDuration {
		candidate = p.config.MaxChunkDuration
	}

	plan.ChunkDuration = candidate
	return plan
}
