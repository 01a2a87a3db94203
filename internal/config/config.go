package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the CLI looks for a config file when -config is not given.
const DefaultConfigPath = "configs/config.yaml"

// Config represents the complete tool configuration
type Config struct {
	Audio         AudioConfig         `yaml:"audio"`
	Recording     RecordingConfig     `yaml:"recording"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Splitter      SplitterConfig      `yaml:"splitter"`
	Repair        RepairConfig        `yaml:"repair"`
	Output        OutputConfig        `yaml:"output"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// AudioConfig contains capture and WAV format parameters
type AudioConfig struct {
	SampleRate      int `yaml:"sample_rate"`
	Channels        int `yaml:"channels"`
	FramesPerBuffer int `yaml:"frames_per_buffer"`
}

// RecordingConfig contains microphone recording limits and destinations
type RecordingConfig struct {
	MaxDuration     int    `yaml:"max_duration"`     // seconds, hard stop
	DefaultDuration int    `yaml:"default_duration"` // seconds, used when no flag given
	OutputDir       string `yaml:"output_dir"`
}

// TranscriptionConfig contains remote inference API configuration
type TranscriptionConfig struct {
	BaseURL                string  `yaml:"base_url"`
	Model                  string  `yaml:"model"`
	TimestampedModel       string  `yaml:"timestamped_model"`
	Language               string  `yaml:"language"`
	Timeout                int     `yaml:"timeout"`     // seconds, per request
	ChunkPause             float64 `yaml:"chunk_pause"` // seconds between chunk uploads
	UseTimestampedFallback bool    `yaml:"use_timestamped_fallback"`
}

// SplitterConfig contains chunk planning and splitting parameters
type SplitterConfig struct {
	MaxFileSizeMB         float64 `yaml:"max_file_size_mb"`
	OverlapSeconds        float64 `yaml:"overlap_seconds"`
	MinChunkDuration      float64 `yaml:"min_chunk_duration"`      // seconds
	MaxChunkDuration      float64 `yaml:"max_chunk_duration"`      // seconds
	FallbackChunkDuration float64 `yaml:"fallback_chunk_duration"` // seconds, used when probing fails
	TempDir               string  `yaml:"temp_dir"`
}

// RepairConfig contains punctuation and spacing heuristic thresholds
type RepairConfig struct {
	PunctuationDensity float64 `yaml:"punctuation_density"`
	SpacingDensity     float64 `yaml:"spacing_density"`
}

// OutputConfig contains transcript persistence options
type OutputConfig struct {
	DailyLog bool `yaml:"daily_log"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no config file is supplied.
// Every field carries a usable value so the tool runs with zero setup.
func Default() *Config {
	outputDir := "voice_transcripts"
	if home, err := os.UserHomeDir(); err == nil {
		outputDir = filepath.Join(home, "Desktop", "voice_transcripts")
	}

	return &Config{
		Audio: AudioConfig{
			SampleRate:      44100,
			Channels:        1,
			FramesPerBuffer: 1024,
		},
		Recording: RecordingConfig{
			MaxDuration:     1800,
			DefaultDuration: 600,
			OutputDir:       outputDir,
		},
		Transcription: TranscriptionConfig{
			BaseURL:                "https://api.deepinfra.com/v1/inference",
			Model:                  "openai/whisper-large-v3",
			TimestampedModel:       "openai/whisper-timestamped-medium",
			Language:               "zh",
			Timeout:                30,
			ChunkPause:             1.0,
			UseTimestampedFallback: true,
		},
		Splitter: SplitterConfig{
			MaxFileSizeMB:         25.0,
			OverlapSeconds:        3.0,
			MinChunkDuration:      60.0,
			MaxChunkDuration:      300.0,
			FallbackChunkDuration: 240.0,
			TempDir:               os.TempDir(),
		},
		Repair: RepairConfig{
			PunctuationDensity: 0.02,
			SpacingDensity:     0.05,
		},
		Output: OutputConfig{
			DailyLog: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads and parses the configuration file. Fields absent from the file
// keep their defaults, so a partial config only overrides what it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.Recording.OutputDir = expandHome(config.Recording.OutputDir)
	config.Splitter.TempDir = expandHome(config.Splitter.TempDir)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// expandHome resolves a leading ~/ against the user's home directory so
// config files can name paths like ~/Desktop/voice_transcripts.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Recording.Validate(); err != nil {
		return fmt.Errorf("recording config: %w", err)
	}

	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription config: %w", err)
	}

	if err := c.Splitter.Validate(); err != nil {
		return fmt.Errorf("splitter config: %w", err)
	}

	if err := c.Repair.Validate(); err != nil {
		return fmt.Errorf("repair config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 192000 {
		return fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", a.SampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}

	if a.FramesPerBuffer < 64 || a.FramesPerBuffer > 8192 {
		return fmt.Errorf("frames_per_buffer must be between 64 and 8192, got %d", a.FramesPerBuffer)
	}

	return nil
}

// Validate validates recording configuration
func (r *RecordingConfig) Validate() error {
	if r.MaxDuration < 1 {
		return fmt.Errorf("max_duration must be at least 1 second, got %d", r.MaxDuration)
	}

	if r.DefaultDuration < 1 {
		return fmt.Errorf("default_duration must be at least 1 second, got %d", r.DefaultDuration)
	}

	if r.DefaultDuration > r.MaxDuration {
		return fmt.Errorf("default_duration (%d) must not exceed max_duration (%d)",
			r.DefaultDuration, r.MaxDuration)
	}

	if r.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}

	return nil
}

// Validate validates transcription configuration
func (t *TranscriptionConfig) Validate() error {
	if t.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}

	if t.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if t.UseTimestampedFallback && t.TimestampedModel == "" {
		return fmt.Errorf("timestamped_model cannot be empty when use_timestamped_fallback is set")
	}

	if t.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", t.Timeout)
	}

	if t.ChunkPause < 0 {
		return fmt.Errorf("chunk_pause cannot be negative, got %f", t.ChunkPause)
	}

	return nil
}

// Validate validates splitter configuration
func (s *SplitterConfig) Validate() error {
	if s.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max_file_size_mb must be positive, got %f", s.MaxFileSizeMB)
	}

	if s.OverlapSeconds <= 0 {
		return fmt.Errorf("overlap_seconds must be positive, got %f", s.OverlapSeconds)
	}

	if s.MinChunkDuration <= 0 {
		return fmt.Errorf("min_chunk_duration must be positive, got %f", s.MinChunkDuration)
	}

	if s.MaxChunkDuration <= s.MinChunkDuration {
		return fmt.Errorf("max_chunk_duration (%f) must be greater than min_chunk_duration (%f)",
			s.MaxChunkDuration, s.MinChunkDuration)
	}

	if s.OverlapSeconds >= s.MinChunkDuration {
		return fmt.Errorf("overlap_seconds (%f) must be smaller than min_chunk_duration (%f)",
			s.OverlapSeconds, s.MinChunkDuration)
	}

	if s.FallbackChunkDuration < s.MinChunkDuration || s.FallbackChunkDuration > s.MaxChunkDuration {
		return fmt.Errorf("fallback_chunk_duration (%f) must lie within [%f, %f]",
			s.FallbackChunkDuration, s.MinChunkDuration, s.MaxChunkDuration)
	}

	if s.TempDir == "" {
		return fmt.Errorf("temp_dir cannot be empty")
	}

	return nil
}

// Validate validates repair heuristic thresholds
func (r *RepairConfig) Validate() error {
	if r.PunctuationDensity <= 0 || r.PunctuationDensity >= 1 {
		return fmt.Errorf("punctuation_density must be between 0 and 1 (exclusive), got %f", r.PunctuationDensity)
	}

	if r.SpacingDensity <= 0 || r.SpacingDensity >= 1 {
		return fmt.Errorf("spacing_density must be between 0 and 1 (exclusive), got %f", r.SpacingDensity)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	validOutputs := map[string]bool{"stdout": true, "stderr": true}
	if !validOutputs[l.Output] {
		return fmt.Errorf("output must be 'stdout' or 'stderr', got '%s'", l.Output)
	}

	return nil
}

// GetMaxDuration returns the recording hard stop as a time.Duration
func (r *RecordingConfig) GetMaxDuration() time.Duration {
	return time.Duration(r.MaxDuration) * time.Second
}

// GetDefaultDuration returns the default recording limit as a time.Duration
func (r *RecordingConfig) GetDefaultDuration() time.Duration {
	return time.Duration(r.DefaultDuration) * time.Second
}

// GetTimeoutDuration returns the per-request timeout as a time.Duration
func (t *TranscriptionConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}

// GetChunkPauseDuration returns the pause between chunk uploads as a time.Duration
func (t *TranscriptionConfig) GetChunkPauseDuration() time.Duration {
	return time.Duration(t.ChunkPause * float64(time.Second))
}

// GetMaxFileSizeBytes returns the split ceiling in bytes
func (s *SplitterConfig) GetMaxFileSizeBytes() int64 {
	return int64(s.MaxFileSizeMB * 1024 * 1024)
}

// GetOverlapDuration returns the chunk overlap as a time.Duration
func (s *SplitterConfig) GetOverlapDuration() time.Duration {
	return time.Duration(s.OverlapSeconds * float64(time.Second))
}
