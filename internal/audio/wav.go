package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Info describes a WAV file without loading its sample data
type Info struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth"`
	Duration   float64 `json:"duration_seconds"`
	SizeBytes  int64   `json:"size_bytes"`
}

// ValidateFile checks that a path points to a usable WAV file
func ValidateFile(path string) error {
	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("audio file not found: %s: %w", path, err)
	}

	if stat.IsDir() {
		return fmt.Errorf("audio path is a directory: %s", path)
	}

	if stat.Size() == 0 {
		return fmt.Errorf("audio file is empty: %s", path)
	}

	if ext := filepath.Ext(path); !strings.EqualFold(ext, ".wav") {
		return fmt.Errorf("unsupported audio format %q (only .wav is supported)", ext)
	}

	return nil
}

// Probe reads WAV header metadata and the file size. The sample data stays
// on disk.
func Probe(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat audio file %s: %w", path, err)
	}

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	dur, err := dec.Duration()
	if err != nil {
		return nil, fmt.Errorf("failed to read duration of %s: %w", path, err)
	}

	return &Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Duration:   dur.Seconds(),
		SizeBytes:  stat.Size(),
	}, nil
}

// ReadSamples loads the complete PCM buffer of a WAV file and returns the
// samples with their sample rate.
func ReadSamples(path string) ([]int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open audio file %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode audio file %s: %w", path, err)
	}

	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("no audio data found in %s", path)
	}

	if buf.Format.NumChannels != 1 {
		return nil, 0, fmt.Errorf("unsupported channel count: %d (only mono is supported)", buf.Format.NumChannels)
	}

	return buf.Data, buf.Format.SampleRate, nil
}

// WriteSamples writes PCM samples as a mono 16-bit WAV file
func WriteSamples(path string, samples []int, sampleRate int) error {
	if len(samples) == 0 {
		return fmt.Errorf("cannot write empty audio samples")
	}

	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create audio file %s: %w", path, err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("failed to write audio data to %s: %w", path, err)
	}

	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalize audio file %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close audio file %s: %w", path, err)
	}

	return nil
}
