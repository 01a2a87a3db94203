package output

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// recentFileCount bounds the file list reported by GetStats.
const recentFileCount = 5

// Metadata describes one transcription for the Markdown header.
type Metadata struct {
	DurationSeconds  float64
	FileSizeMB       float64
	Language         string
	WordCount        int
	CharacterCount   int
	SourceFile       string
	ProcessingMethod string // "direct" or "chunked(N)"
}

// DirStats summarizes the output directory for the status command.
type DirStats struct {
	OutputDir   string   `json:"output_dir"`
	TotalFiles  int      `json:"total_files"`
	TotalSizeMB float64  `json:"total_size_mb"`
	RecentFiles []string `json:"recent_files"`
}

// Writer persists transcripts under one output directory.
type Writer struct {
	dir    string
	logger *slog.Logger

	// now is replaceable so tests get stable filenames.
	now func() time.Time
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger, now: time.Now}
}

// SaveTranscript writes a standalone Markdown document and returns its path.
// The filename carries the source stem and a timestamp so repeated runs
// never collide.
func (w *Writer) SaveTranscript(text string, meta Metadata) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(meta.SourceFile), filepath.Ext(meta.SourceFile))
	name := fmt.Sprintf("%s_transcript_%s.md", stem, w.now().Format("20060102_150405"))
	path := filepath.Join(w.dir, name)

	if err := os.WriteFile(path, []byte(w.renderTranscript(text, meta)), 0644); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}

	w.logger.Info("Transcript saved",
		slog.String("path", path),
		slog.Int("words", meta.WordCount),
		slog.Int("characters", meta.CharacterCount),
	)
	return path, nil
}

func (w *Writer) renderTranscript(text string, meta Metadata) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Voice Transcription\n\n")
	fmt.Fprintf(&b, "- Generated: %s\n", w.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Source: `%s`\n", filepath.Base(meta.SourceFile))
	fmt.Fprintf(&b, "- Duration: %.2fs\n", meta.DurationSeconds)
	fmt.Fprintf(&b, "- Size: %.2f MB\n", meta.FileSizeMB)
	fmt.Fprintf(&b, "- Language: %s\n", meta.Language)
	fmt.Fprintf(&b, "- Words: %d\n", meta.WordCount)
	fmt.Fprintf(&b, "- Characters: %d\n", meta.CharacterCount)
	if meta.ProcessingMethod != "" {
		fmt.Fprintf(&b, "- Method: %s\n", meta.ProcessingMethod)
	}
	b.WriteString("\n---\n\n")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n")

	return b.String()
}

// AppendDailyLog adds the transcript to the shared per-day log, creating the
// file with a header on first use.
func (w *Writer) AppendDailyLog(text string, meta Metadata) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	now := w.now()
	path := filepath.Join(w.dir, fmt.Sprintf("daily_log_%s.md", now.Format("2006-01-02")))

	var b strings.Builder
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(&b, "# Voice Notes %s\n", now.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "\n## %s (%s)\n\n", now.Format("15:04:05"), filepath.Base(meta.SourceFile))
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open daily log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to append to daily log: %w", err)
	}

	w.logger.Info("Daily log updated", slog.String("path", path))
	return nil
}

// GetStats reports how much the output directory holds. A directory that
// does not exist yet reads as empty.
func (w *Writer) GetStats() (*DirStats, error) {
	stats := &DirStats{OutputDir: w.dir, RecentFiles: []string{}}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	type fileInfo struct {
		name    string
		modTime time.Time
	}
	var files []fileInfo
	var totalBytes int64

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{name: entry.Name(), modTime: info.ModTime()})
		totalBytes += info.Size()
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.After(files[j].modTime) })

	stats.TotalFiles = len(files)
	stats.TotalSizeMB = float64(totalBytes) / (1024 * 1024)
	for i, f := range files {
		if i >= recentFileCount {
			break
		}
		stats.RecentFiles = append(stats.RecentFiles, f.name)
	}

	return stats, nil
}

// CountWords counts whitespace-separated words, falling back to the rune
// count for text without spaces, as Chinese transcriptions arrive unspaced.
func CountWords(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	if strings.ContainsAny(trimmed, " \t\n") {
		return len(strings.Fields(trimmed))
	}
	return utf8.RuneCountInString(trimmed)
}
