package transcript

import (
	"sort"
	"strings"
)

// Segment is one chunk's transcription, tagged with the chunk's position in
// the source audio. Indices may have gaps when some chunks failed.
type Segment struct {
	Index  int
	Text   string
	Source string
}

// Config holds the overlap detection parameters.
type Config struct {
	// MaxOverlapWords bounds the word window searched for a seam match.
	MaxOverlapWords int
	// SimilarityThreshold is the fraction of window positions that must
	// match for two windows to count as the same speech.
	SimilarityThreshold float64
}

// Combiner merges ordered chunk transcriptions into a single text.
type Combiner struct {
	config Config
}

// NewCombiner creates a combiner, filling unset parameters with defaults.
func NewCombiner(config Config) *Combiner {
	if config.MaxOverlapWords <= 0 {
		config.MaxOverlapWords = 10
	}
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = 0.8
	}
	return &Combiner{config: config}
}

// Combine joins segments in index order. Each segment is either merged into
// its predecessor at a detected seam or appended verbatim. A single segment
// comes back unchanged; multiple segments are joined with single spaces and
// the result is trimmed of leading and trailing whitespace only.
func (c *Combiner) Combine(segments []Segment) string {
	if len(segments) == 0 {
		return ""
	}
	if len(segments) == 1 {
		return segments[0].Text
	}

	ordered := make([]Segment, len(segments))
	copy(ordered, segments)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	parts := []string{ordered[0].Text}
	for _, segment := range ordered[1:] {
		if merged, ok := c.mergeOverlap(parts[len(parts)-1], segment.Text); ok {
			parts[len(parts)-1] = merged
		} else {
			parts = append(parts, segment.Text)
		}
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}

// mergeOverlap looks for the widest window of words shared between the tail
// of prev and the head of curr. On a match it returns prev with curr's
// non-duplicated words appended; the previous chunk's wording wins inside
// the window.
func (c *Combiner) mergeOverlap(prev, curr string) (string, bool) {
	prevWords := strings.Fields(prev)
	currWords := strings.Fields(curr)

	maxOverlap := c.config.MaxOverlapWords
	if len(prevWords) < maxOverlap {
		maxOverlap = len(prevWords)
	}
	if len(currWords) < maxOverlap {
		maxOverlap = len(currWords)
	}

	for overlap := maxOverlap; overlap >= 1; overlap-- {
		if c.windowsMatch(prevWords[len(prevWords)-overlap:], currWords[:overlap]) {
			merged := make([]string, 0, len(prevWords)+len(currWords)-overlap)
			merged = append(merged, prevWords...)
			merged = append(merged, currWords[overlap:]...)
			return strings.Join(merged, " "), true
		}
	}

	return "", false
}

// windowsMatch compares two word windows of equal length position by
// position, ignoring case.
func (c *Combiner) windowsMatch(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	matches := 0
	for i := range a {
		if strings.EqualFold(a[i], b[i]) {
			matches++
		}
	}
	return float64(matches)/float64(len(a)) >= c.config.SimilarityThreshold
}
