package transcription

import (
	"strings"
	"unicode/utf8"
)

// Punctuation recognized by the adequacy heuristics. The set covers the CJK
// fullwidth marks because unpunctuated output is above all a Chinese
// transcription problem.
const punctuationMarks = "。，！？；：“”‘’（）【】《》、"

// Marks that close a sentence or clause. A segment already ending in one of
// these is taken as-is during repair.
const trailingMarks = "。，！？；：、"

// Silence gaps between segments, in seconds. A longer pause earns a heavier
// mark.
const (
	sentenceGap = 1.5
	clauseGap   = 0.8
	pauseGap    = 0.3
)

// RepairConfig holds the tunable thresholds of the adequacy heuristics.
type RepairConfig struct {
	// PunctuationDensity is the minimum punctuation-to-rune ratio for a text
	// to count as already punctuated.
	PunctuationDensity float64
	// SpacingDensity is the minimum space-to-rune ratio for a long text to
	// count as word-spaced.
	SpacingDensity float64
}

// Repairer decides whether raw transcription output needs structural repair
// and synthesizes punctuation from segment timing when it does.
type Repairer struct {
	config RepairConfig
}

// NewRepairer creates a repairer, filling unset thresholds with defaults.
func NewRepairer(config RepairConfig) *Repairer {
	if config.PunctuationDensity <= 0 {
		config.PunctuationDensity = 0.02
	}
	if config.SpacingDensity <= 0 {
		config.SpacingDensity = 0.05
	}
	return &Repairer{config: config}
}

// AdequatePunctuation reports whether the text already carries enough
// punctuation to read as structured. Texts under 20 runes never qualify.
func (r *Repairer) AdequatePunctuation(text string) bool {
	runes := []rune(text)
	if len(runes) < 20 {
		return false
	}

	count := 0
	for _, ch := range runes {
		if strings.ContainsRune(punctuationMarks, ch) {
			count++
		}
	}
	return float64(count)/float64(len(runes)) >= r.config.PunctuationDensity
}

// HasWordSpacing reports whether the text is separated into words by ASCII
// spaces. Texts under 10 runes never qualify, any space satisfies texts
// under 30 runes, and longer texts must meet the configured space density.
func (r *Repairer) HasWordSpacing(text string) bool {
	total := utf8.RuneCountInString(text)
	if total < 10 {
		return false
	}

	spaces := strings.Count(text, " ")
	if spaces == 0 {
		return false
	}
	if total < 30 {
		return true
	}
	return float64(spaces)/float64(total) >= r.config.SpacingDensity
}

// EndsWithPunctuation reports whether the final rune is a recognized
// sentence or clause mark.
func (r *Repairer) EndsWithPunctuation(text string) bool {
	if text == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	return strings.ContainsRune(trailingMarks, last)
}

// Repair rebuilds sentence structure for a timestamped response. Plain text
// that is already adequately punctuated comes back unchanged. Otherwise the
// segments are joined in order, each closed with a mark chosen by the
// silence gap to the next segment: a long pause reads as a sentence end, a
// medium one as a comma, a short one as a light pause, contiguous speech as
// a plain word break. The final segment always closes the sentence. A
// response without usable segments falls back to its plain text.
func (r *Repairer) Repair(resp *InferenceResponse) string {
	if resp == nil {
		return ""
	}
	if r.AdequatePunctuation(resp.Text) {
		return resp.Text
	}
	if len(resp.Segments) == 0 {
		return resp.Text
	}

	var b strings.Builder
	for i, segment := range resp.Segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}

		if b.Len() > 0 && !r.endsWithSeparator(b.String()) {
			b.WriteString(" ")
		}

		if !r.EndsWithPunctuation(text) {
			if i < len(resp.Segments)-1 {
				gap := resp.Segments[i+1].Start - segment.End
				switch {
				case gap > sentenceGap:
					text += "。"
				case gap > clauseGap:
					text += "，"
				case gap > pauseGap:
					text += "、"
				}
			} else {
				text += "。"
			}
		}

		b.WriteString(text)
	}

	if b.Len() == 0 {
		return resp.Text
	}
	return b.String()
}

// endsWithSeparator reports whether accumulated text already ends with a
// space or a recognized mark, so no joining space is needed before the next
// segment.
func (r *Repairer) endsWithSeparator(text string) bool {
	return strings.HasSuffix(text, " ") || r.EndsWithPunctuation(text)
}
