package transcription

import (
	"strings"
	"testing"
)

func TestAdequatePunctuation(t *testing.T) {
	r := NewRepairer(RepairConfig{})

	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			name: "empty text",
			text: "",
			want: false,
		},
		{
			name: "below minimum length even with marks",
			text: strings.Repeat("字", 18) + "。",
			want: false,
		},
		{
			name: "exactly 20 runes with one mark",
			text: strings.Repeat("字", 19) + "。",
			want: true,
		},
		{
			name: "25 runes with one mark",
			text: strings.Repeat("字", 24) + "。",
			want: true,
		},
		{
			name: "long text without marks",
			text: strings.Repeat("字", 40),
			want: false,
		},
		{
			name: "density exactly at threshold",
			text: strings.Repeat("字", 49) + "。",
			want: true,
		},
		{
			name: "density below threshold",
			text: strings.Repeat("字", 99) + "。",
			want: false,
		},
		{
			name: "latin punctuation does not count",
			text: "this is a sentence that ends with an ascii period.",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.AdequatePunctuation(tt.text); got != tt.want {
				t.Errorf("AdequatePunctuation(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestHasWordSpacing(t *testing.T) {
	r := NewRepairer(RepairConfig{})

	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			name: "too short even with space",
			text: "a b",
			want: false,
		},
		{
			name: "ten runes with one space",
			text: "short text",
			want: true,
		},
		{
			name: "medium text with single space",
			text: "word " + strings.Repeat("x", 24),
			want: true,
		},
		{
			name: "long text with too few spaces",
			text: "word " + strings.Repeat("x", 35),
			want: false,
		},
		{
			name: "long text with enough spaces",
			text: strings.Repeat("word ", 10),
			want: true,
		},
		{
			name: "no spaces at all",
			text: strings.Repeat("字", 40),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.HasWordSpacing(tt.text); got != tt.want {
				t.Errorf("HasWordSpacing(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestEndsWithPunctuation(t *testing.T) {
	r := NewRepairer(RepairConfig{})

	tests := []struct {
		text string
		want bool
	}{
		{"", false},
		{"你好。", true},
		{"结束、", true},
		{"问题？", true},
		{"hello", false},
		{"hello.", false},
		{"（括号）", false},
	}

	for _, tt := range tests {
		if got := r.EndsWithPunctuation(tt.text); got != tt.want {
			t.Errorf("EndsWithPunctuation(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestRepairGapThresholds(t *testing.T) {
	r := NewRepairer(RepairConfig{})

	tests := []struct {
		name string
		gap  float64
		want string
	}{
		{"long pause becomes sentence end", 1.6, "前面。后面。"},
		{"boundary gap is not a sentence end", 1.5, "前面，后面。"},
		{"medium pause becomes comma", 0.9, "前面，后面。"},
		{"boundary gap is not a comma", 0.8, "前面、后面。"},
		{"short pause becomes light mark", 0.4, "前面、后面。"},
		{"brief gap joins with space", 0.2, "前面 后面。"},
		{"contiguous speech joins with space", 0.1, "前面 后面。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &InferenceResponse{
				Text: "前面后面",
				Segments: []Segment{
					{Start: 0, End: 1.0, Text: "前面"},
					{Start: 1.0 + tt.gap, End: 2.0 + tt.gap, Text: "后面"},
				},
			}
			if got := r.Repair(resp); got != tt.want {
				t.Errorf("Repair() with gap %.1f = %q, want %q", tt.gap, got, tt.want)
			}
		})
	}
}

func TestRepairNoSpaceAfterMark(t *testing.T) {
	r := NewRepairer(RepairConfig{})

	resp := &InferenceResponse{
		Text: "helloworld",
		Segments: []Segment{
			{Start: 0, End: 1.0, Text: "hello"},
			{Start: 3.0, End: 4.0, Text: "world"},
		},
	}

	got := r.Repair(resp)
	want := "hello。world。"
	if got != want {
		t.Errorf("Repair() = %q, want %q", got, want)
	}
}

func TestRepairKeepsExistingMarks(t *testing.T) {
	r := NewRepairer(RepairConfig{})

	resp := &InferenceResponse{
		Text: "你好再见",
		Segments: []Segment{
			{Start: 0, End: 1.0, Text: "你好，"},
			{Start: 5.0, End: 6.0, Text: "再见"},
		},
	}

	got := r.Repair(resp)
	want := "你好，再见。"
	if got != want {
		t.Errorf("Repair() = %q, want %q", got, want)
	}
}

func TestRepairAdequateTextUnchanged(t *testing.T) {
	r := NewRepairer(RepairConfig{})

	text := "这段话已经有标点了。不需要再处理，直接返回。"
	resp := &InferenceResponse{
		Text: text,
		Segments: []Segment{
			{Start: 0, End: 1.0, Text: "应该"},
			{Start: 5.0, End: 6.0, Text: "忽略"},
		},
	}

	if got := r.Repair(resp); got != text {
		t.Errorf("Repair() = %q, want original text unchanged", got)
	}
}

func TestRepairWithoutSegments(t *testing.T) {
	r := NewRepairer(RepairConfig{})

	resp := &InferenceResponse{Text: "没有分段信息"}
	if got := r.Repair(resp); got != "没有分段信息" {
		t.Errorf("Repair() = %q, want plain text fallback", got)
	}

	if got := r.Repair(nil); got != "" {
		t.Errorf("Repair(nil) = %q, want empty string", got)
	}
}

func TestRepairSkipsEmptySegments(t *testing.T) {
	r := NewRepairer(RepairConfig{})

	resp := &InferenceResponse{
		Text: "好的",
		Segments: []Segment{
			{Start: 0, End: 0.5, Text: ""},
			{Start: 0.5, End: 1.0, Text: "   "},
			{Start: 1.0, End: 2.0, Text: "好的"},
		},
	}

	got := r.Repair(resp)
	want := "好的。"
	if got != want {
		t.Errorf("Repair() = %q, want %q", got, want)
	}
}

func TestRepairAllSegmentsEmptyFallsBack(t *testing.T) {
	r := NewRepairer(RepairConfig{})

	resp := &InferenceResponse{
		Text: "原始文本",
		Segments: []Segment{
			{Start: 0, End: 0.5, Text: " "},
			{Start: 0.5, End: 1.0, Text: ""},
		},
	}

	if got := r.Repair(resp); got != "原始文本" {
		t.Errorf("Repair() = %q, want plain text fallback", got)
	}
}

func TestRepairerDefaults(t *testing.T) {
	r := NewRepairer(RepairConfig{})
	if r.config.PunctuationDensity != 0.02 {
		t.Errorf("default punctuation density = %v, want 0.02", r.config.PunctuationDensity)
	}
	if r.config.SpacingDensity != 0.05 {
		t.Errorf("default spacing density = %v, want 0.05", r.config.SpacingDensity)
	}

	custom := NewRepairer(RepairConfig{PunctuationDensity: 0.1, SpacingDensity: 0.2})
	if custom.config.PunctuationDensity != 0.1 || custom.config.SpacingDensity != 0.2 {
		t.Errorf("custom thresholds not preserved: %+v", custom.config)
	}
}
