package subtitle_test

import (
	"math"
	"testing"

	"github.com/freemocap/skellysubs/subtitle"
)

func TestParseVTTSingleCue(t *testing.T) {
	cues := subtitle.ParseVTT("WEBVTT\n\n00:00:01.000 --> 00:00:04.000\nHello world\n\n")
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	cue := cues[0]
	if cue.Start != 1 || cue.End != 4 {
		t.Fatalf("expected [1,4], got [%v,%v]", cue.Start, cue.End)
	}
	if len(cue.Text) != 1 || cue.Text[0] != "Hello world" {
		t.Fatalf("expected [Hello world], got %v", cue.Text)
	}
}

func TestParseVTTMultipleCuesAndMultilineText(t *testing.T) {
	input := "WEBVTT\n\n" +
		"00:00:01.000 --> 00:00:04.000\nfirst line\nsecond line\n\n" +
		"00:00:05.500 --> 00:00:08.250\nlater cue\n\n"

	cues := subtitle.ParseVTT(input)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if len(cues[0].Text) != 2 || cues[0].Text[1] != "second line" {
		t.Fatalf("expected two text lines, got %v", cues[0].Text)
	}
	if cues[1].Start != 5.5 || cues[1].End != 8.25 {
		t.Fatalf("expected [5.5,8.25], got [%v,%v]", cues[1].Start, cues[1].End)
	}
}

func TestParseVTTFlushesOpenCueAtEOF(t *testing.T) {
	cues := subtitle.ParseVTT("00:00:01.000 --> 00:00:02.000\nno trailing blank")
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue flushed at EOF, got %d", len(cues))
	}
	if cues[0].Text[0] != "no trailing blank" {
		t.Fatalf("unexpected text %v", cues[0].Text)
	}
}

func TestParseVTTMalformedTimingYieldsNaN(t *testing.T) {
	cues := subtitle.ParseVTT("garbage --> 00:00:04.000\ndegenerate\n\n")
	if len(cues) != 1 {
		t.Fatalf("expected 1 degenerate cue, got %d", len(cues))
	}
	if !math.IsNaN(cues[0].Start) {
		t.Fatalf("expected NaN start, got %v", cues[0].Start)
	}
	if cues[0].End != 4 {
		t.Fatalf("well-formed end should still parse, got %v", cues[0].End)
	}
}

func TestParseVTTIgnoresTextBeforeFirstCue(t *testing.T) {
	cues := subtitle.ParseVTT("WEBVTT\nstray line\n\n00:00:01.000 --> 00:00:02.000\nhello\n\n")
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if len(cues[0].Text) != 1 || cues[0].Text[0] != "hello" {
		t.Fatalf("stray pre-cue text must not attach, got %v", cues[0].Text)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"00:00:01.000", 1},
		{"00:01:00.000", 60},
		{"01:02:05.250", 3725.25},
		{"10:00:00.500", 36000.5},
	}
	for _, tt := range tests {
		if got := subtitle.ParseTimestamp(tt.in); got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "1.000", "00:00", "aa:bb:cc.ddd", "00:00:xx.000"} {
		if got := subtitle.ParseTimestamp(bad); !math.IsNaN(got) {
			t.Errorf("ParseTimestamp(%q) = %v, want NaN", bad, got)
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{3725.250, "01:02:05.250"},
		{0, "00:00:00.000"},
		{1, "00:00:01.000"},
		{59.999, "00:00:59.999"},
		{3600, "01:00:00.000"},
		{36000.5, "10:00:00.500"},
	}
	for _, tt := range tests {
		if got := subtitle.FormatTime(tt.in); got != tt.want {
			t.Errorf("FormatTime(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTimingRoundTrip(t *testing.T) {
	// Millisecond-precision values chosen to be exactly representable.
	values := []float64{0, 1, 4.25, 5.5, 59.875, 3725.250, 36000.125}
	for _, v := range values {
		formatted := subtitle.FormatTime(v)
		parsed := subtitle.ParseTimestamp(formatted)
		if parsed != v {
			t.Errorf("round trip %v -> %q -> %v", v, formatted, parsed)
		}
	}
}

func TestFormatTimeRoundTripsParsedStrings(t *testing.T) {
	// Timestamps whose fractional part is not exactly representable in
	// binary (.800 parses to 0.79999...) must still format back verbatim.
	inputs := []string{
		"00:00:04.800",
		"00:00:00.100",
		"00:00:01.300",
		"00:01:02.700",
		"01:02:03.900",
		"00:00:59.001",
	}
	for _, in := range inputs {
		if got := subtitle.FormatTime(subtitle.ParseTimestamp(in)); got != in {
			t.Errorf("round trip %q -> %q", in, got)
		}
	}
}

func TestParseVTTRoundTripsFormattedCue(t *testing.T) {
	original := subtitle.Cue{Start: 1.5, End: 4.25, Text: []string{"line one", "line two"}}
	content := subtitle.TimingLine(original) + "\nline one\nline two\n\n"

	cues := subtitle.ParseVTT(content)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].Start != original.Start || cues[0].End != original.End {
		t.Fatalf("timing drifted: got [%v,%v]", cues[0].Start, cues[0].End)
	}
}

func TestConvertSRTToVTT(t *testing.T) {
	srt := "1\n00:00:01,000 --> 00:00:04,000\n{\\an8}Hello\n"
	got := subtitle.ConvertSRTToVTT(srt)
	want := "1\n00:00:01.000 --> 00:00:04.000\nHello\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestConvertSRTToVTTStripsLeadingHeader(t *testing.T) {
	got := subtitle.ConvertSRTToVTT("WEBVTT\n\n00:00:01,000 --> 00:00:02,000\nhi\n")
	want := "00:00:01.000 --> 00:00:02.000\nhi\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestConvertSRTToVTTIdempotent(t *testing.T) {
	inputs := []string{
		"1\n00:00:01,000 --> 00:00:04,000\n{b}styled{/b}\n",
		"WEBVTT\n\n00:00:01,000 --> 00:00:02,000\nhi\n",
		"already bare text with 00:00:09.123 inside\n",
		"",
	}
	for _, in := range inputs {
		once := subtitle.ConvertSRTToVTT(in)
		twice := subtitle.ConvertSRTToVTT(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
