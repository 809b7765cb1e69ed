package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParseVTT parses WebVTT content into an ordered cue list. A line containing
// "-->" opens a new cue; subsequent non-empty lines are its text; a cue
// closes when the line after its latest text line is blank, or at end of
// input. The WEBVTT header line is skipped. Malformed timing fields parse to
// NaN rather than raising an error, producing a degenerate cue the sync
// engine will never match.
func ParseVTT(content string) []Cue {
	lines := strings.Split(content, "\n")

	var cues []Cue
	var current *Cue

	for i, line := range lines {
		if strings.Contains(line, "-->") {
			parts := strings.SplitN(line, "-->", 2)
			current = &Cue{
				Start: ParseTimestamp(strings.TrimSpace(parts[0])),
				End:   ParseTimestamp(strings.TrimSpace(parts[1])),
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "WEBVTT" || current == nil {
			continue
		}

		current.Text = append(current.Text, trimmed)

		// Lookahead: a blank line (or end of input) after a text line
		// closes the cue.
		if i+1 >= len(lines) || strings.TrimSpace(lines[i+1]) == "" {
			cues = append(cues, *current)
			current = nil
		}
	}

	// Flush a cue left open at end of input.
	if current != nil {
		cues = append(cues, *current)
	}

	return cues
}

// ParseTimestamp converts an "HH:MM:SS.mmm" timing field into total seconds.
// Fractional seconds are carried in the seconds field and counted once.
// Any malformed field yields NaN.
func ParseTimestamp(ts string) float64 {
	fields := strings.Split(ts, ":")
	if len(fields) != 3 {
		return math.NaN()
	}

	hours, err1 := strconv.ParseFloat(fields[0], 64)
	minutes, err2 := strconv.ParseFloat(fields[1], 64)
	seconds, err3 := strconv.ParseFloat(fields[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return math.NaN()
	}

	return hours*3600 + minutes*60 + seconds
}

// FormatTime renders seconds as "HH:MM:SS.mmm" with floor semantics for each
// field. It is the exact inverse of ParseTimestamp for round-trip use.
func FormatTime(seconds float64) string {
	h := int(math.Floor(seconds / 3600))
	m := int(math.Floor(seconds/60)) % 60
	s := int(math.Floor(seconds)) % 60
	// Nudge past binary representation error so a parsed ".800" (stored as
	// 0.79999...) floors back to 800, not 799.
	ms := int(math.Floor((seconds-math.Floor(seconds))*1000 + 1e-6))
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// TimingLine renders a cue's "<start> --> <end>" timing string, the form
// used both by VTT output and by FindCueLineRange's exact match.
func TimingLine(cue Cue) string {
	return FormatTime(cue.Start) + " --> " + FormatTime(cue.End)
}

var (
	srtTimestampComma = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}),(\d{3})`)
	braceStyling      = regexp.MustCompile(`\{[^}]*\}`)
)

// ConvertSRTToVTT converts SRT text to VTT-compatible text: the comma
// decimal separator in timestamps becomes a period, brace-delimited inline
// styling is stripped, and a leading "WEBVTT\n\n" is removed if present.
// Each step is a no-op on already-converted input, so the function is
// idempotent.
func ConvertSRTToVTT(srt string) string {
	out := srtTimestampComma.ReplaceAllString(srt, "$1.$2")
	out = braceStyling.ReplaceAllString(out, "")
	out = strings.TrimPrefix(out, "WEBVTT\n\n")
	return out
}
