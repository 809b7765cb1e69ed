package subtitle

import "strings"

// FindActiveCue returns the first cue bracketing the playback time,
// inclusive at both ends. First match wins, stable by input order, so
// overlapping cues resolve deterministically. Cues with NaN timing never
// match. Returns false when no cue is active.
func FindActiveCue(time float64, cues []Cue) (Cue, bool) {
	for _, cue := range cues {
		if cue.Start <= time && time <= cue.End {
			return cue, true
		}
	}
	return Cue{}, false
}

// LineRange is a span of line indices in raw subtitle text, zero-based and
// inclusive.
type LineRange struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

// FindCueLineRange locates a cue's text lines inside raw content by exact
// match of its formatted timing string, returning the line span of the text
// lines that follow. A miss means the content has been edited since the cue
// was parsed; that staleness is expected and reported as ok=false, not an
// error.
func FindCueLineRange(content string, cue Cue) (LineRange, bool) {
	timing := TimingLine(cue)
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		if strings.TrimSpace(line) != timing {
			continue
		}
		span := len(cue.Text)
		if span == 0 {
			span = 1
		}
		return LineRange{StartLine: i + 1, EndLine: i + span}, true
	}
	return LineRange{}, false
}
