// Package transcription defines the provider interface and REST client for
// the speech-to-text processing service.
package transcription

import "github.com/freemocap/skellysubs/subtitle"

// Request holds parameters for a transcription call.
type Request struct {
	// AudioPath is the path to the audio file to transcribe.
	AudioPath string `json:"audio_path"`
	// AudioName is the upload file name sent with the multipart field.
	AudioName string `json:"audio_name,omitempty"`
	// MIMEType is the audio content type (e.g. "audio/mpeg").
	MIMEType string `json:"mime_type,omitempty"`
	// Language is the expected spoken language (e.g. "en"). Optional.
	Language string `json:"language,omitempty"`
	// Prompt biases the recognizer toward expected vocabulary. Optional.
	Prompt string `json:"prompt,omitempty"`
}

// Word is a word-level timestamp within a segment.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a time-aligned portion of the transcript.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Transcript is the verbose transcription payload: full text plus
// time-aligned segments and word timestamps.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Words    []Word    `json:"words,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Result is the transcription service response: the verbose transcript, an
// SRT rendering, and the pre-formatted subtitle variants that populate the
// record store.
type Result struct {
	Transcript         Transcript                                      `json:"transcript"`
	SRTSubtitles       string                                          `json:"srt_subtitles_string"`
	FormattedSubtitles map[subtitle.Format]map[subtitle.Variant]string `json:"formatted_subtitles,omitempty"`
}
