// Package transcoder extracts size-constrained mp3 audio from uploaded media
// using ffmpeg, with ffprobe-based duration probing and a banner-parse
// fallback. The produced AudioExtract owns its temp file and releases it when
// superseded in the pipeline's artifact store.
package transcoder

import (
	"context"
	"math"
	"os"
	"sync"
)

// Transcoder converts uploaded media into transcription-ready audio.
type Transcoder interface {
	// ExtractAudio transcodes the file at path into an mp3 constrained to
	// the configured maximum size.
	ExtractAudio(ctx context.Context, path string) (*AudioExtract, error)
	// Duration returns the media duration in seconds.
	Duration(ctx context.Context, path string) (float64, error)
}

// AudioExtract is the filePreparation stage's artifact: an mp3 on disk plus
// the metadata the transcription request needs.
type AudioExtract struct {
	// Path is the temp file holding the mp3.
	Path string `json:"path"`
	// Name is the output file name (input base name with .mp3 extension).
	Name string `json:"name"`
	// MIMEType is always audio/mpeg for mp3 output.
	MIMEType string `json:"mimeType"`
	// Size is the output size in bytes.
	Size int64 `json:"size"`
	// Bitrate is the audio bitrate used, in kbps.
	Bitrate int `json:"bitrate"`
	// Duration is the source duration in seconds.
	Duration float64 `json:"duration"`

	releaseOnce sync.Once
}

// Release removes the temp file. Called by the artifact store exactly once
// when the extract is superseded or the store closes; safe against repeats.
func (a *AudioExtract) Release() {
	a.releaseOnce.Do(func() {
		if a.Path != "" {
			_ = os.Remove(a.Path)
		}
	})
}

// TargetBitrate back-calculates the kbps that fits duration seconds of audio
// into maxSizeMB megabytes.
func TargetBitrate(maxSizeMB, duration float64) int {
	if duration <= 0 {
		return 0
	}
	return int(math.Floor(maxSizeMB * 8 * 1024 * 1024 / duration / 1000))
}
