package transcoder_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/freemocap/skellysubs/transcoder"
)

func TestTargetBitrate(t *testing.T) {
	tests := []struct {
		maxSizeMB float64
		duration  float64
		want      int
	}{
		// 25 MB over 1000 seconds: 25*8*1024*1024/1000/1000 = 209 kbps
		{25, 1000, 209},
		// One hour of audio into 25 MB
		{25, 3600, 58},
		// Short clip back-calculates very high
		{25, 10, 20971},
		{0, 100, 0},
	}
	for _, tt := range tests {
		if got := transcoder.TargetBitrate(tt.maxSizeMB, tt.duration); got != tt.want {
			t.Errorf("TargetBitrate(%v, %v) = %d, want %d", tt.maxSizeMB, tt.duration, got, tt.want)
		}
	}

	if got := transcoder.TargetBitrate(25, 0); got != 0 {
		t.Errorf("zero duration should yield 0, got %d", got)
	}
}

func TestParseProbeDuration(t *testing.T) {
	d, err := transcoder.ParseProbeDuration("83.450000\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 83.45 {
		t.Fatalf("expected 83.45, got %v", d)
	}

	for _, bad := range []string{"", "N/A", "-1", "0"} {
		if _, err := transcoder.ParseProbeDuration(bad); err == nil {
			t.Errorf("ParseProbeDuration(%q) should fail", bad)
		}
	}
}

func TestParseBannerDuration(t *testing.T) {
	stderr := `ffmpeg version 6.0 Copyright (c) 2000-2023
Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'clip.mp4':
  Duration: 00:01:23.45, start: 0.000000, bitrate: 1205 kb/s
At least one output file must be specified`

	d, err := transcoder.ParseBannerDuration(stderr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 83.45 {
		t.Fatalf("expected 83.45, got %v", d)
	}

	if _, err := transcoder.ParseBannerDuration("no duration here"); err == nil {
		t.Fatal("banner without duration should fail")
	}
	if _, err := transcoder.ParseBannerDuration("Duration: 00:00:00.00, start"); err == nil {
		t.Fatal("zero duration should fail")
	}
}

func TestAudioExtractReleaseRemovesFileOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp3")
	if err := os.WriteFile(path, []byte("mp3"), 0o600); err != nil {
		t.Fatalf("write temp: %v", err)
	}

	extract := &transcoder.AudioExtract{Path: path, Name: "clip.mp3", MIMEType: "audio/mpeg"}
	extract.Release()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("release should remove the temp file")
	}

	// Second release is a no-op, not a panic or second removal attempt.
	extract.Release()
}
