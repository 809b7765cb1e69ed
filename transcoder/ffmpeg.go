package transcoder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/freemocap/skellysubs/errors"
	"github.com/freemocap/skellysubs/logger"
	"github.com/freemocap/skellysubs/observability"
	"github.com/freemocap/skellysubs/process"
)

// maxMP3BitrateKbps is the mp3 encoder ceiling; short clips back-calculate
// to absurd bitrates otherwise.
const maxMP3BitrateKbps = 320

// Config configures the ffmpeg transcoder.
type Config struct {
	// FFmpegPath is the ffmpeg binary. Defaults to "ffmpeg".
	FFmpegPath string `yaml:"ffmpeg_path,omitempty" mapstructure:"ffmpeg_path"`
	// FFprobePath is the ffprobe binary. Defaults to "ffprobe".
	FFprobePath string `yaml:"ffprobe_path,omitempty" mapstructure:"ffprobe_path"`
	// MaxSizeMB caps the extracted mp3 size. Defaults to 25.
	MaxSizeMB float64 `yaml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	// TempDir holds extracted audio files. Defaults to the OS temp dir.
	TempDir string `yaml:"temp_dir,omitempty" mapstructure:"temp_dir"`
	// Runner configures subprocess resilience.
	Runner process.RunnerConfig `yaml:"runner,omitempty" mapstructure:"runner"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.FFprobePath == "" {
		c.FFprobePath = "ffprobe"
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 25
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
}

// FFmpeg is the ffmpeg-backed Transcoder.
type FFmpeg struct {
	config Config
	runner *process.Runner
	log    *logger.Logger
}

// NewFFmpeg creates an ffmpeg transcoder.
func NewFFmpeg(cfg Config, log *logger.Logger) *FFmpeg {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewDefault()
	}
	return &FFmpeg{
		config: cfg,
		runner: process.NewRunner(cfg.Runner),
		log:    log.WithComponent("transcoder"),
	}
}

// ExtractAudio transcodes path into an mp3 whose bitrate is back-calculated
// from the configured size cap and the source duration.
func (f *FFmpeg) ExtractAudio(ctx context.Context, path string) (*AudioExtract, error) {
	duration, err := f.Duration(ctx, path)
	if err != nil {
		return nil, err
	}

	bitrate := TargetBitrate(f.config.MaxSizeMB, duration)
	if bitrate > maxMP3BitrateKbps {
		bitrate = maxMP3BitrateKbps
	}
	if bitrate <= 0 {
		return nil, errors.InvalidInput("file", fmt.Sprintf("media too long to fit %v MB: %v seconds", f.config.MaxSizeMB, duration))
	}

	out, err := os.CreateTemp(f.config.TempDir, "skellysubs-*.mp3")
	if err != nil {
		return nil, errors.Internal(err)
	}
	outPath := out.Name()
	_ = out.Close()

	result, err := f.runner.Run(ctx, process.Command{
		Binary: f.config.FFmpegPath,
		Args: []string{
			"-i", path,
			"-vn",
			"-acodec", "libmp3lame",
			"-b:a", fmt.Sprintf("%dk", bitrate),
			"-y", outPath,
		},
	})
	if err != nil {
		_ = os.Remove(outPath)
		return nil, errors.ExternalServiceError("transcoder", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, errors.Internal(err)
	}

	f.log.Info("audio extracted", logger.Fields(
		"input", path,
		"bitrate_kbps", bitrate,
		"duration_s", duration,
		"size_bytes", info.Size(),
		"encode_time", result.Duration.String(),
	))

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &AudioExtract{
		Path:     outPath,
		Name:     base + ".mp3",
		MIMEType: "audio/mpeg",
		Size:     info.Size(),
		Bitrate:  bitrate,
		Duration: duration,
	}, nil
}

// Duration probes the media duration with ffprobe, falling back to parsing
// ffmpeg's metadata banner when probing fails.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	result, err := f.runner.Run(ctx, process.Command{
		Binary: f.config.FFprobePath,
		Args: []string{
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			path,
		},
	})
	if err == nil {
		if d, perr := ParseProbeDuration(result.Text()); perr == nil {
			return d, nil
		}
	}

	f.log.Warn("ffprobe failed, falling back to ffmpeg banner", logger.Fields("input", path))

	// ffmpeg -i with no output exits non-zero but still prints the banner.
	bannerResult, _ := f.runner.Run(ctx, process.Command{
		Binary: f.config.FFmpegPath,
		Args:   []string{"-i", path},
	})
	if bannerResult != nil {
		if d, perr := ParseBannerDuration(bannerResult.ErrorText()); perr == nil {
			return d, nil
		}
	}

	return 0, errors.ExternalServiceError("transcoder", fmt.Errorf("could not determine duration of %s", path))
}

// CheckHealth reports whether the ffmpeg and ffprobe binaries resolve.
func (f *FFmpeg) CheckHealth(_ context.Context) observability.Health {
	missing := []string{}
	if !process.LookPath(f.config.FFmpegPath) {
		missing = append(missing, f.config.FFmpegPath)
	}
	if !process.LookPath(f.config.FFprobePath) {
		missing = append(missing, f.config.FFprobePath)
	}
	if len(missing) > 0 {
		return observability.Health{
			Name:    "transcoder",
			Status:  observability.HealthStatusDown,
			Message: "missing binaries: " + strings.Join(missing, ", "),
		}
	}
	return observability.Health{Name: "transcoder", Status: observability.HealthStatusUp}
}

// ParseProbeDuration parses ffprobe's bare duration output.
func ParseProbeDuration(out string) (float64, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("transcoder: bad probe duration %q", out)
	}
	return d, nil
}

var bannerDuration = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+(?:\.\d+)?)`)

// ParseBannerDuration pulls the duration out of ffmpeg's stderr banner
// ("Duration: 00:01:23.45, start: ...").
func ParseBannerDuration(stderr string) (float64, error) {
	m := bannerDuration.FindStringSubmatch(stderr)
	if m == nil {
		return 0, fmt.Errorf("transcoder: no duration in banner")
	}
	h, _ := strconv.ParseFloat(m[1], 64)
	min, _ := strconv.ParseFloat(m[2], 64)
	s, _ := strconv.ParseFloat(m[3], 64)
	d := h*3600 + min*60 + s
	if d <= 0 {
		return 0, fmt.Errorf("transcoder: zero duration in banner")
	}
	return d, nil
}
