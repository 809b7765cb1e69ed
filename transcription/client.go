package transcription

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/freemocap/skellysubs/errors"
	"github.com/freemocap/skellysubs/httpclient"
	"github.com/freemocap/skellysubs/logger"
	"github.com/freemocap/skellysubs/observability"
)

const defaultTimeout = 120 * time.Second

// Provider is the interface transcription backends implement.
type Provider interface {
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// Config configures the REST client.
type Config struct {
	// BaseURL is the processing service base URL.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Timeout bounds the transcription round trip. Defaults to 2 minutes;
	// transcription of long audio is slow.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	// Retry and CircuitBreaker pass through to the HTTP client.
	HTTP httpclient.Config `yaml:"http,omitempty" mapstructure:"http"`
}

// Client calls POST {base}/processing/transcribe with a multipart form.
type Client struct {
	http *httpclient.Client
	log  *logger.Logger
}

// NewClient creates a transcription client.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.InvalidInput("base_url", "transcription service base URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = logger.NewDefault()
	}

	httpCfg := cfg.HTTP
	httpCfg.BaseURL = cfg.BaseURL
	httpCfg.Timeout = cfg.Timeout

	hc, err := httpclient.New(httpCfg)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc, log: log.WithComponent("transcription")}, nil
}

// Transcribe uploads the audio file and decodes the service response.
func (c *Client) Transcribe(ctx context.Context, req Request) (*Result, error) {
	audio, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, errors.InvalidInput("audio_path", err.Error())
	}

	name := req.AudioName
	if name == "" {
		name = "audio.mp3"
	}

	fields := map[string]string{}
	if req.Language != "" {
		fields["language"] = req.Language
	}
	if req.Prompt != "" {
		fields["prompt"] = req.Prompt
	}

	start := time.Now()
	var result Result
	err = c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/processing/transcribe",
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{{
				FieldName:   "audio_file",
				FileName:    name,
				ContentType: req.MIMEType,
				Data:        audio,
			}},
		},
	}, &result)
	if err != nil {
		return nil, errors.ExternalServiceError("transcription service", err)
	}

	c.log.Info("transcription received", logger.Fields(
		"language", result.Transcript.Language,
		"duration_s", result.Transcript.Duration,
		"segments", len(result.Transcript.Segments),
		"elapsed", time.Since(start).String(),
	))
	return &result, nil
}

// CheckHealth probes the service's health endpoint.
func (c *Client) CheckHealth(ctx context.Context) observability.Health {
	resp, err := c.http.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	if err != nil || !resp.IsSuccess() {
		msg := "unreachable"
		if err != nil {
			msg = err.Error()
		}
		return observability.Health{Name: "transcription", Status: observability.HealthStatusDown, Message: msg}
	}
	return observability.Health{Name: "transcription", Status: observability.HealthStatusUp}
}
