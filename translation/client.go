package translation

import (
	"context"
	"net/http"
	"time"

	"github.com/freemocap/skellysubs/errors"
	"github.com/freemocap/skellysubs/httpclient"
	"github.com/freemocap/skellysubs/logger"
	"github.com/freemocap/skellysubs/observability"
)

const defaultTimeout = 120 * time.Second

// Provider is the interface translation backends implement.
type Provider interface {
	TranslateTranscript(ctx context.Context, req Request) (*Result, error)
}

// Config configures the REST client.
type Config struct {
	// BaseURL is the processing service base URL.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Timeout bounds the translation round trip.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	// HTTP passes retry and circuit-breaker settings to the HTTP client.
	HTTP httpclient.Config `yaml:"http,omitempty" mapstructure:"http"`
}

// Client calls POST {base}/processing/translate/transcript with a JSON body.
type Client struct {
	http *httpclient.Client
	log  *logger.Logger
}

// NewClient creates a translation client.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.InvalidInput("base_url", "translation service base URL is required")
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
	return &Client{http: hc, log: log.WithComponent("translation")}, nil
}

// TranslateTranscript sends the transcript and target languages, decoding
// the per-language translation result.
func (c *Client) TranslateTranscript(ctx context.Context, req Request) (*Result, error) {
	if len(req.TargetLanguages) == 0 {
		return nil, errors.InvalidInput("target_languages", "at least one target language is required")
	}

	start := time.Now()
	var result Result
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/processing/translate/transcript",
		Body:   req,
	}, &result)
	if err != nil {
		return nil, errors.ExternalServiceError("translation service", err)
	}

	c.log.Info("translation received", logger.Fields(
		"source_language", result.OriginalLanguage,
		"languages", len(result.Translations),
		"segments", len(result.Segments),
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
		return observability.Health{Name: "translation", Status: observability.HealthStatusDown, Message: msg}
	}
	return observability.Health{Name: "translation", Status: observability.HealthStatusUp}
}
