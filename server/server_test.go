package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/freemocap/skellysubs/errors"
	"github.com/freemocap/skellysubs/logger"
	"github.com/freemocap/skellysubs/observability"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := Config{}
	cfg.ApplyDefaults()
	return New(cfg, logger.NewDefault())
}

type staticChecker struct {
	health observability.Health
}

func (s staticChecker) CheckHealth(ctx context.Context) observability.Health {
	return s.health
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.WriteTimeout != 0 {
		t.Errorf("WriteTimeout = %d, want 0 for streaming routes", cfg.WriteTimeout)
	}
	if cfg.MaxBodySize != "500MB" {
		t.Errorf("MaxBodySize = %q", cfg.MaxBodySize)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Port: 70000}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}
	cfg = Config{Port: 8080, ReadTimeout: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative read timeout")
	}
}

func TestHealthEndpointDegrades(t *testing.T) {
	s := newTestServer(t)
	s.RegisterDefaultEndpoints("skellysubs",
		NamedChecker{Name: "transcoder", Checker: staticChecker{observability.Health{
			Name:   "transcoder",
			Status: observability.HealthStatusUp,
		}}},
		NamedChecker{Name: "transcription", Checker: staticChecker{observability.Health{
			Name:    "transcription",
			Status:  observability.HealthStatusDown,
			Message: "connection refused",
		}}},
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.GinEngine().ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var sh observability.ServiceHealth
	if err := json.Unmarshal(w.Body.Bytes(), &sh); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sh.Status != observability.HealthStatusDown {
		t.Errorf("overall status = %q, want down", sh.Status)
	}
	if len(sh.Components) != 2 {
		t.Errorf("components = %d, want 2", len(sh.Components))
	}
}

func TestVersionEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.RegisterDefaultEndpoints("skellysubs")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	s.GinEngine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := body["version"]; !ok {
		t.Error("response missing version field")
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)
	s.ApplyMiddleware()
	s.GinEngine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	s.GinEngine().ServeHTTP(w, req)

	if w.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header to be set")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "given-id")
	s.GinEngine().ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "given-id" {
		t.Errorf("X-Request-Id = %q, want given-id", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	s.ApplyMiddleware()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/anything", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	s.GinEngine().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer(t)
	s.ApplyMiddleware()
	s.GinEngine().GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	s.GinEngine().ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestRespondWithErrorAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/missing", func(c *gin.Context) {
		RespondWithError(c, apperrors.NotFound("stage", "nope"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), string(apperrors.ErrCodeNotFound)) {
		t.Errorf("body missing error code: %s", w.Body.String())
	}
}

func TestRespondOKEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/data", func(c *gin.Context) {
		RespondOK(c, map[string]string{"key": "value"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	engine.ServeHTTP(w, req)

	var resp DataResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok || data["key"] != "value" {
		t.Errorf("data = %#v", resp.Data)
	}
}

func TestStartStop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := Config{Host: "127.0.0.1", Port: 0}
	cfg.ApplyDefaults()
	cfg.Port = 0
	s := New(cfg, logger.NewDefault())

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
