// Command skellysubs runs the media transcription and translation service:
// it accepts media uploads, extracts audio with ffmpeg, sends it through the
// transcription and translation processing services, and serves subtitle
// records and live pipeline progress over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freemocap/skellysubs/api"
	"github.com/freemocap/skellysubs/config"
	"github.com/freemocap/skellysubs/language"
	"github.com/freemocap/skellysubs/logger"
	"github.com/freemocap/skellysubs/observability"
	"github.com/freemocap/skellysubs/pipeline"
	"github.com/freemocap/skellysubs/server"
	"github.com/freemocap/skellysubs/session"
	"github.com/freemocap/skellysubs/sse"
	"github.com/freemocap/skellysubs/stages"
	"github.com/freemocap/skellysubs/subtitle"
	"github.com/freemocap/skellysubs/transcoder"
	"github.com/freemocap/skellysubs/transcription"
	"github.com/freemocap/skellysubs/translation"
	"github.com/freemocap/skellysubs/version"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		logger.Error("Failed to load configuration", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	log := logger.New(&cfg.Logging, config.ServiceName)
	logger.SetGlobalLogger(log)

	log.Info("Starting skellysubs", map[string]interface{}{
		"version":     version.GetShortVersion(),
		"environment": cfg.Environment,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal("Service failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func run(cfg *config.AppConfig, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry is optional; the pipeline runs fine without an OTLP endpoint.
	var metrics *observability.Metrics
	if cfg.Observability.Enabled {
		tp, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName:    config.ServiceName,
			ServiceVersion: version.GetShortVersion(),
			Environment:    cfg.Environment,
			Endpoint:       cfg.Observability.Endpoint,
			Insecure:       cfg.Observability.Insecure,
			SampleRate:     cfg.Observability.SampleRate,
		})
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()

		mp, err := observability.InitMeter(ctx, observability.MeterConfig{
			ServiceName:    config.ServiceName,
			ServiceVersion: version.GetShortVersion(),
			Environment:    cfg.Environment,
			Endpoint:       cfg.Observability.Endpoint,
			Insecure:       cfg.Observability.Insecure,
			Interval:       cfg.Observability.Interval,
		})
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mp.Shutdown(shutdownCtx)
		}()

		metrics, err = observability.NewMetrics(observability.Meter(config.ServiceName))
		if err != nil {
			return err
		}
	}

	// Collaborators behind the pipeline stages.
	ffmpeg := transcoder.NewFFmpeg(cfg.Transcoder, log)
	transcriber, err := transcription.NewClient(cfg.Transcription, log)
	if err != nil {
		return err
	}
	translator, err := translation.NewClient(cfg.Translation, log)
	if err != nil {
		return err
	}
	catalog, err := language.Load(cfg.LanguagesFile)
	if err != nil {
		return err
	}
	log.Info("Language catalog loaded", map[string]interface{}{
		"languages": len(catalog.Codes()),
	})

	middleware := []pipeline.Middleware{pipeline.WithLogging(log)}
	if metrics != nil {
		middleware = append(middleware,
			pipeline.WithTracing(config.ServiceName),
			pipeline.WithMetrics(metrics),
		)
	}

	registry, err := stages.NewRegistry(ffmpeg, transcriber, translator, catalog, middleware...)
	if err != nil {
		return err
	}
	engine, err := pipeline.NewEngine(registry, log, stages.ArtifactOriginalFile)
	if err != nil {
		return err
	}
	defer engine.Close()

	// Session identity and event fan-out.
	sessions := session.NewStore(cfg.SessionFile)
	sessionID, err := sessions.ID()
	if err != nil {
		return err
	}
	hub := sse.NewHub(log)
	go hub.Run()
	defer hub.Stop()

	engine.Subscribe(sse.NewPublisher(sessionID, hub, log).Listener())

	// HTTP surface.
	srv := server.New(cfg.Server, log)
	if metrics != nil {
		srv.GinEngine().Use(server.RequestMetrics(metrics))
	}
	srv.ApplyDefaults(config.ServiceName,
		server.NamedChecker{Name: "transcoder", Checker: ffmpeg},
		server.NamedChecker{Name: "transcription", Checker: transcriber},
		server.NamedChecker{Name: "translation", Checker: translator},
	)

	handlers := api.New(cfg.API, engine, subtitle.NewStore(), sessions, hub, log)
	handlers.RegisterRoutes(srv.GinEngine())

	if err := srv.Start(ctx); err != nil {
		return err
	}

	log.Info("Service ready", map[string]interface{}{
		"addr":                srv.Addr(),
		logger.FieldSessionID: sessionID,
	})

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
