// Package api exposes the processing pipeline over HTTP: media upload,
// stage runs, artifact inspection and download, subtitle record editing,
// and progress streaming over SSE and websocket.
package api

import (
	"os"

	"github.com/gin-gonic/gin"

	"github.com/freemocap/skellysubs/logger"
	"github.com/freemocap/skellysubs/pipeline"
	"github.com/freemocap/skellysubs/session"
	"github.com/freemocap/skellysubs/sse"
	"github.com/freemocap/skellysubs/subtitle"
)

// Config holds API handler configuration.
type Config struct {
	// UploadDir is where uploaded media files are stored. Defaults to the
	// OS temp dir.
	UploadDir string `yaml:"upload_dir" mapstructure:"upload_dir"`
}

// API bundles the handlers serving the pipeline over HTTP.
type API struct {
	engine    *pipeline.Engine
	subtitles *subtitle.Store
	sessions  *session.Store
	hub       *sse.Hub
	uploadDir string
	log       *logger.Logger
}

// New creates the API. The subtitle recorder is subscribed to the pipeline
// engine so completed transcriptions and translations land in the record
// store automatically.
func New(cfg Config, engine *pipeline.Engine, subtitles *subtitle.Store, sessions *session.Store, hub *sse.Hub, log *logger.Logger) *API {
	uploadDir := cfg.UploadDir
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	a := &API{
		engine:    engine,
		subtitles: subtitles,
		sessions:  sessions,
		hub:       hub,
		uploadDir: uploadDir,
		log:       log.WithComponent("api"),
	}
	engine.Subscribe(a.recordSubtitles)
	return a
}

// RegisterRoutes mounts every API route on the Gin engine.
func (a *API) RegisterRoutes(r *gin.Engine) {
	grp := r.Group("/api")
	{
		grp.POST("/upload", a.handleUpload)
		grp.GET("/session", a.handleSession)

		grp.GET("/stages", a.handleListStages)
		grp.GET("/stages/:name", a.handleGetStage)
		grp.POST("/stages/:name/run", a.handleRunStage)

		grp.GET("/artifacts", a.handleListArtifacts)
		grp.GET("/artifacts/:key/download", a.handleDownloadArtifact)

		grp.GET("/subtitles", a.handleListSubtitles)
		grp.GET("/subtitles/:id", a.handleGetSubtitle)
		grp.GET("/subtitles/:id/download", a.handleDownloadSubtitle)
		grp.PATCH("/subtitles/:id", a.handleUpdateSubtitle)
	}

	r.GET("/processing/events/:sessionId", sse.ServeSSE(a.hub))
	r.GET("/websocket/connect/:sessionId", a.handleWebsocket)
}
