package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/freemocap/skellysubs/logger"
	"github.com/freemocap/skellysubs/pipeline"
	"github.com/freemocap/skellysubs/sse"
	"github.com/freemocap/skellysubs/stages"
	"github.com/freemocap/skellysubs/util"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross-origin during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebsocket upgrades the connection and streams stage events for the
// session until the client disconnects.
func (a *API) handleWebsocket(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing session id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.log.Warn("Websocket upgrade failed", map[string]interface{}{
			logger.FieldSessionID: sessionID,
			logger.FieldError:     err.Error(),
		})
		return
	}
	defer conn.Close()

	client := sse.NewClient(sessionID + ":" + uuid.NewString())
	a.hub.Register(client)
	defer a.hub.Unregister(client)

	// Drain reads so close frames and errors are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data, open := <-client.Receive():
			if !open {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

// recordSubtitles is the engine listener that captures formatted subtitles
// into the record store when transcription or translation completes.
func (a *API) recordSubtitles(ev pipeline.StageEvent) {
	if ev.Status != pipeline.StatusCompleted {
		return
	}

	state := a.engine.Artifacts()
	base := "transcript"
	if original, err := pipeline.Read(state, stages.PortOriginalFile); err == nil {
		base = util.SanitizeFilename(util.BaseName(original.Name))
	}

	switch ev.Stage {
	case stages.StageTranscription:
		result, err := pipeline.Read(state, stages.PortTranscription)
		if err != nil || len(result.FormattedSubtitles) == 0 {
			return
		}
		if _, err := a.subtitles.AppendFormatted(base, result.Transcript.Language, result.FormattedSubtitles); err != nil {
			a.log.Warn("Failed to store transcription subtitles", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
	case stages.StageTranslation:
		result, err := pipeline.Read(state, stages.PortTranslation)
		if err != nil {
			return
		}
		for lang, formatted := range result.SubtitlesByLanguage {
			if _, err := a.subtitles.AppendFormatted(base+"_"+lang, lang, formatted); err != nil {
				a.log.Warn("Failed to store translation subtitles", map[string]interface{}{
					"language":        lang,
					logger.FieldError: err.Error(),
				})
			}
		}
	}
}
