package api

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/freemocap/skellysubs/errors"
	"github.com/freemocap/skellysubs/logger"
	"github.com/freemocap/skellysubs/server"
	"github.com/freemocap/skellysubs/session"
	"github.com/freemocap/skellysubs/stages"
	"github.com/freemocap/skellysubs/util"
)

// uploadResponse reports the stored file and the stage statuses after the
// readiness cascade triggered by the new artifact.
type uploadResponse struct {
	File   stages.OriginalFile `json:"file"`
	Stages any                 `json:"stages"`
}

// handleUpload accepts a multipart media upload, stores it on disk, and
// writes it into the pipeline as the original-file artifact. Re-uploading
// replaces the previous file wholesale.
func (a *API) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("file", "multipart field \"file\" is required"))
		return
	}

	name := util.SanitizeFilename(fileHeader.Filename)
	dst := filepath.Join(a.uploadDir, uuid.NewString()+"_"+name)
	if err := c.SaveUploadedFile(fileHeader, dst); err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}

	info, err := os.Stat(dst)
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}

	original := stages.OriginalFile{
		Path:     dst,
		Name:     name,
		MIMEType: fileHeader.Header.Get("Content-Type"),
		Size:     info.Size(),
	}
	a.engine.PutArtifact(stages.ArtifactOriginalFile, original)

	a.log.Info("Media uploaded", map[string]interface{}{
		"name":               name,
		"size":               info.Size(),
		logger.FieldArtifact: stages.ArtifactOriginalFile,
	})

	server.RespondCreated(c, uploadResponse{
		File:   original,
		Stages: a.engine.StageStatuses(),
	})
}

// handleSession reports the persistent session ID and the websocket URL a
// client should connect to for live progress.
func (a *API) handleSession(c *gin.Context) {
	id, err := a.sessions.ID()
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	origin := scheme + "://" + c.Request.Host

	wsURL, err := session.WebsocketURL(origin, id)
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}

	server.RespondOK(c, gin.H{
		"session_id":    id,
		"websocket_url": wsURL,
	})
}
