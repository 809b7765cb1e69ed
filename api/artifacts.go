package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/freemocap/skellysubs/errors"
	"github.com/freemocap/skellysubs/pipeline"
	"github.com/freemocap/skellysubs/server"
	"github.com/freemocap/skellysubs/stages"
	"github.com/freemocap/skellysubs/util"
)

// handleListArtifacts reports which artifacts currently exist.
func (a *API) handleListArtifacts(c *gin.Context) {
	server.RespondOK(c, gin.H{
		"artifacts": a.engine.Artifacts().Keys(),
	})
}

// handleDownloadArtifact serves an artifact as a file download named
// "{originalName}_{artifact}.{ext}". Transcription and translation results
// download as JSON; the extracted audio downloads as the mp3 itself.
func (a *API) handleDownloadArtifact(c *gin.Context) {
	key := c.Param("key")
	state := a.engine.Artifacts()
	if !state.Has(key) {
		server.RespondWithError(c, apperrors.NotFound("artifact", key))
		return
	}

	base := "file"
	if original, err := pipeline.Read(state, stages.PortOriginalFile); err == nil {
		base = util.SanitizeFilename(util.BaseName(original.Name))
	}

	switch key {
	case stages.ArtifactOriginalFile:
		original, err := pipeline.Read(state, stages.PortOriginalFile)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		c.FileAttachment(original.Path, original.Name)
	case stages.ArtifactMP3Audio:
		audio, err := pipeline.Read(state, stages.PortMP3Audio)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		c.FileAttachment(audio.Path, base+"_"+key+".mp3")
	case stages.ArtifactTranscription:
		result, err := pipeline.Read(state, stages.PortTranscription)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		serveJSONDownload(c, base+"_"+key+".json", result)
	case stages.ArtifactTranslation:
		result, err := pipeline.Read(state, stages.PortTranslation)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		serveJSONDownload(c, base+"_"+key+".json", result)
	default:
		server.RespondWithError(c, apperrors.NotFound("artifact", key))
	}
}

func serveJSONDownload(c *gin.Context, filename string, payload any) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json", data)
}
