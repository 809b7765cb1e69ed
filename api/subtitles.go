package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/freemocap/skellysubs/errors"
	"github.com/freemocap/skellysubs/server"
	"github.com/freemocap/skellysubs/util"
)

// handleListSubtitles lists stored subtitle records, optionally filtered by
// language with ?language=.
func (a *API) handleListSubtitles(c *gin.Context) {
	if lang := c.Query("language"); lang != "" {
		server.RespondOK(c, a.subtitles.ListByLanguage(lang))
		return
	}
	server.RespondOK(c, a.subtitles.List())
}

// handleGetSubtitle returns one subtitle record by ID.
func (a *API) handleGetSubtitle(c *gin.Context) {
	record, err := a.subtitles.Get(c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, record)
}

// handleDownloadSubtitle serves a record's content as a text download named
// "{name}.{format}".
func (a *API) handleDownloadSubtitle(c *gin.Context) {
	record, err := a.subtitles.Get(c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	filename := util.SanitizeFilename(record.Name) + "." + string(record.Format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(record.Content))
}

type updateSubtitleRequest struct {
	Content string `json:"content"`
}

// handleUpdateSubtitle replaces a record's content with an edited version.
func (a *API) handleUpdateSubtitle(c *gin.Context) {
	var req updateSubtitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}

	record, err := a.subtitles.UpdateContent(c.Param("id"), req.Content)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, record)
}
