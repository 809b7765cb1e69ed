package api

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"

	apperrors "github.com/freemocap/skellysubs/errors"
	"github.com/freemocap/skellysubs/server"
	"github.com/freemocap/skellysubs/stages"
	"github.com/freemocap/skellysubs/validation"
)

// handleListStages reports every stage's status, requirements, and missing
// artifacts.
func (a *API) handleListStages(c *gin.Context) {
	server.RespondOK(c, a.engine.StageStatuses())
}

// handleGetStage reports a single stage's status.
func (a *API) handleGetStage(c *gin.Context) {
	status, err := a.engine.StageStatusByName(c.Param("name"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, status)
}

// handleRunStage decodes the stage-specific input from the request body and
// runs the stage to completion. Progress is observable over SSE and
// websocket while the request is in flight; the response carries the final
// stage status.
func (a *API) handleRunStage(c *gin.Context) {
	name := c.Param("name")

	input, err := decodeRunInput(name, c.Request.Body)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	if err := a.engine.RunStage(c.Request.Context(), name, input); err != nil {
		server.RespondWithError(c, err)
		return
	}

	status, err := a.engine.StageStatusByName(name)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, status)
}

// decodeRunInput maps a stage name to its typed run input. An empty body is
// allowed for stages whose input is entirely optional.
func decodeRunInput(name string, body io.Reader) (any, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.InvalidInput("body", err.Error())
	}

	switch name {
	case stages.StageFilePreparation:
		var input stages.PrepareInput
		if err := decodeOptional(raw, &input); err != nil {
			return nil, err
		}
		return input, nil
	case stages.StageTranscription:
		var input stages.TranscribeInput
		if err := decodeOptional(raw, &input); err != nil {
			return nil, err
		}
		return input, nil
	case stages.StageTranslation:
		var input stages.TranslateInput
		if len(raw) == 0 {
			return nil, apperrors.InvalidInput("target_languages", "request body is required")
		}
		if err := json.Unmarshal(raw, &input); err != nil {
			return nil, apperrors.InvalidInput("body", err.Error())
		}
		if err := validation.Validate(input); err != nil {
			return nil, err
		}
		return input, nil
	default:
		return nil, apperrors.NotFound("stage", name)
	}
}

func decodeOptional(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.InvalidInput("body", err.Error())
	}
	return nil
}
