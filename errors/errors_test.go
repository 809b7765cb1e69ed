package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMissingRequirements(t *testing.T) {
	err := MissingRequirements("transcription", []string{"mp3Audio"})

	if err.Code != ErrCodeMissingRequirements {
		t.Errorf("expected code %s, got %s", ErrCodeMissingRequirements, err.Code)
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("missing requirements must not be retryable")
	}
	missing, ok := err.Details["missing"].([]string)
	if !ok || len(missing) != 1 || missing[0] != "mp3Audio" {
		t.Errorf("unexpected missing detail: %v", err.Details["missing"])
	}
}

func TestProcessorFailure_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := ProcessorFailure("translation", cause)

	if !stderrors.Is(err, cause) {
		t.Error("ProcessorFailure should unwrap to its cause")
	}
	if !err.Retryable {
		t.Error("processor failures are retryable")
	}
}

func TestStageConflict(t *testing.T) {
	err := StageConflict("filePreparation")
	if err.Code != ErrCodeStageConflict {
		t.Errorf("expected %s, got %s", ErrCodeStageConflict, err.Code)
	}
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("expected 409, got %d", err.HTTPStatus)
	}
}

func TestAsAppError(t *testing.T) {
	inner := NotFound("stage", "bogus")
	wrapped := fmt.Errorf("handler: %w", inner)

	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError through wrapping")
	}
	if appErr.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", appErr.Code)
	}

	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("plain error must not convert")
	}
}

func TestToResponse(t *testing.T) {
	err := Timeout("transcribe").WithDetail("endpoint", "/processing/transcribe")
	resp := err.ToResponse()

	if resp.Error.Code != ErrCodeTimeout {
		t.Errorf("unexpected code %s", resp.Error.Code)
	}
	if !resp.Error.Retryable {
		t.Error("timeout should be retryable")
	}
	if resp.Error.Details["endpoint"] != "/processing/transcribe" {
		t.Errorf("detail lost: %v", resp.Error.Details)
	}
}

func TestIsRetryableCode(t *testing.T) {
	if IsRetryableCode(ErrCodeInvalidInput) {
		t.Error("INVALID_INPUT is not retryable")
	}
	if !IsRetryableCode(ErrCodeConnectionFailed) {
		t.Error("CONNECTION_FAILED is retryable")
	}
}
