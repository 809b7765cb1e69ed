// Package stages declares the canonical three-stage pipeline: file
// preparation (audio extraction), transcription, and translation, each bound
// to its collaborator behind an interface.
package stages

import (
	"context"

	"github.com/freemocap/skellysubs/errors"
	"github.com/freemocap/skellysubs/language"
	"github.com/freemocap/skellysubs/pipeline"
	"github.com/freemocap/skellysubs/transcoder"
	"github.com/freemocap/skellysubs/transcription"
	"github.com/freemocap/skellysubs/translation"
)

// Artifact keys in the pipeline state.
const (
	ArtifactOriginalFile  = "originalFile"
	ArtifactMP3Audio      = "mp3Audio"
	ArtifactTranscription = "transcription"
	ArtifactTranslation   = "translation"
)

// Stage names.
const (
	StageFilePreparation = "filePreparation"
	StageTranscription   = "transcription"
	StageTranslation     = "translation"
)

// OriginalFile is the uploaded media artifact, written externally via
// Engine.PutArtifact when an upload lands.
type OriginalFile struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Typed ports over the artifact store.
var (
	PortOriginalFile  = pipeline.Port[OriginalFile]{Key: ArtifactOriginalFile}
	PortMP3Audio      = pipeline.Port[*transcoder.AudioExtract]{Key: ArtifactMP3Audio}
	PortTranscription = pipeline.Port[*transcription.Result]{Key: ArtifactTranscription}
	PortTranslation   = pipeline.Port[*translation.Result]{Key: ArtifactTranslation}
)

// PrepareInput is the filePreparation run input. Path optionally overrides
// the uploaded file's location.
type PrepareInput struct {
	Path string `json:"path,omitempty"`
}

// TranscribeInput is the transcription run input.
type TranscribeInput struct {
	Language string `json:"language,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
}

// TranslateInput is the translation run input.
type TranslateInput struct {
	TargetLanguages []string `json:"target_languages" validate:"required,min=1"`
}

// FilePreparation builds the stage that extracts mp3 audio from the
// uploaded media.
func FilePreparation(tc transcoder.Transcoder) *pipeline.Stage {
	return pipeline.NewStage(pipeline.StageConfig[PrepareInput, *transcoder.AudioExtract]{
		Name:     StageFilePreparation,
		Requires: []string{ArtifactOriginalFile},
		Produces: ArtifactMP3Audio,
		Process: func(ctx context.Context, input PrepareInput, artifacts *pipeline.State) (*transcoder.AudioExtract, error) {
			path := input.Path
			if path == "" {
				original, err := pipeline.Read(artifacts, PortOriginalFile)
				if err != nil {
					return nil, err
				}
				path = original.Path
			}
			return tc.ExtractAudio(ctx, path)
		},
	})
}

// Transcription builds the stage that sends the extracted audio to the
// transcription service.
func Transcription(provider transcription.Provider) *pipeline.Stage {
	return pipeline.NewStage(pipeline.StageConfig[TranscribeInput, *transcription.Result]{
		Name:     StageTranscription,
		Requires: []string{ArtifactMP3Audio},
		Produces: ArtifactTranscription,
		Process: func(ctx context.Context, input TranscribeInput, artifacts *pipeline.State) (*transcription.Result, error) {
			audio, err := pipeline.Read(artifacts, PortMP3Audio)
			if err != nil {
				return nil, err
			}
			return provider.Transcribe(ctx, transcription.Request{
				AudioPath: audio.Path,
				AudioName: audio.Name,
				MIMEType:  audio.MIMEType,
				Language:  input.Language,
				Prompt:    input.Prompt,
			})
		},
	})
}

// Translation builds the stage that translates the transcript into the
// requested target languages.
func Translation(provider translation.Provider, catalog *language.Catalog) *pipeline.Stage {
	return pipeline.NewStage(pipeline.StageConfig[TranslateInput, *translation.Result]{
		Name:     StageTranslation,
		Requires: []string{ArtifactTranscription},
		Produces: ArtifactTranslation,
		Process: func(ctx context.Context, input TranslateInput, artifacts *pipeline.State) (*translation.Result, error) {
			if len(input.TargetLanguages) == 0 {
				return nil, errors.InvalidInput("target_languages", "at least one target language is required")
			}
			targets, err := catalog.Select(input.TargetLanguages)
			if err != nil {
				return nil, err
			}
			transcript, err := pipeline.Read(artifacts, PortTranscription)
			if err != nil {
				return nil, err
			}
			return provider.TranslateTranscript(ctx, translation.Request{
				Transcript:      transcript.Transcript,
				TargetLanguages: targets,
			})
		},
	})
}

// NewRegistry assembles the canonical pipeline registry with the given
// collaborators and middleware applied to every stage.
func NewRegistry(tc transcoder.Transcoder, tp transcription.Provider, tl translation.Provider, catalog *language.Catalog, mw ...pipeline.Middleware) (*pipeline.Registry, error) {
	registry := pipeline.NewRegistry()
	for _, stage := range []*pipeline.Stage{
		FilePreparation(tc).Use(mw...),
		Transcription(tp).Use(mw...),
		Translation(tl, catalog).Use(mw...),
	} {
		if err := registry.Register(stage); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
