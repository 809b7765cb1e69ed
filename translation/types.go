// Package translation defines the provider interface and REST client for the
// transcript-translation processing service.
package translation

import (
	"github.com/freemocap/skellysubs/language"
	"github.com/freemocap/skellysubs/subtitle"
	"github.com/freemocap/skellysubs/transcription"
)

// Request is the translate-transcript call: the verbose transcript plus the
// target languages keyed by language code.
type Request struct {
	Transcript      transcription.Transcript   `json:"transcript"`
	TargetLanguages map[string]language.Config `json:"target_languages"`
}

// TranslatedText is one language's rendering of the original text.
type TranslatedText struct {
	TranslatedText         string `json:"translated_text"`
	RomanizedText          string `json:"romanized_text,omitempty"`
	TranslatedLanguageName string `json:"translated_language_name"`
	RomanizationMethod     string `json:"romanization_method,omitempty"`
}

// MatchedWord pairs an original word with its translated counterpart.
type MatchedWord struct {
	OriginalWord   string  `json:"original_word"`
	TranslatedWord string  `json:"translated_word"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
}

// TranscriptSegment is a time-aligned segment with per-language translations
// and word matches.
type TranscriptSegment struct {
	ID           int                       `json:"id"`
	Start        float64                   `json:"start"`
	End          float64                   `json:"end"`
	OriginalText string                    `json:"original_text"`
	Translations map[string]TranslatedText `json:"translations,omitempty"`
	MatchedWords map[string][]MatchedWord  `json:"matched_words,omitempty"`
}

// Result is the translation service response: full-text translations per
// language, translated segments, and pre-formatted subtitle variants keyed
// by language, format, and variant.
type Result struct {
	OriginalText        string                                                     `json:"original_text"`
	OriginalLanguage    string                                                     `json:"original_language"`
	Translations        map[string]TranslatedText                                  `json:"translations"`
	Segments            []TranscriptSegment                                        `json:"segments,omitempty"`
	SubtitlesByLanguage map[string]map[subtitle.Format]map[subtitle.Variant]string `json:"subtitles_by_language,omitempty"`
}
