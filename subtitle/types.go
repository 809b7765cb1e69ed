// Package subtitle implements the WebVTT cue parser, the SRT to VTT text
// converter, the playback-time sync engine, and the subtitle record store.
package subtitle

import "fmt"

// Cue is a single subtitle cue: a time range in seconds and its text lines.
// Cues are produced in file order and assumed, not verified, to be
// non-overlapping and time-ordered. Start and End are NaN for cues whose
// timing line failed to parse.
type Cue struct {
	Start float64  `json:"start"`
	End   float64  `json:"end"`
	Text  []string `json:"text"`
}

// Variant identifies which rendering of the transcript a record holds.
type Variant string

const (
	VariantOriginalSpoken              Variant = "original_spoken"
	VariantTranslationOnly             Variant = "translation_only"
	VariantTranslationWithRomanization Variant = "translation_with_romanization"
	VariantMultiLanguage               Variant = "multi_language"
)

// Format is the textual subtitle format of a record.
type Format string

const (
	FormatSRT Format = "srt"
	FormatMD  Format = "md"
	FormatVTT Format = "vtt"
	FormatSSA Format = "ssa"
)

var validVariants = map[Variant]bool{
	VariantOriginalSpoken:              true,
	VariantTranslationOnly:             true,
	VariantTranslationWithRomanization: true,
	VariantMultiLanguage:               true,
}

var validFormats = map[Format]bool{
	FormatSRT: true,
	FormatMD:  true,
	FormatVTT: true,
	FormatSSA: true,
}

// Valid reports whether the variant is one of the known renderings.
func (v Variant) Valid() bool { return validVariants[v] }

// Valid reports whether the format is one of the known formats.
func (f Format) Valid() bool { return validFormats[f] }

// Record is a stored subtitle artifact. Records are appended when a
// transcription or translation response arrives, mutated in place only by
// explicit user edits, and never deleted by the pipeline.
type Record struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Variant  Variant `json:"variant"`
	Format   Format  `json:"format"`
	Language string  `json:"language"`
	Content  string  `json:"content"`
}

// Validate checks the record's variant and format.
func (r Record) Validate() error {
	if !r.Variant.Valid() {
		return fmt.Errorf("subtitle: unknown variant %q", r.Variant)
	}
	if !r.Format.Valid() {
		return fmt.Errorf("subtitle: unknown format %q", r.Format)
	}
	return nil
}
