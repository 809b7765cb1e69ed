// Package language loads and validates the static target-language
// configuration document used to drive translation requests.
package language

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/freemocap/skellysubs/errors"
	"github.com/freemocap/skellysubs/validation"
)

// Background holds the descriptive context for a language, sent alongside
// translation requests so the service can romanize and annotate output.
type Background struct {
	FamilyTree          []string `json:"family_tree" validate:"required,min=1"`
	Alphabet            string   `json:"alphabet" validate:"required"`
	SampleText          string   `json:"sample_text" validate:"required"`
	SampleRomanizedText string   `json:"sample_romanized_text,omitempty"`
	WikipediaLinks      []string `json:"wikipedia_links,omitempty" validate:"omitempty,dive,url"`
}

// Config describes one target language.
type Config struct {
	LanguageName       string     `json:"language_name" validate:"required"`
	LanguageCode       string     `json:"language_code" validate:"required"`
	RomanizationMethod string     `json:"romanization_method,omitempty"`
	Background         Background `json:"background" validate:"required"`
}

// Validate checks the config against its schema tags.
func (c Config) Validate() error {
	return validation.Validate(c)
}

// Catalog is the set of configured target languages keyed by lowercase
// language code.
type Catalog struct {
	configs map[string]Config
}

// Load reads a JSON document of language configs keyed by name or code and
// validates every entry.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidInput("path", err.Error())
	}
	return Parse(data)
}

// Parse decodes and validates a language config document.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]Config
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.InvalidInput("document", err.Error())
	}

	catalog := &Catalog{configs: make(map[string]Config, len(raw))}
	for key, cfg := range raw {
		if err := cfg.Validate(); err != nil {
			return nil, errors.InvalidInput("language "+key, err.Error())
		}
		catalog.configs[strings.ToLower(cfg.LanguageCode)] = cfg
	}
	return catalog, nil
}

// Get looks up a language by code, case-insensitive.
func (c *Catalog) Get(code string) (Config, bool) {
	cfg, ok := c.configs[strings.ToLower(code)]
	return cfg, ok
}

// Codes returns the sorted language codes in the catalog.
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.configs))
	for code := range c.configs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Select resolves the requested codes into configs, rejecting unknown codes.
func (c *Catalog) Select(codes []string) (map[string]Config, error) {
	out := make(map[string]Config, len(codes))
	var unknown []string
	for _, code := range codes {
		cfg, ok := c.Get(code)
		if !ok {
			unknown = append(unknown, code)
			continue
		}
		out[strings.ToLower(code)] = cfg
	}
	if len(unknown) > 0 {
		return nil, errors.InvalidInput("target_languages", "unknown language codes: "+strings.Join(unknown, ", "))
	}
	return out, nil
}
