package language_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/freemocap/skellysubs/language"
)

const fixture = `{
	"spanish": {
		"language_name": "Spanish",
		"language_code": "es",
		"background": {
			"family_tree": ["Indo-European", "Romance"],
			"alphabet": "Latin",
			"sample_text": "Hola mundo"
		}
	},
	"japanese": {
		"language_name": "Japanese",
		"language_code": "JA",
		"romanization_method": "hepburn",
		"background": {
			"family_tree": ["Japonic"],
			"alphabet": "Kanji/Kana",
			"sample_text": "こんにちは",
			"sample_romanized_text": "konnichiwa",
			"wikipedia_links": ["https://en.wikipedia.org/wiki/Japanese_language"]
		}
	}
}`

func TestParseAndLookup(t *testing.T) {
	catalog, err := language.Parse([]byte(fixture))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	codes := catalog.Codes()
	if len(codes) != 2 || codes[0] != "es" || codes[1] != "ja" {
		t.Fatalf("expected [es ja], got %v", codes)
	}

	// Lookup is case-insensitive and keyed by code, not document key.
	cfg, ok := catalog.Get("JA")
	if !ok || cfg.LanguageName != "Japanese" {
		t.Fatalf("expected Japanese, got %+v (ok=%v)", cfg, ok)
	}
	if cfg.RomanizationMethod != "hepburn" {
		t.Fatalf("expected hepburn, got %q", cfg.RomanizationMethod)
	}
}

func TestParseRejectsInvalidEntry(t *testing.T) {
	bad := `{"x": {"language_name": "", "language_code": "xx",
		"background": {"family_tree": ["a"], "alphabet": "A", "sample_text": "s"}}}`
	if _, err := language.Parse([]byte(bad)); err == nil {
		t.Fatal("missing language_name should fail validation")
	}

	if _, err := language.Parse([]byte("{not json")); err == nil {
		t.Fatal("malformed JSON should fail")
	}
}

func TestSelect(t *testing.T) {
	catalog, err := language.Parse([]byte(fixture))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	selected, err := catalog.Select([]string{"es", "JA"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(selected) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(selected))
	}
	if _, ok := selected["ja"]; !ok {
		t.Fatal("selection keys should be lowercase codes")
	}

	if _, err := catalog.Select([]string{"es", "klingon"}); err == nil {
		t.Fatal("unknown code should be rejected")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.json")
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	catalog, err := language.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := catalog.Get("es"); !ok {
		t.Fatal("es should be present")
	}

	if _, err := language.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file should error")
	}
}
