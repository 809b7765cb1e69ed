package subtitle

import (
	"sync"

	"github.com/google/uuid"

	"github.com/freemocap/skellysubs/errors"
)

// Store holds subtitle records in arrival order. The pipeline only appends;
// content changes come exclusively from explicit user edits.
type Store struct {
	mu      sync.RWMutex
	records []Record
	byID    map[string]int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

// Append adds a record, assigning an ID if absent, and returns the stored
// record.
func (s *Store) Append(r Record) (Record, error) {
	if err := r.Validate(); err != nil {
		return Record{}, errors.InvalidInput("record", err.Error())
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[r.ID]; exists {
		return Record{}, errors.Conflict("subtitle record " + r.ID + " already exists")
	}
	s.byID[r.ID] = len(s.records)
	s.records = append(s.records, r)
	return r, nil
}

// AppendFormatted appends one record per format/variant pair from a service
// response's formatted-subtitles mapping. Records are named
// "{name}_{variant}".
func (s *Store) AppendFormatted(name, language string, formatted map[Format]map[Variant]string) ([]Record, error) {
	var out []Record
	for _, format := range []Format{FormatSRT, FormatMD, FormatVTT, FormatSSA} {
		variants, ok := formatted[format]
		if !ok {
			continue
		}
		for _, variant := range []Variant{VariantOriginalSpoken, VariantTranslationOnly, VariantTranslationWithRomanization, VariantMultiLanguage} {
			content, ok := variants[variant]
			if !ok {
				continue
			}
			r, err := s.Append(Record{
				Name:     name + "_" + string(variant),
				Variant:  variant,
				Format:   format,
				Language: language,
				Content:  content,
			})
			if err != nil {
				return out, err
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// Get retrieves a record by ID.
func (s *Store) Get(id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return Record{}, errors.NotFound("subtitle record", id)
	}
	return s.records[idx], nil
}

// List returns all records in arrival order.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// ListByLanguage returns records for one language, in arrival order.
func (s *Store) ListByLanguage(language string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if r.Language == language {
			out = append(out, r)
		}
	}
	return out
}

// UpdateContent replaces a record's content in place. This is the user-edit
// path; everything else about the record is immutable.
func (s *Store) UpdateContent(id, content string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return Record{}, errors.NotFound("subtitle record", id)
	}
	s.records[idx].Content = content
	return s.records[idx], nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
