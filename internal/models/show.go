package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Show contains the data and metadata for a Calchart show.
//
// The show data is a JSON document produced by the client editor. A show
// without a document has been created but not yet set up, and cannot be
// published or exported.
type Show struct {
	base

	name      string
	slug      string
	ownerID   string
	published bool
	band      bool
	data      []byte
	dateAdded time.Time
}

// showDocument is the subset of the data document mirrored into columns.
type showDocument struct {
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	IsBand    bool   `json:"isBand"`
	Published bool   `json:"published"`
}

// NewShow creates a show with the given name, owned by the given user.
func NewShow(sequence int, name, ownerID string, isBand bool) *Show {
	return &Show{
		base:      newBase(sequence),
		name:      name,
		ownerID:   ownerID,
		band:      isBand,
		dateAdded: time.Now(),
	}
}

func (s *Show) Name() string             { return s.name }
func (s *Show) SetName(name string)      { s.name = name }
func (s *Show) Slug() string             { return s.slug }
func (s *Show) SetSlug(slug string)      { s.slug = slug }
func (s *Show) OwnerID() string          { return s.ownerID }
func (s *Show) Published() bool          { return s.published }
func (s *Show) SetPublished(p bool)      { s.published = p }
func (s *Show) IsBand() bool             { return s.band }
func (s *Show) SetBand(b bool)           { s.band = b }
func (s *Show) DateAdded() time.Time     { return s.dateAdded }
func (s *Show) SetDateAdded(t time.Time) { s.dateAdded = t }

// Data returns the stored JSON document, or nil if the show is not set up.
func (s *Show) Data() []byte { return s.data }

// SetRawData sets the document bytes without syncing metadata, used when
// loading from storage.
func (s *Show) SetRawData(data []byte) { s.data = data }

// IsInitialized reports whether the show has a data document.
func (s *Show) IsInitialized() bool { return len(s.data) > 0 }

// ApplyData stores the given JSON document as the show data and syncs the
// show's metadata (slug, name, band and published flags) from it.
func (s *Show) ApplyData(data []byte) error {
	var doc showDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid show data: %w", err)
	}

	s.slug = doc.Slug
	s.name = doc.Name
	s.band = doc.IsBand
	s.published = doc.Published
	s.data = data

	return nil
}

// Document decodes the stored data into a generic JSON object.
func (s *Show) Document() (map[string]any, error) {
	if !s.IsInitialized() {
		return nil, fmt.Errorf("show %q has no data", s.slug)
	}

	var doc map[string]any
	if err := json.Unmarshal(s.data, &doc); err != nil {
		return nil, fmt.Errorf("corrupt show data for %q: %w", s.slug, err)
	}
	return doc, nil
}

// Validate checks that the show has a name and an owner.
func (s *Show) Validate() error {
	if s.name == "" {
		return fmt.Errorf("show name is required")
	}
	if s.ownerID == "" {
		return fmt.Errorf("show owner is required")
	}
	return nil
}
