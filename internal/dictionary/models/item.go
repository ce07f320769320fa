package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"phraseguard/internal/events"
	id "phraseguard/pkg/domain"
	dErrors "phraseguard/pkg/domain-errors"
)

const (
	MaxPhraseRunes = 200
	MaxNotesRunes  = 2000
)

// Item is the aggregate for one dictionary phrase and its embedding lifecycle.
//
// Vector sub-state: idle -> generating -> idle (with or without a vector).
// A content change clears the stored vector and abandons any generation in
// flight, so a vector computed for the old phrase can no longer be attached.
type Item struct {
	id             id.DictionaryItemID
	organizationID id.OrganizationID
	phrase         string
	category       Category
	notes          string
	vector         id.EmbeddingVector
	generating     bool
	createdAt      time.Time
	updatedAt      time.Time

	recorder events.Recorder
}

type NewItemParams struct {
	ID             id.DictionaryItemID
	OrganizationID id.OrganizationID
	Phrase         string
	Category       Category
	Notes          string
}

func validatePhrase(phrase string) (string, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return "", dErrors.New(dErrors.CodeValidation, "phrase is required")
	}
	if utf8.RuneCountInString(phrase) > MaxPhraseRunes {
		return "", dErrors.New(dErrors.CodeValidation, "phrase is too long")
	}
	return phrase, nil
}

// NewItem creates a dictionary phrase without a vector and records
// DictionaryItemCreated.
func NewItem(p NewItemParams, now time.Time) (*Item, error) {
	if p.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "dictionary item ID is required")
	}
	if p.OrganizationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "organization ID is required")
	}
	phrase, err := validatePhrase(p.Phrase)
	if err != nil {
		return nil, err
	}
	if !p.Category.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "category must be NG or ALLOW")
	}
	if utf8.RuneCountInString(p.Notes) > MaxNotesRunes {
		return nil, dErrors.New(dErrors.CodeValidation, "notes are too long")
	}

	it := &Item{
		id:             p.ID,
		organizationID: p.OrganizationID,
		phrase:         phrase,
		category:       p.Category,
		notes:          p.Notes,
		createdAt:      now,
		updatedAt:      now,
	}
	it.recorder.Record(events.DictionaryItemCreated{
		ItemID:         it.id,
		OrganizationID: it.organizationID,
		Phrase:         it.phrase,
		Category:       string(it.category),
		At:             now,
	})
	return it, nil
}

type RehydrateParams struct {
	NewItemParams
	Vector    id.EmbeddingVector
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Rehydrate rebuilds an item from storage. Generation state is not persisted.
func Rehydrate(p RehydrateParams) *Item {
	return &Item{
		id:             p.ID,
		organizationID: p.OrganizationID,
		phrase:         p.Phrase,
		category:       p.Category,
		notes:          p.Notes,
		vector:         p.Vector,
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
	}
}

func (it *Item) ID() id.DictionaryItemID           { return it.id }
func (it *Item) OrganizationID() id.OrganizationID { return it.organizationID }
func (it *Item) Phrase() string                    { return it.phrase }
func (it *Item) Category() Category                { return it.category }
func (it *Item) Notes() string                     { return it.notes }
func (it *Item) Vector() id.EmbeddingVector        { return it.vector }
func (it *Item) HasVector() bool                   { return !it.vector.IsZero() }
func (it *Item) IsGenerating() bool                { return it.generating }
func (it *Item) CreatedAt() time.Time              { return it.createdAt }
func (it *Item) UpdatedAt() time.Time              { return it.updatedAt }
func (it *Item) PullEvents() []events.Event        { return it.recorder.PullEvents() }

// StartVectorGeneration marks the item as generating.
func (it *Item) StartVectorGeneration(now time.Time) error {
	if it.generating {
		return dErrors.New(dErrors.CodeInvariantViolation, "vector generation already in progress")
	}
	it.generating = true
	it.recorder.Record(events.VectorGenerationStarted{ItemID: it.id, At: now})
	return nil
}

// SetVector validates and stores values. Requires a generation in progress.
// On a validation error the item stays generating.
func (it *Item) SetVector(values []float32, now time.Time) error {
	if !it.generating {
		return dErrors.New(dErrors.CodeInvariantViolation, "vector generation was not started")
	}
	vec, err := id.NewEmbeddingVector(values)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid embedding")
	}
	it.vector = vec
	it.generating = false
	it.updatedAt = now
	it.recorder.Record(events.VectorGenerated{ItemID: it.id, Dimension: vec.Dimension(), At: now})
	return nil
}

// FailVectorGeneration ends a generation without storing a vector.
func (it *Item) FailVectorGeneration(message string, now time.Time) error {
	if !it.generating {
		return dErrors.New(dErrors.CodeInvariantViolation, "vector generation was not started")
	}
	it.generating = false
	it.recorder.Record(events.VectorGenerationFailed{ItemID: it.id, Message: message, At: now})
	return nil
}

// UpdateContent applies a new phrase and/or category. Nil arguments keep the
// current value. Returns false without recording anything when nothing changed.
func (it *Item) UpdateContent(phrase *string, category *Category, now time.Time) (bool, error) {
	newPhrase := it.phrase
	if phrase != nil {
		p, err := validatePhrase(*phrase)
		if err != nil {
			return false, err
		}
		newPhrase = p
	}
	newCategory := it.category
	if category != nil {
		if !category.IsValid() {
			return false, dErrors.New(dErrors.CodeValidation, "category must be NG or ALLOW")
		}
		newCategory = *category
	}
	if newPhrase == it.phrase && newCategory == it.category {
		return false, nil
	}

	it.phrase = newPhrase
	it.category = newCategory
	it.vector = id.EmbeddingVector{}
	it.generating = false
	it.updatedAt = now
	it.recorder.Record(events.DictionaryItemUpdated{
		ItemID:            it.id,
		OrganizationID:    it.organizationID,
		Phrase:            it.phrase,
		Category:          string(it.category),
		VectorInvalidated: true,
		At:                now,
	})
	return true, nil
}
