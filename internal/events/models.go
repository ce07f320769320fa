// Package events defines the closed set of domain events emitted by the check
// and dictionary aggregates, and the in-process bus that delivers them.
package events

import (
	"time"

	id "phraseguard/pkg/domain"
)

// Name identifies an event kind on the wire and in subscriptions.
type Name string

const (
	NameCheckCreated            Name = "CheckCreated"
	NameCheckProcessingStarted  Name = "CheckProcessingStarted"
	NameViolationDetected       Name = "ViolationDetected"
	NameCheckCompleted          Name = "CheckCompleted"
	NameCheckFailed             Name = "CheckFailed"
	NameCheckCancelled          Name = "CheckCancelled"
	NameDictionaryItemCreated   Name = "DictionaryItemCreated"
	NameDictionaryItemUpdated   Name = "DictionaryItemUpdated"
	NameVectorGenerationStarted Name = "VectorGenerationStarted"
	NameVectorGenerated         Name = "VectorGenerated"
	NameVectorGenerationFailed  Name = "VectorGenerationFailed"
)

// Event is implemented only by the types in this file.
type Event interface {
	EventName() Name
	AggregateID() string
	OccurredAt() time.Time
	sealed()
}

type CheckCreated struct {
	CheckID        id.CheckID        `json:"check_id"`
	UserID         id.UserID         `json:"user_id"`
	OrganizationID id.OrganizationID `json:"organization_id"`
	HasExtracted   bool              `json:"has_extracted_text"`
	At             time.Time         `json:"occurred_at"`
}

type CheckProcessingStarted struct {
	CheckID id.CheckID `json:"check_id"`
	At      time.Time  `json:"occurred_at"`
}

type ViolationDetected struct {
	CheckID          id.CheckID           `json:"check_id"`
	ViolationID      id.ViolationID       `json:"violation_id"`
	DictionaryItemID *id.DictionaryItemID `json:"dictionary_item_id,omitempty"`
	OriginalText     string               `json:"original_text"`
	Start            int                  `json:"start"`
	End              int                  `json:"end"`
	At               time.Time            `json:"occurred_at"`
}

type CheckCompleted struct {
	CheckID        id.CheckID `json:"check_id"`
	ViolationCount int        `json:"violation_count"`
	HasViolations  bool       `json:"has_violations"`
	At             time.Time  `json:"occurred_at"`
}

type CheckFailed struct {
	CheckID id.CheckID `json:"check_id"`
	Message string     `json:"message"`
	At      time.Time  `json:"occurred_at"`
}

type CheckCancelled struct {
	CheckID id.CheckID `json:"check_id"`
	At      time.Time  `json:"occurred_at"`
}

type DictionaryItemCreated struct {
	ItemID         id.DictionaryItemID `json:"item_id"`
	OrganizationID id.OrganizationID   `json:"organization_id"`
	Phrase         string              `json:"phrase"`
	Category       string              `json:"category"`
	At             time.Time           `json:"occurred_at"`
}

type DictionaryItemUpdated struct {
	ItemID            id.DictionaryItemID `json:"item_id"`
	OrganizationID    id.OrganizationID   `json:"organization_id"`
	Phrase            string              `json:"phrase"`
	Category          string              `json:"category"`
	VectorInvalidated bool                `json:"vector_invalidated"`
	At                time.Time           `json:"occurred_at"`
}

type VectorGenerationStarted struct {
	ItemID id.DictionaryItemID `json:"item_id"`
	At     time.Time           `json:"occurred_at"`
}

type VectorGenerated struct {
	ItemID    id.DictionaryItemID `json:"item_id"`
	Dimension int                 `json:"dimension"`
	At        time.Time           `json:"occurred_at"`
}

type VectorGenerationFailed struct {
	ItemID  id.DictionaryItemID `json:"item_id"`
	Message string              `json:"message"`
	At      time.Time           `json:"occurred_at"`
}

func (CheckCreated) EventName() Name            { return NameCheckCreated }
func (CheckProcessingStarted) EventName() Name  { return NameCheckProcessingStarted }
func (ViolationDetected) EventName() Name       { return NameViolationDetected }
func (CheckCompleted) EventName() Name          { return NameCheckCompleted }
func (CheckFailed) EventName() Name             { return NameCheckFailed }
func (CheckCancelled) EventName() Name          { return NameCheckCancelled }
func (DictionaryItemCreated) EventName() Name   { return NameDictionaryItemCreated }
func (DictionaryItemUpdated) EventName() Name   { return NameDictionaryItemUpdated }
func (VectorGenerationStarted) EventName() Name { return NameVectorGenerationStarted }
func (VectorGenerated) EventName() Name         { return NameVectorGenerated }
func (VectorGenerationFailed) EventName() Name  { return NameVectorGenerationFailed }

func (e CheckCreated) AggregateID() string            { return e.CheckID.String() }
func (e CheckProcessingStarted) AggregateID() string  { return e.CheckID.String() }
func (e ViolationDetected) AggregateID() string       { return e.CheckID.String() }
func (e CheckCompleted) AggregateID() string          { return e.CheckID.String() }
func (e CheckFailed) AggregateID() string             { return e.CheckID.String() }
func (e CheckCancelled) AggregateID() string          { return e.CheckID.String() }
func (e DictionaryItemCreated) AggregateID() string   { return e.ItemID.String() }
func (e DictionaryItemUpdated) AggregateID() string   { return e.ItemID.String() }
func (e VectorGenerationStarted) AggregateID() string { return e.ItemID.String() }
func (e VectorGenerated) AggregateID() string         { return e.ItemID.String() }
func (e VectorGenerationFailed) AggregateID() string  { return e.ItemID.String() }

func (e CheckCreated) OccurredAt() time.Time            { return e.At }
func (e CheckProcessingStarted) OccurredAt() time.Time  { return e.At }
func (e ViolationDetected) OccurredAt() time.Time       { return e.At }
func (e CheckCompleted) OccurredAt() time.Time          { return e.At }
func (e CheckFailed) OccurredAt() time.Time             { return e.At }
func (e CheckCancelled) OccurredAt() time.Time          { return e.At }
func (e DictionaryItemCreated) OccurredAt() time.Time   { return e.At }
func (e DictionaryItemUpdated) OccurredAt() time.Time   { return e.At }
func (e VectorGenerationStarted) OccurredAt() time.Time { return e.At }
func (e VectorGenerated) OccurredAt() time.Time         { return e.At }
func (e VectorGenerationFailed) OccurredAt() time.Time  { return e.At }

func (CheckCreated) sealed()            {}
func (CheckProcessingStarted) sealed()  {}
func (ViolationDetected) sealed()       {}
func (CheckCompleted) sealed()          {}
func (CheckFailed) sealed()             {}
func (CheckCancelled) sealed()          {}
func (DictionaryItemCreated) sealed()   {}
func (DictionaryItemUpdated) sealed()   {}
func (VectorGenerationStarted) sealed() {}
func (VectorGenerated) sealed()         {}
func (VectorGenerationFailed) sealed()  {}

// Recorder accumulates events raised by an aggregate until they are pulled
// for publication. Embed it in aggregates.
type Recorder struct {
	pending []Event
}

func (r *Recorder) Record(e Event) {
	r.pending = append(r.pending, e)
}

// PullEvents returns recorded events in emission order and clears the buffer.
func (r *Recorder) PullEvents() []Event {
	out := r.pending
	r.pending = nil
	return out
}

// Pending returns recorded events without clearing them.
func (r *Recorder) Pending() []Event {
	out := make([]Event, len(r.pending))
	copy(out, r.pending)
	return out
}
