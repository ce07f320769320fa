package models

import (
	"time"

	id "phraseguard/pkg/domain"
)

// Violation is a located occurrence of a regulated phrase in a check's text.
// Range is a character offset span into the text the check was matched on.
type Violation struct {
	ID               id.ViolationID
	CheckID          id.CheckID
	DictionaryItemID *id.DictionaryItemID
	OriginalText     string
	SuggestedText    string
	Reasoning        string
	Range            id.TextRange
	CreatedAt        time.Time
}
