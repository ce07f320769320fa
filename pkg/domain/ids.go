package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "phraseguard/pkg/domain-errors"
)

// Typed identifiers keep check, user, organization and dictionary references
// from being swapped at compile time. All are UUIDs underneath.
type (
	CheckID          uuid.UUID
	UserID           uuid.UUID
	OrganizationID   uuid.UUID
	ViolationID      uuid.UUID
	DictionaryItemID uuid.UUID
	EmbeddingJobID   uuid.UUID
)

// maxIDLength bounds input before handing it to the UUID parser.
const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" || len(s) > maxIDLength || strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return u, nil
}

func ParseCheckID(s string) (CheckID, error) {
	u, err := parseUUID("check ID", s)
	return CheckID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user ID", s)
	return UserID(u), err
}

func ParseOrganizationID(s string) (OrganizationID, error) {
	u, err := parseUUID("organization ID", s)
	return OrganizationID(u), err
}

func ParseViolationID(s string) (ViolationID, error) {
	u, err := parseUUID("violation ID", s)
	return ViolationID(u), err
}

func ParseDictionaryItemID(s string) (DictionaryItemID, error) {
	u, err := parseUUID("dictionary item ID", s)
	return DictionaryItemID(u), err
}

func ParseEmbeddingJobID(s string) (EmbeddingJobID, error) {
	u, err := parseUUID("embedding job ID", s)
	return EmbeddingJobID(u), err
}

func (id CheckID) String() string          { return uuid.UUID(id).String() }
func (id UserID) String() string           { return uuid.UUID(id).String() }
func (id OrganizationID) String() string   { return uuid.UUID(id).String() }
func (id ViolationID) String() string      { return uuid.UUID(id).String() }
func (id DictionaryItemID) String() string { return uuid.UUID(id).String() }
func (id EmbeddingJobID) String() string   { return uuid.UUID(id).String() }

func (id CheckID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id OrganizationID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ViolationID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id DictionaryItemID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EmbeddingJobID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.
func (id CheckID) MarshalText() ([]byte, error)          { return uuid.UUID(id).MarshalText() }
func (id UserID) MarshalText() ([]byte, error)           { return uuid.UUID(id).MarshalText() }
func (id OrganizationID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id ViolationID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id DictionaryItemID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id EmbeddingJobID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }

func unmarshalID(dst *uuid.UUID, data []byte) error {
	u, err := uuid.ParseBytes(data)
	if err != nil {
		return err
	}
	*dst = u
	return nil
}

func (id *CheckID) UnmarshalText(data []byte) error          { return unmarshalID((*uuid.UUID)(id), data) }
func (id *UserID) UnmarshalText(data []byte) error           { return unmarshalID((*uuid.UUID)(id), data) }
func (id *OrganizationID) UnmarshalText(data []byte) error   { return unmarshalID((*uuid.UUID)(id), data) }
func (id *ViolationID) UnmarshalText(data []byte) error      { return unmarshalID((*uuid.UUID)(id), data) }
func (id *DictionaryItemID) UnmarshalText(data []byte) error { return unmarshalID((*uuid.UUID)(id), data) }
func (id *EmbeddingJobID) UnmarshalText(data []byte) error   { return unmarshalID((*uuid.UUID)(id), data) }
