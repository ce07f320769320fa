package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and adapters return these
// (optionally wrapped) so services can translate them into domain errors.
//
// - ErrNotFound: entity does not exist in store
// - ErrConflict: write raced with another writer
// - ErrUnavailable: dependency temporarily unavailable (database, model server, broker)
//
// For validation errors use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
