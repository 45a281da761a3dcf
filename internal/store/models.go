// models.go -- Shared domain types for the store package.
// Used by every record backend (Airtable, Postgres, Redis).
package store

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned by FindByNickname and MarkVerified when no record matches.
// Callers use errors.Is to distinguish a true miss from a backend failure.
var ErrRecordNotFound = errors.New("record not found")

// ErrStoreDisabled is returned by NopStore when no record backend is configured.
var ErrStoreDisabled = errors.New("record store disabled")

// Field names shared by all backends. Airtable uses them verbatim as column names.
const (
	FieldNickname       = "nickname"
	FieldVerified       = "verified"
	FieldBungieUsername = "bungieUsername"
)

// Record is one application row keyed by nickname.
// ID is backend-specific (Airtable record id, Postgres UUID, Redis key).
type Record struct {
	ID             string
	Nickname       string
	Verified       bool
	BungieUsername string
}

// RecordStore is the external table that holds verification state.
// The service only reads by nickname and updates by id.
type RecordStore interface {
	// FindByNickname returns the first record whose nickname equals nickname exactly.
	// Returns ErrRecordNotFound when nothing matches.
	FindByNickname(ctx context.Context, nickname string) (*Record, error)

	// MarkVerified sets verified=true and stores identity on the record with the given id.
	MarkVerified(ctx context.Context, id, identity string) error

	// CheckHealth reports whether the backend is reachable.
	CheckHealth(ctx context.Context) error
}
