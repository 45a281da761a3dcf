// updater.go -- best-effort write of a successful verification.
package store

import (
	"context"
	"errors"
	"fmt"
)

// UpdateStatus describes what happened to the record after a successful verification.
type UpdateStatus int

const (
	Updated UpdateStatus = iota
	NotFound
	Failed
	Skipped // no backend configured
)

func (s UpdateStatus) String() string {
	switch s {
	case Updated:
		return "updated"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// UpdateResult is the outcome of MarkNicknameVerified. It never fails the request;
// callers log it and move on.
type UpdateResult struct {
	Status   UpdateStatus
	RecordID string
	Err      error
}

// MarkNicknameVerified looks up the record for nickname and marks it verified with identity.
// Every failure is folded into the returned UpdateResult instead of an error.
func MarkNicknameVerified(ctx context.Context, rs RecordStore, nickname, identity string) UpdateResult {
	rec, err := rs.FindByNickname(ctx, nickname)
	switch {
	case errors.Is(err, ErrStoreDisabled):
		return UpdateResult{Status: Skipped}
	case errors.Is(err, ErrRecordNotFound):
		return UpdateResult{Status: NotFound}
	case err != nil:
		return UpdateResult{Status: Failed, Err: fmt.Errorf("finding record: %w", err)}
	}

	if err := rs.MarkVerified(ctx, rec.ID, identity); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return UpdateResult{Status: NotFound, RecordID: rec.ID}
		}
		return UpdateResult{Status: Failed, RecordID: rec.ID, Err: fmt.Errorf("updating record %s: %w", rec.ID, err)}
	}
	return UpdateResult{Status: Updated, RecordID: rec.ID}
}
