// nop.go -- record backend used when RECORD_STORE=none.
package store

import "context"

// NopStore discards verification results. Every call returns ErrStoreDisabled.
type NopStore struct{}

func (NopStore) FindByNickname(context.Context, string) (*Record, error) {
	return nil, ErrStoreDisabled
}

func (NopStore) MarkVerified(context.Context, string, string) error {
	return ErrStoreDisabled
}

func (NopStore) CheckHealth(context.Context) error {
	return ErrStoreDisabled
}
