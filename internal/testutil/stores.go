// stores.go
//
// Shared mock implementations of store.RecordStore and the identity provider.
// Imported by test files across packages to avoid duplicate mock definitions.
package testutil

import (
	"context"
	"sync"

	"github.com/MGallo-Code/bungie-verify/internal/oauth"
	"github.com/MGallo-Code/bungie-verify/internal/store"
)

// MockRecordStore implements store.RecordStore for tests.
// Records are keyed by nickname; lookups are exact (case-sensitive) like the real backends.
// Use *Err fields to inject errors for specific operations.
type MockRecordStore struct {
	FindErr   error
	MarkErr   error
	HealthErr error

	Records map[string]*store.Record // keyed by nickname

	FindCalls int
	MarkCalls int

	mu sync.Mutex
}

// NewMockRecordStore returns a MockRecordStore seeded with records, indexed by nickname.
func NewMockRecordStore(records ...*store.Record) *MockRecordStore {
	m := &MockRecordStore{Records: make(map[string]*store.Record)}
	for _, r := range records {
		m.Records[r.Nickname] = r
	}
	return m
}

func (m *MockRecordStore) FindByNickname(_ context.Context, nickname string) (*store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	r, ok := m.Records[nickname]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRecordStore) MarkVerified(_ context.Context, id, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkCalls++
	if m.MarkErr != nil {
		return m.MarkErr
	}
	for _, r := range m.Records {
		if r.ID == id {
			r.Verified = true
			r.BungieUsername = identity
			return nil
		}
	}
	return store.ErrRecordNotFound
}

func (m *MockRecordStore) CheckHealth(context.Context) error {
	return m.HealthErr
}

// Record returns a copy of the record for nickname, or nil.
func (m *MockRecordStore) Record(nickname string) *store.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Records[nickname]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

// MockProvider implements the identity provider used by verify.Verifier.
// Token and Identity are returned as-is; *Err fields short-circuit each step.
type MockProvider struct {
	AuthURL     string
	Token       string
	Identity    *oauth.Identity
	ExchangeErr error
	UserErr     error

	ExchangeCalls int
	UserCalls     int
	LastCode      string
	LastToken     string

	mu sync.Mutex
}

func (m *MockProvider) AuthCodeURL(state string) string {
	return m.AuthURL + "?state=" + state
}

func (m *MockProvider) Exchange(_ context.Context, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExchangeCalls++
	m.LastCode = code
	if m.ExchangeErr != nil {
		return "", m.ExchangeErr
	}
	return m.Token, nil
}

func (m *MockProvider) CurrentUser(_ context.Context, accessToken string) (*oauth.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UserCalls++
	m.LastToken = accessToken
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	return m.Identity, nil
}

// Calls returns the number of Exchange and CurrentUser calls made so far.
func (m *MockProvider) Calls() (exchange, user int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExchangeCalls, m.UserCalls
}
