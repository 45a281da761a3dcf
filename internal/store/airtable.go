// airtable.go -- Airtable REST backend for verification records.
//
// Lists records with filterByFormula and PATCHes single records by id.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AirtableOptions configures an AirtableStore.
type AirtableOptions struct {
	APIKey  string
	BaseID  string
	Table   string
	BaseURL string // e.g. https://api.airtable.com
}

// AirtableStore implements RecordStore against one Airtable table.
type AirtableStore struct {
	apiKey     string
	tableURL   string
	httpClient *http.Client
}

// NewAirtableStore returns an AirtableStore. Makes no network calls.
// Uses a 10s timeout on the outbound HTTP client.
func NewAirtableStore(opts AirtableOptions) *AirtableStore {
	return &AirtableStore{
		apiKey:     opts.APIKey,
		tableURL:   opts.BaseURL + "/v0/" + url.PathEscape(opts.BaseID) + "/" + url.PathEscape(opts.Table),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// AirtableError is a non-2xx answer from the Airtable API.
type AirtableError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *AirtableError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("airtable: status %d: %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("airtable: status %d: %s", e.StatusCode, e.Type)
}

type airtableRecord struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// nicknameFormula builds {nickname} = '<nickname>' with backslashes and quotes escaped.
func nicknameFormula(nickname string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(nickname)
	return "{" + FieldNickname + "} = '" + escaped + "'"
}

// FindByNickname returns the first record whose nickname field equals nickname.
// Matching is done by Airtable's formula engine, so it is case-sensitive.
func (s *AirtableStore) FindByNickname(ctx context.Context, nickname string) (*Record, error) {
	q := url.Values{
		"filterByFormula": {nicknameFormula(nickname)},
		"maxRecords":      {"1"},
	}

	var page struct {
		Records []airtableRecord `json:"records"`
	}
	if err := s.do(ctx, http.MethodGet, s.tableURL+"?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	if len(page.Records) == 0 {
		return nil, ErrRecordNotFound
	}

	r := page.Records[0]
	rec := &Record{ID: r.ID}
	rec.Nickname, _ = r.Fields[FieldNickname].(string)
	rec.Verified, _ = r.Fields[FieldVerified].(bool)
	rec.BungieUsername, _ = r.Fields[FieldBungieUsername].(string)
	return rec, nil
}

// MarkVerified PATCHes verified=true and the identity onto record id.
// Returns ErrRecordNotFound on a 404.
func (s *AirtableStore) MarkVerified(ctx context.Context, id, identity string) error {
	payload, err := json.Marshal(struct {
		Fields map[string]any `json:"fields"`
	}{map[string]any{
		FieldVerified:       true,
		FieldBungieUsername: identity,
	}})
	if err != nil {
		return fmt.Errorf("airtable: marshaling update: %w", err)
	}

	err = s.do(ctx, http.MethodPatch, s.tableURL+"/"+url.PathEscape(id), payload, nil)
	var ae *AirtableError
	if errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound {
		return ErrRecordNotFound
	}
	return err
}

// CheckHealth lists at most one record to confirm the key, base and table are usable.
func (s *AirtableStore) CheckHealth(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, s.tableURL+"?maxRecords=1", nil, nil)
}

// do sends an authenticated request and decodes a 2xx JSON body into out (if non-nil).
func (s *AirtableStore) do(ctx context.Context, method, rawURL string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("airtable: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("airtable: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAirtableError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("airtable: decoding response: %w", err)
	}
	return nil
}

// decodeAirtableError reads either {"error":{"type","message"}} or {"error":"TYPE"}.
func decodeAirtableError(resp *http.Response) error {
	ae := &AirtableError{StatusCode: resp.StatusCode, Type: http.StatusText(resp.StatusCode)}
	var raw struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil || len(raw.Error) == 0 {
		return ae
	}
	var detailed struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw.Error, &detailed); err == nil {
		ae.Type, ae.Message = detailed.Type, detailed.Message
		return ae
	}
	var short string
	if err := json.Unmarshal(raw.Error, &short); err == nil {
		ae.Type = short
	}
	return ae
}
