// main_test.go
//
// Level 3 smoke tests
// chi wiring via httptest.NewServer with in-memory mocks.
// Catches middleware ordering, route registration, and real HTTP redirect/header
// behavior that httptest.NewRecorder cannot exercise.

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MGallo-Code/bungie-verify/internal/callback"
	"github.com/MGallo-Code/bungie-verify/internal/oauth"
	"github.com/MGallo-Code/bungie-verify/internal/store"
	"github.com/MGallo-Code/bungie-verify/internal/testutil"
	"github.com/MGallo-Code/bungie-verify/internal/verify"
)

// --- Smoke helpers ---

// newSmokeServer starts buildRouter over mock provider and record store.
func newSmokeServer(t *testing.T, p *testutil.MockProvider, rs store.RecordStore) *httptest.Server {
	t.Helper()
	h := &callback.Handler{
		Verifier: &verify.Verifier{Provider: p},
		Auth:     p,
		Records:  rs,
	}
	srv := httptest.NewServer(buildRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

// noRedirect stops the client at the first redirect so Location can be inspected.
var noRedirect = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
}

func smokeGet(t *testing.T, rawURL string) (*http.Response, string) {
	t.Helper()
	resp, err := noRedirect.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

// --- Smoke tests ---

func TestSmoke_Home(t *testing.T) {
	srv := newSmokeServer(t, &testutil.MockProvider{}, testutil.NewMockRecordStore())

	resp, body := smokeGet(t, srv.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if body != "Bungie OAuth Verification Service" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestSmoke_Health(t *testing.T) {
	srv := newSmokeServer(t, &testutil.MockProvider{}, &testutil.MockRecordStore{HealthErr: errors.New("down")})

	resp, body := smokeGet(t, srv.URL+"/health")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decoding health body: %v", err)
	}
	if got["record_store"] != "error" {
		t.Errorf("record_store: expected error, got %q", got["record_store"])
	}
}

func TestSmoke_CallbackMissingCode(t *testing.T) {
	p := &testutil.MockProvider{}
	srv := newSmokeServer(t, p, testutil.NewMockRecordStore())

	resp, body := smokeGet(t, srv.URL+"/callback?state=unitye%231234")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if body != "Authorization code missing" {
		t.Errorf("unexpected body %q", body)
	}
	if exchange, _ := p.Calls(); exchange != 0 {
		t.Errorf("expected no token exchange, got %d", exchange)
	}
}

func TestSmoke_UnknownRoute(t *testing.T) {
	srv := newSmokeServer(t, &testutil.MockProvider{}, testutil.NewMockRecordStore())

	resp, _ := smokeGet(t, srv.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSmoke_CallbackRejectsPost(t *testing.T) {
	srv := newSmokeServer(t, &testutil.MockProvider{}, testutil.NewMockRecordStore())

	resp, err := http.Post(srv.URL+"/callback?code=a&state=b", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST /callback: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}

// TestSmoke_FullRoundTrip follows /authorize to the consent URL, then replays the
// state it carried into /callback the way the browser would.
func TestSmoke_FullRoundTrip(t *testing.T) {
	p := &testutil.MockProvider{
		AuthURL:  "https://www.bungie.net/en/OAuth/Authorize",
		Token:    "tok",
		Identity: &oauth.Identity{DisplayName: "Unitye", Code: 1234},
	}
	rs := testutil.NewMockRecordStore(&store.Record{ID: "recAAA", Nickname: "unitye#1234"})
	srv := newSmokeServer(t, p, rs)

	resp, _ := smokeGet(t, srv.URL+"/authorize?nickname=unitye%231234")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("authorize: expected 302, got %d", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	_, state, ok := strings.Cut(loc, "?state=")
	if !ok {
		t.Fatalf("authorize: no state in Location %q", loc)
	}

	resp, body := smokeGet(t, srv.URL+"/callback?code=abc&state="+state)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("callback: expected 200, got %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "Verification Successful!") {
		t.Errorf("callback: expected success page, got %q", body)
	}

	rec := rs.Record("unitye#1234")
	if !rec.Verified || rec.BungieUsername != "Unitye#1234" {
		t.Errorf("record: expected verified with Unitye#1234, got %+v", rec)
	}
}
