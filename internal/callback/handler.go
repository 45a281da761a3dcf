// handler.go -- HTTP handlers for the verification service.
package callback

import (
	"net/http"
	"net/url"

	"github.com/MGallo-Code/bungie-verify/internal/store"
	"github.com/MGallo-Code/bungie-verify/internal/verify"
)

// homeText is served on GET /.
const homeText = "Bungie OAuth Verification Service"

// Authorizer builds the provider consent URL for a state value.
// Satisfied by *oauth.BungieProvider.
type Authorizer interface {
	AuthCodeURL(state string) string
}

// Handler holds dependencies for all HTTP handlers. Built once in main, read-only afterwards.
type Handler struct {
	Verifier *verify.Verifier
	Auth     Authorizer
	Records  store.RecordStore
}

// Home handles GET / with a static acknowledgement.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	PlainText(w, http.StatusOK, homeText)
}

// Callback handles GET /callback -- the OAuth redirect target.
// Validates the query, runs the verification, records a Success best-effort, renders the outcome.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	req, res, ok := verify.Validate(verify.ParamsFromQuery(r.URL.Query()))
	if !ok {
		logWarn(r, "callback rejected", "outcome", res.Outcome.String(), "message", res.Message)
		RenderResult(w, r, res)
		return
	}
	logInfo(r, "received nickname from state parameter", "nickname", req.Nickname)

	res = h.Verifier.Verify(r.Context(), req)

	switch res.Outcome {
	case verify.Success:
		logInfo(r, "username verified", "nickname", res.Nickname, "bungie_username", res.Identity)
		// Result is logged and dropped: a store failure never changes the response.
		h.recordVerification(r, res)
	case verify.Mismatch:
		logInfo(r, "verification failed: username mismatch", "nickname", res.Nickname, "bungie_username", res.Identity)
	case verify.MissingIdentity:
		logWarn(r, "verification failed: no bungie display name", "nickname", res.Nickname)
	default:
		logError(r, "error during verification", "outcome", res.Outcome.String(), "error", res.Err)
	}

	RenderResult(w, r, res)
}

// recordVerification writes the success to the record store and logs what happened.
func (h *Handler) recordVerification(r *http.Request, res verify.Result) {
	upd := store.MarkNicknameVerified(r.Context(), h.Records, res.Nickname, res.Identity)
	switch upd.Status {
	case store.Updated:
		logInfo(r, "record updated", "record_id", upd.RecordID, "nickname", res.Nickname)
	case store.NotFound:
		logWarn(r, "could not find matching record", "nickname", res.Nickname)
	case store.Skipped:
		logDebug(r, "record store disabled, skipping update")
	default:
		logError(r, "error updating record", "record_id", upd.RecordID, "error", upd.Err)
	}
}

// Authorize handles GET /authorize?nickname=... by redirecting to the Bungie consent page
// with the nickname carried in state.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	nickname := r.URL.Query().Get("nickname")
	if nickname == "" {
		PlainText(w, http.StatusBadRequest, "Nickname parameter missing")
		return
	}
	// Escaped once here so the callback's state decoding round-trips to the same nickname.
	http.Redirect(w, r, h.Auth.AuthCodeURL(url.PathEscape(nickname)), http.StatusFound)
}
