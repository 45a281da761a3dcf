// Package verify decides whether a Bungie.net identity matches a claimed nickname.
//
// outcome.go -- Outcome enumeration and the Result carried to rendering.
package verify

import (
	"errors"
	"net/http"

	"github.com/MGallo-Code/bungie-verify/internal/oauth"
)

// Outcome is the terminal state of one verification attempt.
type Outcome int

const (
	Success Outcome = iota
	Mismatch
	MissingCode
	MissingState
	ProviderError
	MissingIdentity
	UnexpectedError
)

var outcomeNames = map[Outcome]string{
	Success:         "success",
	Mismatch:        "mismatch",
	MissingCode:     "missing_code",
	MissingState:    "missing_state",
	ProviderError:   "provider_error",
	MissingIdentity: "missing_identity",
	UnexpectedError: "unexpected_error",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return "unknown"
}

// DefaultErrorMessage is shown for UnexpectedError when the provider gave nothing better.
const DefaultErrorMessage = "An unexpected error occurred during verification."

// authFailedMessage replaces the provider payload on HTTP 401.
const authFailedMessage = "Authentication failed. Please try again."

// Result is the outcome of a verification attempt plus the values rendering needs.
type Result struct {
	Outcome  Outcome
	Nickname string // claimed, percent-decoded
	Identity string // provider identity, composite when available
	Message  string // ProviderError / UnexpectedError text shown to the user
	Err      error  // underlying cause, for logs only
}

// FromError maps a failed token exchange or identity fetch onto UnexpectedError.
// A 401 from the provider gets a fixed message; otherwise the provider's own
// description is used when it sent one.
func FromError(err error) Result {
	res := Result{Outcome: UnexpectedError, Message: DefaultErrorMessage, Err: err}
	var apiErr *oauth.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			res.Message = authFailedMessage
		case apiErr.Description != "":
			res.Message = apiErr.Description
		}
	}
	return res
}
