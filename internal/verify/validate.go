// validate.go -- query parameter checks for the OAuth callback.
package verify

import "net/url"

// Params are the raw callback query parameters.
type Params struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ParamsFromQuery extracts callback parameters from a parsed query string.
func ParamsFromQuery(q url.Values) Params {
	return Params{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}
}

// Request is a validated callback: an authorization code and the claimed nickname.
type Request struct {
	Code     string
	Nickname string
}

// Validate checks the callback parameters in order: provider error, code, state.
// When ok is false, res holds the terminal outcome and no remote call may be made.
func Validate(p Params) (req Request, res Result, ok bool) {
	if p.Error != "" {
		msg := p.ErrorDescription
		if msg == "" {
			msg = p.Error
		}
		return Request{}, Result{Outcome: ProviderError, Message: msg}, false
	}
	if p.Code == "" {
		return Request{}, Result{Outcome: MissingCode}, false
	}
	if p.State == "" {
		return Request{}, Result{Outcome: MissingState}, false
	}
	return Request{Code: p.Code, Nickname: DecodeState(p.State)}, Result{}, true
}

// DecodeState percent-decodes the state value into the claimed nickname.
// '+' is kept literal. A value that is not valid percent-encoding is used as-is.
func DecodeState(state string) string {
	nick, err := url.PathUnescape(state)
	if err != nil {
		return state
	}
	return nick
}
