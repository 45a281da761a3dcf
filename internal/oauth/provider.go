// provider.go -- OAuth provider interface and shared types.
package oauth

import (
	"context"
	"fmt"
	"strconv"
)

// Identity is the display identity returned by the provider's current-user endpoint.
// Code is the numeric discriminator; 0 means the provider did not supply one.
type Identity struct {
	DisplayName string
	Code        int
}

// String returns the composite "name#code" when both parts are present,
// otherwise the bare display name (which may be empty).
func (i Identity) String() string {
	if i.DisplayName != "" && i.Code != 0 {
		return i.DisplayName + "#" + strconv.Itoa(i.Code)
	}
	return i.DisplayName
}

// Provider is an OAuth2 identity provider used for nickname verification.
type Provider interface {
	// AuthCodeURL returns the consent page URL with state embedded.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, code string) (string, error)

	// CurrentUser fetches the identity owning accessToken.
	// An empty Identity (String() == "") means the call succeeded but carried no usable name.
	CurrentUser(ctx context.Context, accessToken string) (*Identity, error)
}

// APIError is a non-success answer from the provider.
// Description carries the provider's own explanation when one was sent
// (OAuth error_description or the platform Message).
type APIError struct {
	Op          string
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: provider returned status %d", e.Op, e.StatusCode)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	return msg
}
