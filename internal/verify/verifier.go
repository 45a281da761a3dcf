// verifier.go -- the token exchange + identity fetch pipeline.
package verify

import (
	"context"

	"github.com/MGallo-Code/bungie-verify/internal/oauth"
)

// IdentityProvider exchanges codes and fetches the current user.
// Satisfied by *oauth.BungieProvider -- defined here (at consumer) per Go convention.
type IdentityProvider interface {
	Exchange(ctx context.Context, code string) (string, error)
	CurrentUser(ctx context.Context, accessToken string) (*oauth.Identity, error)
}

// Verifier runs the remote half of a verification: code -> token -> identity -> decision.
type Verifier struct {
	Provider IdentityProvider
}

// Verify exchanges req.Code, fetches the identity and compares it with req.Nickname.
// Remote failures come back as UnexpectedError; nothing is retried.
func (v *Verifier) Verify(ctx context.Context, req Request) Result {
	token, err := v.Provider.Exchange(ctx, req.Code)
	if err != nil {
		res := FromError(err)
		res.Nickname = req.Nickname
		return res
	}

	id, err := v.Provider.CurrentUser(ctx, token)
	if err != nil {
		res := FromError(err)
		res.Nickname = req.Nickname
		return res
	}

	return Decide(req.Nickname, id)
}
