// compare.go -- identity comparison.
package verify

import (
	"strings"

	"github.com/MGallo-Code/bungie-verify/internal/oauth"
)

// Compare reports Success when identity and nickname are equal ignoring case.
// No trimming and no normalization of the '#' separator.
func Compare(identity, nickname string) Outcome {
	if strings.ToLower(identity) == strings.ToLower(nickname) {
		return Success
	}
	return Mismatch
}

// Decide turns a fetched identity into a Result for the claimed nickname.
// A nil or nameless identity is MissingIdentity, never a Mismatch.
func Decide(nickname string, id *oauth.Identity) Result {
	res := Result{Nickname: nickname}
	if id == nil || id.String() == "" {
		res.Outcome = MissingIdentity
		return res
	}
	res.Identity = id.String()
	res.Outcome = Compare(res.Identity, nickname)
	return res
}
