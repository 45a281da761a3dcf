// bungie.go -- Bungie.net OAuth2 provider implementation.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	authorizePath   = "/en/OAuth/Authorize"
	tokenPath       = "/platform/app/oauth/token/"
	currentUserPath = "/platform/User/GetCurrentBungieNetUser/"
)

// BungieOptions configures a BungieProvider.
type BungieOptions struct {
	ClientID     string
	ClientSecret string // empty for public clients; omitted from the token form
	APIKey       string
	RedirectURL  string
	BaseURL      string // e.g. https://www.bungie.net
	Timeout      time.Duration

	// LegacyIdentity compares against "displayName" instead of the global name#code.
	LegacyIdentity bool
}

// BungieProvider implements Provider against the Bungie.net platform API.
// Every outbound request carries the X-API-Key header.
type BungieProvider struct {
	config  *oauth2.Config
	baseURL string
	legacy  bool
	client  *http.Client
}

var _ Provider = (*BungieProvider)(nil)

// NewBungieProvider returns a BungieProvider. Makes no network calls.
func NewBungieProvider(opts BungieOptions) *BungieProvider {
	return &BungieProvider{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.BaseURL + authorizePath,
				TokenURL:  opts.BaseURL + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		baseURL: opts.BaseURL,
		legacy:  opts.LegacyIdentity,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: &apiKeyTransport{apiKey: opts.APIKey, base: http.DefaultTransport},
		},
	}
}

// AuthCodeURL builds the Bungie consent page URL with state embedded.
func (p *BungieProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange posts the authorization code to the token endpoint and returns the access token.
// Non-2xx answers come back as *APIError with the provider's error_description.
func (p *BungieProvider) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			apiErr := &APIError{Op: "token exchange", Code: re.ErrorCode, Description: re.ErrorDescription}
			if re.Response != nil {
				apiErr.StatusCode = re.Response.StatusCode
			}
			return "", apiErr
		}
		return "", fmt.Errorf("exchanging code: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("exchanging code: no access token in response")
	}
	return token.AccessToken, nil
}

// userEnvelope is the platform response wrapper around GetCurrentBungieNetUser.
type userEnvelope struct {
	Response *struct {
		DisplayName           string `json:"displayName"`
		GlobalDisplayName     string `json:"bungieGlobalDisplayName"`
		GlobalDisplayNameCode *int   `json:"bungieGlobalDisplayNameCode"`
	} `json:"Response"`
	ErrorCode        int    `json:"ErrorCode"`
	ErrorStatus      string `json:"ErrorStatus"`
	Message          string `json:"Message"`
	ErrorDescription string `json:"error_description"`
}

// CurrentUser fetches the authenticated Bungie.net user with a bearer token.
// Returns an empty Identity when the platform answered successfully without a name.
func (p *BungieProvider) CurrentUser(ctx context.Context, accessToken string) (*Identity, error) {
	client := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, p.client),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
	)
	// NewClient keeps only the transport of the context client.
	client.Timeout = p.client.Timeout

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+currentUserPath, nil)
	if err != nil {
		return nil, fmt.Errorf("current user: building request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("current user: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("current user: reading response: %w", err)
	}

	var env userEnvelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Op: "current user", StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code = env.ErrorStatus
			apiErr.Description = env.ErrorDescription
			if apiErr.Description == "" {
				apiErr.Description = env.Message
			}
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("current user: decoding response: %w", decodeErr)
	}

	// Platform-level failure wrapped in a 200; ErrorCode 1 is Success.
	if env.ErrorCode > 1 {
		return nil, &APIError{Op: "current user", StatusCode: resp.StatusCode, Code: env.ErrorStatus, Description: env.Message}
	}

	if env.Response == nil {
		return &Identity{}, nil
	}
	if p.legacy {
		return &Identity{DisplayName: env.Response.DisplayName}, nil
	}
	id := &Identity{DisplayName: env.Response.GlobalDisplayName}
	if env.Response.GlobalDisplayNameCode != nil {
		id.Code = *env.Response.GlobalDisplayNameCode
	}
	return id, nil
}

// apiKeyTransport stamps X-API-Key on every request.
type apiKeyTransport struct {
	apiKey string
	base   http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("X-API-Key", t.apiKey)
	return t.base.RoundTrip(r)
}
