package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubUser is the slice of GitHub's /user response we care about.
type GitHubUser struct {
	ID    int64  `json:"id"`    // GitHub's numeric user ID — stable
	Login string `json:"login"` // GitHub username
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code
// flow. It is an optional, secondary login path: accounts it creates are
// regular staff accounts keyed by GitHub ID, and they receive the same
// session cookie as a password login.
//
// The code-for-token exchange happens server-to-server with the client
// secret, so the access token never reaches the browser.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a GitHubProvider. callbackURL must exactly match
// the "Authorization callback URL" registered with the GitHub OAuth app.
//
// Only "read:user" is requested — the app needs the ID and login, nothing
// else from the profile.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL returns the GitHub authorization URL for the given CSRF state.
// The caller stores the state in a short-lived cookie and checks it on
// callback.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the authenticated GitHub profile:
// code → access token → GET /user.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// config.Client returns an *http.Client that attaches the bearer token.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &ghUser, nil
}
