package blizzard

import (
	"net/url"

	"blizzard-api/internal/region"
)

const (
	// DefaultRedirectURI is the redirect registered for Battle.net developer portal clients.
	DefaultRedirectURI = "https://community.developer.battle.net/"
	// DefaultScope grants access to the WoW profile APIs.
	DefaultScope = "wow.profile"
)

// AuthorizeURL builds the authorization-code URL a user visits to grant a user token.
// Exchanging the returned code is left to the caller.
func AuthorizeURL(regionCode, clientID, redirectURI, scope, state string) (string, error) {
	r, err := region.Parse(regionCode)
	if err != nil {
		return "", err
	}
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}
	if scope == "" {
		scope = DefaultScope
	}

	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", scope)
	if state != "" {
		q.Set("state", state)
	}
	return region.AuthorizeURL(r) + "?" + q.Encode(), nil
}
