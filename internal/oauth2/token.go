package oauth2

import (
	"time"
)

// TokenResponse is the token endpoint's JSON body as defined in RFC 6749.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// Token is a cached access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	IssuedAt    time.Time `json:"issued_at,omitempty"`
	Scope       string    `json:"scope,omitempty"`
}

// ValidAt reports whether the token may still be handed out at now, i.e. it does not
// expire within margin. For a token with a known issue time the margin is capped at half
// its lifetime, so a short-lived token is still reused for a while.
func (t *Token) ValidAt(now time.Time, margin time.Duration) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if !t.IssuedAt.IsZero() {
		if half := t.ExpiresAt.Sub(t.IssuedAt) / 2; half < margin {
			margin = half
		}
	}
	return now.Before(t.ExpiresAt.Add(-margin))
}

// AuthorizationHeader formats the token for the Authorization header.
func (t *Token) AuthorizationHeader() string {
	return "Bearer " + t.AccessToken
}
