// Package oauth2 acquires and caches Battle.net access tokens using the OAuth 2.0
// client-credentials grant.
//
// # Overview
//
// A Manager owns the tokens for one set of client credentials. Tokens are cached per
// region in a TokenStore and reused until they come within a safety margin of their
// expiry, after which the next caller fetches a new one.
//
// # Concurrency
//
// At most one token request per region is in flight. Concurrent callers wait for that
// request and share its token or its error. A caller whose context is cancelled stops
// waiting immediately; the request itself keeps running so the remaining waiters still
// get a token.
//
// # Usage
//
//	manager, err := oauth2.NewManager(oauth2.Config{
//		ClientID:     os.Getenv("BLIZZARD_CLIENT_ID"),
//		ClientSecret: os.Getenv("BLIZZARD_CLIENT_SECRET"),
//	}, oauth2.NewMemoryTokenStore())
//	if err != nil {
//		return err
//	}
//	defer manager.Close()
//
//	token, err := manager.Token(ctx, region.US)
//
// Failures are reported as token errors carrying the authorization server's error code
// and description. The manager never retries; retry decisions belong to the caller.
package oauth2
