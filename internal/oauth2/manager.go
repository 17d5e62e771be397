package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"blizzard-api/internal/async"
	"blizzard-api/internal/circuitbreaker"
	"blizzard-api/internal/common/errors"
	"blizzard-api/internal/common/logging"
	"blizzard-api/internal/region"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSafetyMargin keeps a token from expiring while a request that uses it is in flight.
	DefaultSafetyMargin = 30 * time.Second
	// DefaultRefreshTimeout bounds one token request. It applies even when every waiter has gone.
	DefaultRefreshTimeout = 30 * time.Second
)

// ErrManagerClosed is returned by token operations after Close.
var ErrManagerClosed = errors.TokenError("token manager is closed", nil).WithCode("closed")

// Config configures a Manager
type Config struct {
	// ClientID and ClientSecret are the Battle.net API client credentials. They are sent
	// only to the token endpoint and never logged.
	ClientID     string
	ClientSecret string
	// SafetyMargin defaults to DefaultSafetyMargin.
	SafetyMargin time.Duration
	// RefreshTimeout defaults to DefaultRefreshTimeout.
	RefreshTimeout time.Duration
	// TokenURLs overrides the token endpoint per region; missing regions use region.TokenURL.
	TokenURLs map[region.Region]string
	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client
	// Breakers guards the token endpoint, one breaker per region. Defaults to OAuthConfig breakers.
	Breakers *circuitbreaker.GoBreakerManager
	Logger   logging.Logger
	// Now is the clock; tests replace it.
	Now func() time.Time
}

// Manager acquires and caches client-credentials tokens for one credential.
type Manager struct {
	config   Config
	store    TokenStore
	identity string
	group    singleflight.Group
	logger   logging.Logger
	closed   atomic.Bool
}

// NewManager creates a token manager. The store is owned by the manager and cleared on Close.
func NewManager(config Config, store TokenStore) (*Manager, error) {
	if config.ClientID == "" {
		return nil, errors.ValidationError("client_id is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.ValidationError("client_secret is required")
	}
	if store == nil {
		store = NewMemoryTokenStore()
	}
	if config.SafetyMargin <= 0 {
		config.SafetyMargin = DefaultSafetyMargin
	}
	if config.RefreshTimeout <= 0 {
		config.RefreshTimeout = DefaultRefreshTimeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if config.Logger == nil {
		config.Logger = logging.GetGlobalLogger()
	}
	if config.Breakers == nil {
		config.Breakers = circuitbreaker.NewGoBreakerManager(circuitbreaker.OAuthConfig, config.Logger)
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	identity := logging.Fingerprint(config.ClientID)
	return &Manager{
		config:   config,
		store:    store,
		identity: identity,
		logger:   config.Logger.WithFields(logging.String("client", identity)),
	}, nil
}

// Identity is the fingerprint of the client id. It is safe to log.
func (m *Manager) Identity() string {
	return m.identity
}

func (m *Manager) storeKey(r region.Region) string {
	return m.identity + ":" + string(r)
}

// Token returns a token for r that will not expire within the safety margin, fetching a
// new one when needed.
func (m *Manager) Token(ctx context.Context, r region.Region) (*Token, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}

	if token, err := m.store.Load(ctx, m.storeKey(r)); err == nil && token.ValidAt(m.config.Now(), m.config.SafetyMargin) {
		return token, nil
	}
	token, _, err := m.fetch(ctx, r, "")
	return token, err
}

// TokenAsync is the non-blocking form of Token.
func (m *Manager) TokenAsync(ctx context.Context, r region.Region) *async.Future[*Token] {
	return async.Go(ctx, func(ctx context.Context) (*Token, error) {
		return m.Token(ctx, r)
	})
}

// Refresh replaces a token the API rejected. rejected is the access token that failed;
// when it is empty the currently stored token is treated as rejected. If the store
// already holds a different valid token, for example one fetched by a concurrent
// Refresh, that token is returned and nothing is requested.
func (m *Manager) Refresh(ctx context.Context, r region.Region, rejected string) (*Token, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}

	stored, err := m.store.Load(ctx, m.storeKey(r))
	if err == nil && stored != nil {
		if rejected == "" {
			rejected = stored.AccessToken
		} else if stored.AccessToken != rejected && stored.ValidAt(m.config.Now(), m.config.SafetyMargin) {
			return stored, nil
		}
	}

	token, fresh, err := m.fetch(ctx, r, rejected)
	if err != nil {
		return nil, err
	}
	// Joining a plain Token flight can hand back the rejected token from the store.
	if !fresh && rejected != "" && token.AccessToken == rejected {
		token, _, err = m.fetch(ctx, r, rejected)
	}
	return token, err
}

type flightResult struct {
	token *Token
	fresh bool
}

// fetch joins or starts the single in-flight token request for r. A stored token is
// reused unless it equals rejected. fresh reports whether the endpoint was called.
func (m *Manager) fetch(ctx context.Context, r region.Region, rejected string) (*Token, bool, error) {
	key := m.storeKey(r)
	ch := m.group.DoChan(key, func() (interface{}, error) {
		// The request must outlive any single waiter.
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.config.RefreshTimeout)
		defer cancel()

		// Another flight may have stored a token since the caller looked.
		if token, err := m.store.Load(reqCtx, key); err == nil && token.ValidAt(m.config.Now(), m.config.SafetyMargin) &&
			(rejected == "" || token.AccessToken != rejected) {
			return flightResult{token: token}, nil
		}
		token, err := m.requestToken(reqCtx, r)
		if err != nil {
			return nil, err
		}
		return flightResult{token: token, fresh: true}, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		out := res.Val.(flightResult)
		token := *out.token
		return &token, out.fresh, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (m *Manager) tokenURL(r region.Region) string {
	if u, ok := m.config.TokenURLs[r]; ok && u != "" {
		return u
	}
	return region.TokenURL(r)
}

// requestToken performs the client-credentials request and stores the result.
func (m *Manager) requestToken(ctx context.Context, r region.Region) (*Token, error) {
	tokenURL := m.tokenURL(r)
	log := m.logger.WithFields(logging.String("region", string(r)))
	log.Debug("Requesting access token")

	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	var (
		status int
		body   []byte
	)
	breaker := m.config.Breakers.GetOrCreate("oauth-" + string(r))
	err := breaker.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
		if err != nil {
			return errors.InternalError("failed to create token request", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		req.SetBasicAuth(m.config.ClientID, m.config.ClientSecret)

		resp, err := m.config.HTTPClient.Do(req)
		if err != nil {
			return errors.ConnectionError("token request failed", err)
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		body, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return errors.ConnectionError("failed to read token response", err)
		}
		if status >= 500 {
			return errors.ServerError(fmt.Sprintf("token endpoint returned status %d", status), nil)
		}
		return nil
	})
	if err != nil {
		log.Warn("Access token request failed", logging.Err(err))
		tokenErr := errors.TokenError("token request failed", err)
		if status != 0 {
			tokenErr.WithResponse(status, tokenURL)
		}
		return nil, tokenErr
	}

	if status != http.StatusOK {
		var errResp struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		msg := fmt.Sprintf("token request failed with status %d", status)
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			msg = fmt.Sprintf("token request failed: %s - %s", errResp.Error, errResp.Description)
		}
		log.Warn("Access token rejected", logging.Int("status", status))
		return nil, errors.TokenError(msg, nil).WithResponse(status, tokenURL).WithCode(errResp.Error)
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, errors.TokenError("failed to decode token response", err).WithResponse(status, tokenURL)
	}
	if tokenResp.AccessToken == "" {
		return nil, errors.TokenError("token response has no access_token", nil).WithResponse(status, tokenURL)
	}

	issued := m.config.Now()
	token := &Token{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		ExpiresAt:   issued.Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
		IssuedAt:    issued,
		Scope:       tokenResp.Scope,
	}
	if err := m.store.Save(ctx, m.storeKey(r), token); err != nil {
		log.Warn("Failed to store access token", logging.Err(err))
	}

	log.Info("Access token acquired", logging.Time("expires_at", token.ExpiresAt))
	return token, nil
}

// Close clears every cached token. Later calls return ErrManagerClosed. Close is idempotent.
func (m *Manager) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	return m.store.Clear(context.Background())
}

// Supplier adapts the manager to callers that only need the bearer string.
func (m *Manager) Supplier() Supplier {
	return Supplier{m: m}
}

// Supplier hands out access token strings backed by a Manager.
type Supplier struct {
	m *Manager
}

// Token returns a valid access token for r.
func (s Supplier) Token(ctx context.Context, r region.Region) (string, error) {
	t, err := s.m.Token(ctx, r)
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// Refresh replaces the rejected access token for r.
func (s Supplier) Refresh(ctx context.Context, r region.Region, rejected string) (string, error) {
	t, err := s.m.Refresh(ctx, r, rejected)
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}
