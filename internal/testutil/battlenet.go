// Package testutil provides a fake Battle.net backend for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
)

// BattleNet is an httptest server that serves both the OAuth token endpoint and API routes.
// Tokens it issues are "token-1", "token-2", ... and only the latest one is accepted.
type BattleNet struct {
	Server *httptest.Server
	router *mux.Router

	mu       sync.Mutex
	issued   int
	current  string
	requests []*http.Request

	tokenCalls atomic.Int32
	apiCalls   atomic.Int32

	// ExpiresIn is the lifetime reported for issued tokens.
	ExpiresIn int
}

// NewBattleNet starts a fake backend that is closed when the test ends.
func NewBattleNet(t testing.TB) *BattleNet {
	t.Helper()

	b := &BattleNet{router: mux.NewRouter(), ExpiresIn: 86400}
	b.router.HandleFunc("/oauth/token", b.handleToken).Methods(http.MethodPost)
	b.Server = httptest.NewServer(b.router)
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base URL to use for both the API host and the token endpoint.
func (b *BattleNet) URL() string {
	return b.Server.URL
}

// TokenURL is the token endpoint of the fake backend.
func (b *BattleNet) TokenURL() string {
	return b.Server.URL + "/oauth/token"
}

// TokenCalls returns how many token requests were served.
func (b *BattleNet) TokenCalls() int {
	return int(b.tokenCalls.Load())
}

// APICalls returns how many API requests reached a route, authorized or not.
func (b *BattleNet) APICalls() int {
	return int(b.apiCalls.Load())
}

// Requests returns the API requests received so far.
func (b *BattleNet) Requests() []*http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*http.Request(nil), b.requests...)
}

// LastRequest returns the most recent API request, or nil.
func (b *BattleNet) LastRequest() *http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return nil
	}
	return b.requests[len(b.requests)-1]
}

// RevokeTokens invalidates every issued token, as if they had expired server-side.
func (b *BattleNet) RevokeTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = ""
}

func (b *BattleNet) handleToken(w http.ResponseWriter, r *http.Request) {
	b.tokenCalls.Add(1)

	user, pass, ok := r.BasicAuth()
	if !ok || user == "" || pass == "" || r.FormValue("grant_type") != "client_credentials" {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_client",
			"error_description": "Bad client credentials",
		})
		return
	}

	b.mu.Lock()
	b.issued++
	b.current = fmt.Sprintf("token-%d", b.issued)
	token := b.current
	b.mu.Unlock()

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   b.ExpiresIn,
	})
}

// Handle registers an API route. The handler only runs for requests carrying the current
// token; other requests get a 401.
func (b *BattleNet) Handle(path string, handler http.HandlerFunc) {
	b.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		b.apiCalls.Add(1)
		b.mu.Lock()
		b.requests = append(b.requests, r)
		current := b.current
		b.mu.Unlock()

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || (token != current && !strings.HasPrefix(token, "user-")) {
			WriteJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"code": 401, "type": "BLZWEBAPI00000401", "detail": "Unauthorized",
			})
			return
		}
		handler(w, r)
	}).Methods(http.MethodGet)
}

// JSON registers a route that always answers with status and body.
func (b *BattleNet) JSON(path string, status int, body interface{}) {
	b.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Sequence registers a route that answers with the given statuses in order, then with the
// final body and a 200 once the statuses run out.
func (b *BattleNet) Sequence(path string, statuses []int, body interface{}) {
	var n atomic.Int32
	b.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		i := int(n.Add(1)) - 1
		if i < len(statuses) {
			w.WriteHeader(statuses[i])
			return
		}
		WriteJSON(w, http.StatusOK, body)
	})
}

// WriteJSON writes body as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
