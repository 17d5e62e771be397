package executor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"blizzard-api/internal/common/errors"
	"blizzard-api/internal/region"
)

// Request describes one logical API call. The executor may perform several round trips for it.
type Request struct {
	// Method defaults to GET.
	Method string
	// URL is the absolute endpoint URL without a query string.
	URL    string
	Query  url.Values
	Header http.Header
	Region region.Region
	// RequiresAuth attaches a bearer token from the supplier unless AccessToken is set.
	RequiresAuth bool
	// AccessToken is a caller-provided user token. It is never refreshed.
	AccessToken string
	// Operation names the call in logs and errors.
	Operation string
}

// FullURL returns the URL with the encoded query appended.
func (r Request) FullURL() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	return r.URL + "?" + r.Query.Encode()
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

func (r Request) userToken() bool {
	return r.AccessToken != ""
}

// cacheKey hashes everything that identifies the response. Query.Encode sorts keys.
func (r Request) cacheKey() string {
	sum := sha256.Sum256([]byte(r.method() + " " + r.FullURL()))
	return "response:" + hex.EncodeToString(sum[:])
}

// Response is a successful upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string
	Duration   time.Duration
	// Attempts is the number of round trips made, zero for a cache hit.
	Attempts int
	Cached   bool
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.InternalError("failed to decode response body", err).WithResponse(r.StatusCode, r.URL)
	}
	return nil
}

// TokenSupplier hands out bearer tokens per region. Refresh replaces rejected, the token
// the API just refused, unless it has already been replaced.
type TokenSupplier interface {
	Token(ctx context.Context, r region.Region) (string, error)
	Refresh(ctx context.Context, r region.Region, rejected string) (string, error)
}

// StaticToken supplies one fixed token. Refresh returns the same token, so a rejected
// static token fails on the second 401.
type StaticToken string

func (s StaticToken) Token(context.Context, region.Region) (string, error) { return string(s), nil }
func (s StaticToken) Refresh(context.Context, region.Region, string) (string, error) {
	return string(s), nil
}
