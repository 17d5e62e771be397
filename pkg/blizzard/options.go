package blizzard

import (
	"net/http"
	"time"

	"blizzard-api/internal/circuitbreaker"
	"blizzard-api/internal/common/cache"
	"blizzard-api/internal/common/logging"
	"blizzard-api/internal/common/ratelimit"
	"blizzard-api/internal/executor"
	"blizzard-api/internal/redis"
)

// RetryPolicy bounds the retries of 5xx responses and network failures.
type RetryPolicy = executor.RetryPolicy

// DefaultRetryPolicy returns 3 attempts with backoff starting at 500ms, doubling, capped at 8s.
func DefaultRetryPolicy() RetryPolicy {
	return executor.DefaultRetryPolicy()
}

// Logger is the structured logger used by the client.
type Logger = logging.Logger

// CacheType selects the response cache backend.
type CacheType = cache.Type

// Response cache backends.
const (
	CacheNone    = cache.TypeNone
	CacheLocal   = cache.TypeLocal
	CacheRedis   = cache.TypeRedis
	CacheTwoTier = cache.TypeTwoTier
)

type options struct {
	region       string
	locale       string
	httpClient   *http.Client
	timeout      time.Duration
	retry        RetryPolicy
	rateLimit    ratelimit.Config
	cache        cache.Config
	redis        *redis.Config
	logger       Logger
	apiBase      string
	tokenURL     string
	safetyMargin time.Duration
	breaker      *circuitbreaker.Config
	userAgent    string
}

func defaultOptions() options {
	return options{
		region:    "us",
		timeout:   30 * time.Second,
		retry:     DefaultRetryPolicy(),
		rateLimit: ratelimit.Config{Enabled: false},
		cache:     cache.Config{Type: cache.TypeNone},
	}
}

// Option configures a Client.
type Option func(*options)

// WithRegion sets the region used when a call does not name one. Defaults to "us".
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithLocale sets the locale used when a call does not name one. When the call's region
// does not serve it, the region's default locale applies.
func WithLocale(locale string) Option {
	return func(o *options) {
		o.locale = locale
	}
}

// WithHTTPClient makes the client use hc for both API and token requests. The caller
// keeps ownership of hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithTimeout sets the timeout of the HTTP client the Client creates for itself.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(o *options) {
		o.retry = policy
	}
}

// WithRateLimit throttles outbound API requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.rateLimit = ratelimit.Config{
			Enabled:           rps > 0,
			RequestsPerSecond: rps,
			BurstSize:         burst,
			Type:              ratelimit.BackendLocal,
		}
	}
}

// WithDistributedRateLimit shares the request budget between processes through Redis.
// It requires WithRedis.
func WithDistributedRateLimit(rps float64) Option {
	return func(o *options) {
		o.rateLimit = ratelimit.Config{
			Enabled:           rps > 0,
			RequestsPerSecond: rps,
			Type:              ratelimit.BackendRedis,
		}
	}
}

// WithCache caches successful client-credential responses for ttl. The redis and
// two-tier backends require WithRedis.
func WithCache(cacheType CacheType, ttl time.Duration) Option {
	return func(o *options) {
		cfg := cache.DefaultConfig()
		cfg.Type = cacheType
		if ttl > 0 {
			cfg.TTL = ttl
		}
		o.cache = cfg
	}
}

// WithRedis connects to Redis for the cache and rate limit backends that need it.
// The connection is opened by New and closed by Close.
func WithRedis(address, password string, db int) Option {
	return func(o *options) {
		o.redis = &redis.Config{Address: address, Password: password, DB: db}
	}
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBaseURLs routes every region's API and token requests to the given URLs. It is
// meant for tests against a local fake server.
func WithBaseURLs(apiBase, tokenURL string) Option {
	return func(o *options) {
		o.apiBase = apiBase
		o.tokenURL = tokenURL
	}
}

// WithTokenSafetyMargin sets how long before expiry a cached token is replaced.
func WithTokenSafetyMargin(margin time.Duration) Option {
	return func(o *options) {
		o.safetyMargin = margin
	}
}

// WithCircuitBreaker opens a region's circuit after maxFailures consecutive server
// failures and keeps it open for timeout.
func WithCircuitBreaker(maxFailures int, timeout time.Duration) Option {
	return func(o *options) {
		cfg := circuitbreaker.APIConfig
		cfg.MaxFailures = maxFailures
		cfg.Timeout = timeout
		o.breaker = &cfg
	}
}

// WithUserAgent sets the User-Agent header of API requests.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}
