// Package executor performs Battle.net API requests with token handling, error
// classification and bounded retries.
package executor

import (
	"context"
	"io"
	"net/http"
	"time"

	"blizzard-api/internal/async"
	"blizzard-api/internal/circuitbreaker"
	"blizzard-api/internal/common/cache"
	"blizzard-api/internal/common/errors"
	"blizzard-api/internal/common/logging"
	"blizzard-api/internal/common/ratelimit"

	"github.com/google/uuid"
)

const (
	// DefaultUserAgent identifies the client to the API.
	DefaultUserAgent = "blizzard-api-go"
	// DefaultCacheTTL applies when a cache is configured without a TTL.
	DefaultCacheTTL = 5 * time.Minute

	maxBodySize = 16 << 20
)

// Config configures an Executor. Only HTTPClient is required; the other collaborators are optional.
type Config struct {
	HTTPClient *http.Client
	Policy     RetryPolicy
	// Limiter throttles outbound round trips.
	Limiter ratelimit.Limiter
	// Cache stores 2xx GET bodies of client-credential requests.
	Cache    cache.Cache
	CacheTTL time.Duration
	// Breakers guards each region's API host.
	Breakers  *circuitbreaker.GoBreakerManager
	Logger    logging.Logger
	UserAgent string
	Now       func() time.Time
}

// Executor runs requests. It is safe for concurrent use.
type Executor struct {
	client    *http.Client
	policy    RetryPolicy
	limiter   ratelimit.Limiter
	cache     cache.Cache
	cacheTTL  time.Duration
	breakers  *circuitbreaker.GoBreakerManager
	logger    logging.Logger
	userAgent string
	now       func() time.Time
}

// New creates an executor.
func New(config Config) (*Executor, error) {
	if config.Policy == (RetryPolicy{}) {
		config.Policy = DefaultRetryPolicy()
	}
	if err := config.Policy.Validate(); err != nil {
		return nil, errors.ConfigError("invalid retry policy").WithContext("reason", err.Error())
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if config.Logger == nil {
		config.Logger = logging.GetGlobalLogger()
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Executor{
		client:    config.HTTPClient,
		policy:    config.Policy,
		limiter:   config.Limiter,
		cache:     config.Cache,
		cacheTTL:  config.CacheTTL,
		breakers:  config.Breakers,
		logger:    config.Logger,
		userAgent: config.UserAgent,
		now:       config.Now,
	}, nil
}

// Policy returns the retry policy in effect.
func (e *Executor) Policy() RetryPolicy {
	return e.policy
}

// Execute performs req, refreshing the token once on 401 and retrying transient failures.
// The returned error is always an *errors.AppError or a context error.
func (e *Executor) Execute(ctx context.Context, req Request, supplier TokenSupplier) (*Response, error) {
	requestID := uuid.NewString()
	ctx = logging.ContextWithRequestID(ctx, requestID)
	if req.Operation != "" {
		ctx = logging.ContextWithOperation(ctx, req.Operation)
	}
	log := e.logger.WithContext(ctx).WithFields(logging.String("region", string(req.Region)))

	cacheable := e.cacheable(req)
	if cacheable {
		if body, ok := e.cache.Get(ctx, req.cacheKey()); ok {
			log.Debug("Response served from cache")
			return &Response{StatusCode: http.StatusOK, Body: body, URL: req.FullURL(), Cached: true}, nil
		}
	}

	token, err := e.initialToken(ctx, req, supplier)
	if err != nil {
		return nil, err
	}

	var st state
	for {
		st.attempt++
		o := e.roundTrip(ctx, req, token, st.attempt)
		if o.err != nil {
			st.lastErr = o.err
		}

		d := decide(st, o, e.policy, req.userToken())
		log.Debug("Request attempt classified",
			logging.Int("attempt", st.attempt),
			logging.String("outcome", o.kind.String()),
			logging.Int("status", o.status))

		switch d.action {
		case actionDone:
			o.resp.Attempts = st.attempt
			if cacheable {
				if err := e.cache.Set(ctx, req.cacheKey(), o.resp.Body, e.cacheTTL); err != nil {
					log.Warn("Failed to cache response", logging.Err(err))
				}
			}
			return o.resp, nil

		case actionRefresh:
			log.Info("Access token rejected, refreshing")
			st.refreshed = true
			token, err = supplier.Refresh(ctx, req.Region, token)
			if err != nil {
				return nil, err
			}

		case actionRetry:
			log.Warn("Retrying request",
				logging.Int("attempt", st.attempt),
				logging.Duration("delay", d.delay),
				logging.Err(o.err))
			if err := sleep(ctx, d.delay); err != nil {
				return nil, err
			}

		default:
			if !isContextErr(d.err) {
				log.Debug("Request failed", logging.Err(d.err))
			}
			return nil, d.err
		}
	}
}

// ExecuteAsync runs Execute on its own goroutine.
func (e *Executor) ExecuteAsync(ctx context.Context, req Request, supplier TokenSupplier) *async.Future[*Response] {
	return async.Go(ctx, func(ctx context.Context) (*Response, error) {
		return e.Execute(ctx, req, supplier)
	})
}

func (e *Executor) cacheable(req Request) bool {
	return e.cache != nil && req.method() == http.MethodGet && !req.userToken()
}

func (e *Executor) initialToken(ctx context.Context, req Request, supplier TokenSupplier) (string, error) {
	if req.userToken() {
		return req.AccessToken, nil
	}
	if !req.RequiresAuth {
		return "", nil
	}
	if supplier == nil {
		return "", errors.TokenError("no token supplier configured", nil)
	}
	return supplier.Token(ctx, req.Region)
}

// roundTrip performs one HTTP exchange and classifies it.
func (e *Executor) roundTrip(ctx context.Context, req Request, token string, attempt int) outcome {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return outcome{kind: outcomeFatal, err: ctxErr}
			}
			return outcome{kind: outcomeFatal, err: errors.RateLimitError("local rate limit exceeded", 0).WithCode("local_rate_limit")}
		}
	}

	fullURL := req.FullURL()
	httpReq, err := http.NewRequestWithContext(ctx, req.method(), fullURL, nil)
	if err != nil {
		return outcome{kind: outcomeFatal, err: errors.InternalError("failed to create request", err)}
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", e.userAgent)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	var (
		status int
		header http.Header
		body   []byte
	)
	start := e.now()
	send := func() error {
		resp, err := e.client.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		header = resp.Header
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			status = 0
			return err
		}
		if status >= 500 {
			// Counted as a breaker failure; classified below.
			return errors.ServerError("server error", nil)
		}
		return nil
	}

	var transportErr error
	if e.breakers != nil {
		err = e.breakers.GetOrCreate("api-" + string(req.Region)).Execute(ctx, send)
	} else {
		err = send()
	}
	if err != nil && status == 0 {
		transportErr = err
	}

	o := classify(ctx, status, header, body, fullURL, transportErr, e.now())
	if o.kind == outcomeSuccess {
		o.resp = &Response{
			StatusCode: status,
			Header:     header,
			Body:       body,
			URL:        fullURL,
			Duration:   e.now().Sub(start),
			Attempts:   attempt,
		}
	}
	return o
}
