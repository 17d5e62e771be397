// Package blizzard is a client for the Battle.net game APIs. Every endpoint is generated
// from an embedded YAML configuration and called by name:
//
//	client, err := blizzard.New(id, secret, blizzard.WithRegion("eu"))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	achievement, err := client.WoW.GameData.Call(ctx, "get_achievement", blizzard.Params{
//		"achievement_id": 6,
//	})
package blizzard

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"blizzard-api/internal/circuitbreaker"
	"blizzard-api/internal/common/cache"
	"blizzard-api/internal/common/errors"
	"blizzard-api/internal/common/logging"
	"blizzard-api/internal/common/ratelimit"
	"blizzard-api/internal/common/validation"
	"blizzard-api/internal/config"
	"blizzard-api/internal/executor"
	"blizzard-api/internal/facade"
	"blizzard-api/internal/oauth2"
	"blizzard-api/internal/redis"
	"blizzard-api/internal/region"
	"blizzard-api/internal/registry"
)

// Client holds one set of credentials and the API families built for them. It is safe
// for concurrent use.
type Client struct {
	WoW         WoW
	D3          D3
	Hearthstone Hearthstone
	SC2         SC2

	apis     map[string]*API
	registry *registry.Registry
	tokens   *oauth2.Manager
	exec     *executor.Executor
	logger   logging.Logger

	ownedHTTP *http.Client
	redis     *redis.Client

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// WoW groups the World of Warcraft APIs.
type WoW struct {
	GameData *API
	Profile  *API
}

// D3 groups the Diablo III APIs.
type D3 struct {
	GameData  *API
	Community *API
}

// Hearthstone groups the Hearthstone APIs.
type Hearthstone struct {
	GameData *API
}

// SC2 groups the StarCraft II APIs.
type SC2 struct {
	GameData  *API
	Community *API
}

// New creates a client for the given credentials. Nothing is requested from Battle.net
// until the first call.
func New(clientID, clientSecret string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return build(clientID, clientSecret, o)
}

// NewFromEnv creates a client from the BLIZZARD_* and REDIS_* environment variables.
// Options are applied after the environment and take precedence.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	o.region = cfg.Region
	o.locale = cfg.Locale
	o.timeout = cfg.Timeout
	o.retry = cfg.RetryPolicy()
	o.rateLimit = cfg.RateLimitConfig("")
	o.cache = cfg.CacheConfig()
	if cfg.NeedsRedis() {
		o.redis = cfg.RedisConfig()
	}
	for _, opt := range opts {
		opt(&o)
	}
	return build(cfg.ClientID, cfg.ClientSecret, o)
}

// Run creates a client, passes it to fn and closes it on every exit path, panics included.
func Run(ctx context.Context, clientID, clientSecret string, fn func(context.Context, *Client) error, opts ...Option) (err error) {
	client, err := New(clientID, clientSecret, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, client)
}

func build(clientID, clientSecret string, o options) (_ *Client, err error) {
	logger := o.logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	r, err := region.Parse(o.region)
	if err != nil {
		return nil, err
	}
	if o.locale != "" {
		if err := validation.ValidateVar(o.locale, "locale"); err != nil {
			return nil, errors.InvalidLocaleError(o.locale, region.Locales(r))
		}
	}

	c := &Client{logger: logger}
	// Release whatever was acquired if a later step fails.
	defer func() {
		if err != nil {
			_ = c.release()
		}
	}()

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
		c.ownedHTTP = httpClient
	}

	var hosts region.Hosts
	var tokenURLs map[region.Region]string
	if o.apiBase != "" || o.tokenURL != "" {
		hosts = region.Hosts{}
		tokenURLs = map[region.Region]string{}
		for _, code := range region.All() {
			rr := region.Region(code)
			if o.apiBase != "" {
				hosts[rr] = o.apiBase
			}
			if o.tokenURL != "" {
				tokenURLs[rr] = o.tokenURL
			}
		}
	}

	c.tokens, err = oauth2.NewManager(oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		SafetyMargin: o.safetyMargin,
		TokenURLs:    tokenURLs,
		HTTPClient:   httpClient,
		Logger:       logger,
	}, oauth2.NewMemoryTokenStore())
	if err != nil {
		return nil, err
	}
	identity := c.tokens.Identity()
	logger = logger.WithFields(logging.String("client", identity))
	c.logger = logger

	needsRedis := o.cache.Type.NeedsRedis() ||
		(o.rateLimit.Enabled && o.rateLimit.Type == ratelimit.BackendRedis)
	if needsRedis {
		if o.redis == nil {
			return nil, errors.ConfigError("redis connection is required by the cache or rate limit backend").
				WithCode("redis_required")
		}
		c.redis, err = redis.NewClient(o.redis)
		if err != nil {
			return nil, errors.ConfigError("failed to connect to redis").WithContext("reason", err.Error())
		}
	}

	cacheCfg := o.cache
	var respCache cache.Cache
	if cacheCfg.Type != "" && cacheCfg.Type != cache.TypeNone {
		if c.redis != nil {
			cacheCfg.RedisClient = c.redis.Raw()
		}
		respCache, err = cache.New(cacheCfg)
		if err != nil {
			return nil, errors.ConfigError("invalid cache configuration").WithContext("reason", err.Error())
		}
	}

	limitCfg := o.rateLimit
	limitCfg.Key = identity
	var limiterRedis ratelimit.RedisInterface
	if c.redis != nil {
		limiterRedis = c.redis
	}
	limiter, err := ratelimit.New(limitCfg, limiterRedis)
	if err != nil {
		return nil, errors.ConfigError("invalid rate limit configuration").WithContext("reason", err.Error())
	}

	var breakers *circuitbreaker.GoBreakerManager
	if o.breaker != nil {
		if err := o.breaker.Validate(); err != nil {
			return nil, errors.ConfigError("invalid circuit breaker configuration").WithContext("reason", err.Error())
		}
		breakers = circuitbreaker.NewGoBreakerManager(*o.breaker, logger)
	}

	c.exec, err = executor.New(executor.Config{
		HTTPClient: httpClient,
		Policy:     o.retry,
		Limiter:    limiter,
		Cache:      respCache,
		CacheTTL:   cacheCfg.TTL,
		Breakers:   breakers,
		Logger:     logger,
		UserAgent:  o.userAgent,
	})
	if err != nil {
		return nil, err
	}

	c.registry = registry.New()
	settings := facade.Settings{
		Executor: c.exec,
		Supplier: c.tokens.Supplier(),
		Defaults: facade.Defaults{Region: r, Locale: o.locale},
		Hosts:    hosts,
		Logger:   logger,
		Gate:     c.gate,
	}
	c.apis = make(map[string]*API)
	for _, key := range c.registry.Available() {
		game, apiType, _ := registry.SplitKey(key)
		cfg, err := c.registry.Load(game, apiType)
		if err != nil {
			return nil, err
		}
		built, err := facade.Build(cfg, c.registry, settings)
		if err != nil {
			return nil, err
		}
		c.apis[key] = &API{api: built}
	}

	c.WoW = WoW{GameData: c.apis["wow_game_data"], Profile: c.apis["wow_profile"]}
	c.D3 = D3{GameData: c.apis["d3_game_data"], Community: c.apis["d3_community"]}
	c.Hearthstone = Hearthstone{GameData: c.apis["hs_game_data"]}
	c.SC2 = SC2{GameData: c.apis["sc2_game_data"], Community: c.apis["sc2_community"]}

	logger.Info("Client created",
		logging.String("region", string(r)),
		logging.Int("apis", len(c.apis)),
		logging.Bool("cache", respCache != nil),
		logging.Bool("rate_limit", limitCfg.Enabled))
	return c, nil
}

// API returns the API for a game and api type, e.g. ("wow", "game_data").
func (c *Client) API(game, apiType string) (*API, error) {
	if api, ok := c.apis[game+"_"+apiType]; ok {
		return api, nil
	}
	return nil, errors.ConfigNotFoundError(game, apiType)
}

// Available lists the configuration keys, e.g. "wow_game_data".
func (c *Client) Available() []string {
	return c.registry.Available()
}

// RetryPolicy returns the retry policy in effect.
func (c *Client) RetryPolicy() RetryPolicy {
	return c.exec.Policy()
}

// Ping checks the client's external dependencies. It returns ErrClientClosed after Close
// and the Redis error when a configured Redis server does not answer.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.gate(); err != nil {
		return err
	}
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Health(ctx); err != nil {
		return errors.ConnectionError("redis is unreachable", err)
	}
	return nil
}

func (c *Client) gate() error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return nil
}

// Close releases the client's resources. It is safe to call more than once; later calls
// return the result of the first.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.release()
		c.logger.Info("Client closed")
	})
	return c.closeErr
}

func (c *Client) release() error {
	var errs []error
	if c.tokens != nil {
		if err := c.tokens.Close(); err != nil {
			errs = append(errs, fmt.Errorf("token manager: %w", err))
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if c.ownedHTTP != nil {
		c.ownedHTTP.CloseIdleConnections()
	}
	return stderrors.Join(errs...)
}
