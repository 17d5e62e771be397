// Package facade turns an endpoint configuration into a table of callable operations.
package facade

import (
	"context"
	"fmt"
	"strings"

	"blizzard-api/internal/async"
	"blizzard-api/internal/common/errors"
	"blizzard-api/internal/common/logging"
	"blizzard-api/internal/executor"
	"blizzard-api/internal/region"
	"blizzard-api/internal/registry"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// AsyncSuffix marks the non-blocking variant of an operation name.
const AsyncSuffix = "_async"

// Payload is a decoded JSON response document.
type Payload map[string]interface{}

// Executor performs prepared requests.
type Executor interface {
	Execute(ctx context.Context, req executor.Request, supplier executor.TokenSupplier) (*executor.Response, error)
}

// Resolver resolves endpoint descriptors into patterns.
type Resolver interface {
	Resolve(game, apiType string, descriptor registry.EndpointDescriptor) (registry.ResolvedPattern, error)
}

// Operation is one generated operation.
type Operation struct {
	Descriptor registry.EndpointDescriptor
	Pattern    registry.ResolvedPattern
}

// Settings carries the collaborators shared by every operation of an API.
type Settings struct {
	Executor Executor
	Supplier executor.TokenSupplier
	Defaults Defaults
	Hosts    region.Hosts
	Logger   logging.Logger
	// Gate is checked before every call; a non-nil error aborts it.
	Gate func() error
}

// API is the dispatch table for one (game, api_type) configuration.
type API struct {
	game     string
	apiType  string
	ops      map[string]*Operation
	order    []string
	settings Settings
	logger   logging.Logger
}

// Build resolves every endpoint of cfg up front, so a broken configuration fails here
// rather than on first call.
func Build(cfg *registry.Config, resolver Resolver, settings Settings) (*API, error) {
	if settings.Executor == nil {
		return nil, errors.ConfigError("facade requires an executor")
	}
	if settings.Logger == nil {
		settings.Logger = logging.GetGlobalLogger()
	}

	api := &API{
		game:     cfg.Game,
		apiType:  cfg.APIType,
		ops:      make(map[string]*Operation, len(cfg.Endpoints)),
		order:    make([]string, 0, len(cfg.Endpoints)),
		settings: settings,
		logger:   settings.Logger.WithFields(logging.String("api", cfg.Key())),
	}

	for _, d := range cfg.Endpoints {
		pattern, err := resolver.Resolve(cfg.Game, cfg.APIType, d)
		if err != nil {
			return nil, err
		}
		api.ops[d.MethodName] = &Operation{Descriptor: d, Pattern: pattern}
		api.order = append(api.order, d.MethodName)
	}
	return api, nil
}

// Game returns the game code, e.g. "wow".
func (a *API) Game() string { return a.game }

// APIType returns the API type, e.g. "game_data".
func (a *API) APIType() string { return a.apiType }

// Operation looks up an operation by its sync or async name.
func (a *API) Operation(name string) (*Operation, bool) {
	op, ok := a.ops[strings.TrimSuffix(name, AsyncSuffix)]
	return op, ok
}

// Has reports whether name is a generated operation.
func (a *API) Has(name string) bool {
	_, ok := a.Operation(name)
	return ok
}

func (a *API) lookup(name string) (*Operation, error) {
	op, ok := a.Operation(name)
	if !ok {
		return nil, errors.ValidationError(fmt.Sprintf("%s_%s has no operation %q", a.game, a.apiType, name)).
			WithCode("unknown_operation")
	}
	return op, nil
}

// Call performs the named operation and blocks until it completes. An "_async" name is
// accepted and awaited.
func (a *API) Call(ctx context.Context, name string, params Params) (Payload, error) {
	if strings.HasSuffix(name, AsyncSuffix) {
		return a.CallAsync(ctx, name, params).Await(ctx)
	}
	return a.call(ctx, name, params)
}

// CallAsync starts the named operation on its own goroutine. It runs exactly the same
// validation and request path as Call.
func (a *API) CallAsync(ctx context.Context, name string, params Params) *async.Future[Payload] {
	name = strings.TrimSuffix(name, AsyncSuffix)
	return async.Go(ctx, func(ctx context.Context) (Payload, error) {
		return a.call(ctx, name, params)
	})
}

func (a *API) call(ctx context.Context, name string, params Params) (Payload, error) {
	if a.settings.Gate != nil {
		if err := a.settings.Gate(); err != nil {
			return nil, err
		}
	}

	op, err := a.lookup(name)
	if err != nil {
		return nil, err
	}

	rc, err := Prepare(op.Pattern, a.settings.Defaults, params)
	if err != nil {
		return nil, err
	}
	req := BuildRequest(rc, op.Pattern, a.settings.Hosts)

	a.logger.Debug("Calling operation",
		logging.String("operation", name),
		logging.String("region", string(rc.Region)),
		logging.String("locale", rc.Locale))

	resp, err := a.settings.Executor.Execute(ctx, req, a.settings.Supplier)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return Payload{}, nil
	}

	var payload Payload
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// CallAll runs the operation once per params set with at most limit calls in flight.
// Results keep the order of paramSets. The first failure cancels the remaining calls.
func (a *API) CallAll(ctx context.Context, name string, paramSets []Params, limit int) ([]Payload, error) {
	if _, err := a.lookup(name); err != nil {
		return nil, err
	}

	results := make([]Payload, len(paramSets))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, params := range paramSets {
		i, params := i, params
		g.Go(func() error {
			payload, err := a.call(gctx, strings.TrimSuffix(name, AsyncSuffix), params)
			if err != nil {
				return err
			}
			results[i] = payload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Methods lists every generated name, each sync name followed by its async variant, in
// declaration order.
func (a *API) Methods() []string {
	return lo.FlatMap(a.order, func(name string, _ int) []string {
		return []string{name, name + AsyncSuffix}
	})
}

// Describe renders a signature-like description of the operation, e.g.
// "get_achievement(achievement_id, region=None, locale=None) - Get an achievement by ID".
func (a *API) Describe(name string) (string, error) {
	op, err := a.lookup(name)
	if err != nil {
		return "", err
	}
	p := op.Pattern

	args := append([]string(nil), p.Identifiers()...)
	if p.Auth == registry.AuthUser {
		args = append(args, ParamAccessToken)
	}
	args = append(args, "region=None", "locale=None")
	if p.Auth != registry.AuthUser {
		args = append(args, "access_token=None")
	}
	if p.Namespace == region.NamespaceStatic || p.Namespace == region.NamespaceDynamic {
		args = append(args, "is_classic=False")
	}
	if p.AcceptsExtra {
		args = append(args, "**filters")
	}

	sig := fmt.Sprintf("%s(%s)", name, strings.Join(args, ", "))
	if p.Description != "" {
		sig += " - " + p.Description
	}
	return sig, nil
}
