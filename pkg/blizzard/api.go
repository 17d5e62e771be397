package blizzard

import (
	"context"

	"blizzard-api/internal/async"
	"blizzard-api/internal/facade"
)

// Params are the named arguments of a call: the endpoint's identifiers plus the optional
// region, locale, access_token and is_classic.
type Params = facade.Params

// Payload is a decoded JSON response.
type Payload = facade.Payload

// Future is the pending result of an asynchronous call.
type Future = async.Future[Payload]

// API exposes the generated operations of one game and api type.
type API struct {
	api *facade.API
}

// Game returns the game code, e.g. "wow".
func (a *API) Game() string { return a.api.Game() }

// APIType returns the api type, e.g. "game_data".
func (a *API) APIType() string { return a.api.APIType() }

// Call performs the named operation, e.g. "get_achievement", and waits for the result.
// Names ending in "_async" are accepted and awaited.
func (a *API) Call(ctx context.Context, name string, params Params) (Payload, error) {
	return a.api.Call(ctx, name, params)
}

// CallAsync starts the named operation and returns immediately. Validation errors are
// reported through the Future.
func (a *API) CallAsync(ctx context.Context, name string, params Params) *Future {
	return a.api.CallAsync(ctx, name, params)
}

// CallAll performs the operation once per params set, running at most limit calls at a
// time. A limit of zero or less means no limit.
func (a *API) CallAll(ctx context.Context, name string, paramSets []Params, limit int) ([]Payload, error) {
	return a.api.CallAll(ctx, name, paramSets, limit)
}

// Has reports whether the API defines the operation.
func (a *API) Has(name string) bool { return a.api.Has(name) }

// Methods lists every operation name including the "_async" variants.
func (a *API) Methods() []string { return a.api.Methods() }

// Describe returns the signature and description of an operation.
func (a *API) Describe(name string) (string, error) { return a.api.Describe(name) }

// SearchAll calls a search operation page by page and returns every result. pageSize is
// clamped to what the API accepts; maxPages of zero or less reads every page.
func (a *API) SearchAll(ctx context.Context, name string, params Params, pageSize, maxPages int) ([]interface{}, error) {
	return a.api.SearchAll(ctx, name, params, pageSize, maxPages)
}
