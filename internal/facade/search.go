package facade

import (
	"context"
	"strconv"
	"strings"

	"blizzard-api/internal/common/errors"
	"blizzard-api/internal/common/logging"
	"blizzard-api/internal/common/pagination"
)

// SearchAll calls a search operation page by page and returns the concatenated results.
// It starts at params["_page"] when set, otherwise at page 1. maxPages of zero or less
// reads every page.
func (a *API) SearchAll(ctx context.Context, name string, params Params, pageSize, maxPages int) ([]interface{}, error) {
	name = strings.TrimSuffix(name, AsyncSuffix)
	op, err := a.lookup(name)
	if err != nil {
		return nil, err
	}
	if !op.Pattern.AcceptsExtra {
		return nil, errors.ValidationError(name + " does not accept search parameters").WithCode("not_searchable")
	}

	page := 1
	if raw, ok := params[pagination.PageParam]; ok {
		if page, err = strconv.Atoi(formatValue(raw)); err != nil || page < 1 {
			return nil, errors.ValidationError("_page must be a positive integer").WithCode("invalid_page")
		}
	}
	size := pagination.ClampPageSize(pageSize)

	var results []interface{}
	for fetched := 0; maxPages <= 0 || fetched < maxPages; fetched++ {
		pageParams := make(Params, len(params)+2)
		for k, v := range params {
			pageParams[k] = v
		}
		pageParams[pagination.PageParam] = page
		pageParams[pagination.PageSizeParam] = size

		payload, err := a.call(ctx, name, pageParams)
		if err != nil {
			return nil, err
		}
		env, err := pagination.Parse(payload)
		if err != nil {
			return nil, errors.InternalError("unexpected search response", err).WithContext("operation", name)
		}
		results = append(results, env.Results...)

		a.logger.Debug("Fetched search page",
			logging.String("operation", name),
			logging.Int("page", env.Page),
			logging.Int("page_count", env.PageCount))

		if !env.HasNext() || page >= env.PageCount {
			break
		}
		page++
	}
	return results, nil
}
