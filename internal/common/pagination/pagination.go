// Package pagination reads the envelope returned by Battle.net search endpoints.
package pagination

import (
	"fmt"
	"strconv"
)

const (
	// PageParam and PageSizeParam are the query parameters search endpoints page with.
	PageParam     = "_page"
	PageSizeParam = "_pageSize"

	// DefaultPageSize is what search endpoints return when no page size is sent.
	DefaultPageSize = 100
	// MaxPageSize is the largest page size search endpoints accept.
	MaxPageSize = 1000
)

// Page is one search response envelope.
type Page struct {
	Page        int
	PageSize    int
	MaxPageSize int
	PageCount   int
	Results     []interface{}
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool {
	return p.Page < p.PageCount
}

// Parse extracts the envelope from a decoded search response. Numbers may arrive as
// float64 from encoding/json or as strings.
func Parse(doc map[string]interface{}) (Page, error) {
	results, ok := doc["results"].([]interface{})
	if !ok {
		if _, present := doc["results"]; present {
			return Page{}, fmt.Errorf("results is %T, not a list", doc["results"])
		}
		return Page{}, fmt.Errorf("response has no results field")
	}

	p := Page{Results: results}
	var err error
	if p.Page, err = intField(doc, "page", 1); err != nil {
		return Page{}, err
	}
	if p.PageSize, err = intField(doc, "pageSize", len(results)); err != nil {
		return Page{}, err
	}
	if p.MaxPageSize, err = intField(doc, "maxPageSize", MaxPageSize); err != nil {
		return Page{}, err
	}
	if p.PageCount, err = intField(doc, "pageCount", p.Page); err != nil {
		return Page{}, err
	}
	return p, nil
}

// ClampPageSize bounds size to what search endpoints accept. Zero or less selects the default.
func ClampPageSize(size int) int {
	if size < 1 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

func intField(doc map[string]interface{}, key string, fallback int) (int, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s is not a number: %q", key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s has unexpected type %T", key, raw)
	}
}
