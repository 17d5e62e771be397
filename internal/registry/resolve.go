package registry

import (
	"fmt"
	"regexp"
	"strings"

	"blizzard-api/internal/common/errors"
	"blizzard-api/internal/region"

	"github.com/samber/lo"
)

var defaultParams = []string{"region", "locale"}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// resolve merges a descriptor with the pattern it references. It has no side effects.
func resolve(cfg *Config, d EndpointDescriptor) (ResolvedPattern, error) {
	var tmpl *PatternTemplate
	if d.Pattern != "" {
		t, ok := cfg.PatternTemplates[d.Pattern]
		if !ok {
			return ResolvedPattern{}, errors.ConfigError(fmt.Sprintf("endpoint %s references unknown pattern %q", d.MethodName, d.Pattern)).
				WithCode("unknown_pattern").
				WithContext("config", cfg.Key())
		}
		tmpl = t
	}

	// Own params win verbatim, then the template's, then the region/locale default.
	var params []string
	switch {
	case len(d.Params) > 0:
		params = append([]string(nil), d.Params...)
	case tmpl != nil && len(tmpl.Params) > 0:
		params = append([]string(nil), tmpl.Params...)
	default:
		params = append([]string(nil), defaultParams...)
	}

	path := d.Path
	if path == "" && tmpl != nil {
		path = tmpl.PathTemplate
	}
	if path == "" {
		return ResolvedPattern{}, errors.ConfigError(fmt.Sprintf("endpoint %s has neither a pattern nor a path", d.MethodName)).
			WithCode("unresolved_endpoint").
			WithContext("config", cfg.Key())
	}

	if d.ParamName != "" {
		if idx := lo.IndexOf(params, "id"); idx >= 0 {
			params[idx] = d.ParamName
			path = strings.ReplaceAll(path, "{id}", "{"+d.ParamName+"}")
		}
	}
	if !lo.Contains(params, "region") {
		params = append([]string{"region"}, params...)
	}
	path = strings.ReplaceAll(path, "{resource}", d.ResourceName())

	acceptsExtra := false
	switch {
	case d.AcceptsExtra != nil:
		acceptsExtra = *d.AcceptsExtra
	case tmpl != nil:
		acceptsExtra = tmpl.AcceptsExtra
	}

	ns := d.Namespace
	if ns == "" {
		ns = cfg.Namespace
	}
	if ns == "" {
		ns = region.NamespaceNone
	}
	auth := d.Auth
	if auth == "" {
		auth = AuthClient
	}

	pathParams := lo.Map(placeholderRe.FindAllStringSubmatch(path, -1), func(m []string, _ int) string {
		return m[1]
	})
	if missing, _ := lo.Difference(pathParams, params); len(missing) > 0 {
		return ResolvedPattern{}, errors.ConfigError(fmt.Sprintf("endpoint %s path uses undeclared parameters %s", d.MethodName, strings.Join(missing, ", "))).
			WithCode("undeclared_placeholder").
			WithContext("config", cfg.Key())
	}
	queryParams := lo.Filter(params, func(p string, _ int) bool {
		return p != "region" && p != "locale" && !lo.Contains(pathParams, p)
	})

	return ResolvedPattern{
		MethodName:     d.MethodName,
		Description:    d.Description,
		PathTemplate:   path,
		RequiredParams: params,
		PathParams:     pathParams,
		QueryParams:    queryParams,
		AcceptsExtra:   acceptsExtra,
		Namespace:      ns,
		Auth:           auth,
	}, nil
}
