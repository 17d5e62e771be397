package facade

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"blizzard-api/internal/common/errors"
	"blizzard-api/internal/executor"
	"blizzard-api/internal/region"
	"blizzard-api/internal/registry"

	"github.com/samber/lo"
)

// Reserved parameter names. They are never forwarded as query filters.
const (
	ParamRegion      = "region"
	ParamLocale      = "locale"
	ParamAccessToken = "access_token"
	ParamIsClassic   = "is_classic"
)

var reserved = []string{ParamRegion, ParamLocale, ParamAccessToken, ParamIsClassic}

var placeholderRE = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Params are the keyword arguments of one operation call.
type Params map[string]interface{}

// Defaults are the client-wide values used when a call omits region or locale.
type Defaults struct {
	Region region.Region
	Locale string
}

// RequestContext is a validated call, ready to be turned into a request.
type RequestContext struct {
	Region region.Region
	Locale string
	// Values holds the identifier parameters as strings.
	Values      map[string]string
	Extra       url.Values
	AccessToken string
	Classic     bool
}

// Prepare validates params against the resolved pattern without touching the network.
// Checks run in a fixed order: required identifiers, region, locale, then unexpected keys.
func Prepare(pattern registry.ResolvedPattern, defaults Defaults, params Params) (RequestContext, error) {
	rc := RequestContext{Values: make(map[string]string)}

	required := pattern.RequiredParams
	if pattern.Auth == registry.AuthUser {
		required = append(append([]string(nil), required...), ParamAccessToken)
	}

	var missing []string
	for _, name := range required {
		if name == ParamRegion || name == ParamLocale {
			continue
		}
		value, ok := stringParam(params, name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if name != ParamAccessToken {
			rc.Values[name] = value
		}
	}
	if len(missing) > 0 {
		return rc, errors.MissingParameterError(
			fmt.Sprintf("%s: missing required parameter(s) %s", pattern.MethodName, strings.Join(missing, ", ")),
			missing[0], required)
	}

	regionValue, ok := stringParam(params, ParamRegion)
	if !ok {
		regionValue = string(defaults.Region)
	}
	r, err := region.Parse(regionValue)
	if err != nil {
		return rc, err
	}
	rc.Region = r

	if locale, ok := stringParam(params, ParamLocale); ok {
		if err := region.ValidateLocale(r, locale); err != nil {
			return rc, err
		}
		rc.Locale = locale
	} else {
		rc.Locale = defaultLocale(r, defaults)
	}

	rc.AccessToken, _ = stringParam(params, ParamAccessToken)
	if raw, ok := params[ParamIsClassic]; ok {
		classic, err := boolParam(raw)
		if err != nil {
			return rc, errors.ValidationError(fmt.Sprintf("is_classic must be a boolean, got %v", raw)).WithCode("invalid_parameter")
		}
		rc.Classic = classic
	}

	extraKeys := lo.Filter(lo.Keys(params), func(key string, _ int) bool {
		return !lo.Contains(reserved, key) && !lo.Contains(pattern.RequiredParams, key)
	})
	sort.Strings(extraKeys)
	if len(extraKeys) > 0 {
		if !pattern.AcceptsExtra {
			return rc, errors.ValidationError(
				fmt.Sprintf("%s: unexpected parameter(s) %s", pattern.MethodName, strings.Join(extraKeys, ", "))).
				WithCode("unexpected_parameter")
		}
		rc.Extra = make(url.Values, len(extraKeys))
		for _, key := range extraKeys {
			rc.Extra[key] = queryValues(params[key])
		}
	}

	return rc, nil
}

// defaultLocale keeps the client's locale when the region serves it, otherwise it falls
// back to the region's own default.
func defaultLocale(r region.Region, defaults Defaults) string {
	if defaults.Locale != "" && region.ValidateLocale(r, defaults.Locale) == nil {
		return defaults.Locale
	}
	locale, _ := region.DefaultLocale(r)
	return locale
}

// BuildRequest expands the path template and assembles the query for a prepared call.
func BuildRequest(rc RequestContext, pattern registry.ResolvedPattern, hosts region.Hosts) executor.Request {
	lookup := func(name string) string {
		switch name {
		case ParamRegion:
			return string(rc.Region)
		case ParamLocale:
			return rc.Locale
		}
		return rc.Values[name]
	}

	path := placeholderRE.ReplaceAllStringFunc(pattern.PathTemplate, func(m string) string {
		return url.PathEscape(lookup(m[1 : len(m)-1]))
	})

	query := url.Values{}
	if ns := region.NamespaceFor(pattern.Namespace, rc.Region, rc.Classic); ns != "" {
		query.Set("namespace", ns)
	}
	query.Set("locale", rc.Locale)
	for _, name := range pattern.QueryParams {
		query.Set(name, rc.Values[name])
	}
	for key, values := range rc.Extra {
		query[key] = append([]string(nil), values...)
	}

	return executor.Request{
		URL:          hosts.For(rc.Region) + path,
		Query:        query,
		Region:       rc.Region,
		RequiresAuth: true,
		AccessToken:  rc.AccessToken,
		Operation:    pattern.MethodName,
	}
}

// stringParam returns the parameter as a string. Absent, nil and empty values report false.
func stringParam(params Params, name string) (string, bool) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return "", false
	}
	value := formatValue(raw)
	if value == "" {
		return "", false
	}
	return value, true
}

func formatValue(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func queryValues(raw interface{}) []string {
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		return lo.Map(v, func(item interface{}, _ int) string { return formatValue(item) })
	default:
		return []string{formatValue(raw)}
	}
}

func boolParam(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("unsupported type %T", raw)
	}
}
