// Package region describes the Battle.net service deployments: which region codes exist,
// which locales each one serves, and the hosts and namespaces a request is routed to.
package region

import (
	"fmt"
	"strings"

	"blizzard-api/internal/common/errors"
)

// Region is a Battle.net deployment code.
type Region string

const (
	US Region = "us"
	EU Region = "eu"
	KR Region = "kr"
	TW Region = "tw"
	CN Region = "cn"
)

// Namespace selects the data partition an endpoint is served from.
type Namespace string

const (
	NamespaceStatic  Namespace = "static"
	NamespaceDynamic Namespace = "dynamic"
	NamespaceProfile Namespace = "profile"
	// NamespaceNone marks APIs that take no namespace, such as the D3 and SC2 community APIs.
	NamespaceNone Namespace = "none"
)

type info struct {
	defaultLocale string
	locales       []string
	apiHost       string
	oauthHost     string
}

var regions = map[Region]info{
	US: {defaultLocale: "en_US", locales: []string{"en_US", "es_MX", "pt_BR"}},
	EU: {defaultLocale: "en_GB", locales: []string{"en_GB", "es_ES", "fr_FR", "ru_RU", "de_DE", "pt_PT", "it_IT"}},
	KR: {defaultLocale: "ko_KR", locales: []string{"ko_KR"}},
	TW: {defaultLocale: "zh_TW", locales: []string{"zh_TW"}},
	CN: {
		defaultLocale: "zh_CN",
		locales:       []string{"zh_CN"},
		apiHost:       "https://gateway.battlenet.com.cn",
		oauthHost:     "https://www.battlenet.com.cn",
	},
}

// order fixes the listing order used in error messages.
var order = []Region{US, EU, KR, TW, CN}

// All returns every known region code in a stable order.
func All() []string {
	out := make([]string, len(order))
	for i, r := range order {
		out[i] = string(r)
	}
	return out
}

// Parse validates a region code. Codes are case-insensitive.
func Parse(code string) (Region, error) {
	r := Region(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := regions[r]; !ok {
		return "", errors.InvalidRegionError(code, All())
	}
	return r, nil
}

// DefaultLocale returns the locale used when a call does not name one.
func DefaultLocale(r Region) (string, error) {
	i, ok := regions[r]
	if !ok {
		return "", errors.InvalidRegionError(string(r), All())
	}
	return i.defaultLocale, nil
}

// Locales returns the locales served by r.
func Locales(r Region) []string {
	return append([]string(nil), regions[r].locales...)
}

// ValidateLocale checks that locale is served by r.
func ValidateLocale(r Region, locale string) error {
	i, ok := regions[r]
	if !ok {
		return errors.InvalidRegionError(string(r), All())
	}
	for _, l := range i.locales {
		if l == locale {
			return nil
		}
	}
	return errors.InvalidLocaleError(locale, i.locales).WithContext("region", string(r))
}

// APIHost returns the base URL for game data requests in r.
func APIHost(r Region) string {
	if h := regions[r].apiHost; h != "" {
		return h
	}
	return fmt.Sprintf("https://%s.api.blizzard.com", r)
}

func oauthHost(r Region) string {
	if h := regions[r].oauthHost; h != "" {
		return h
	}
	return fmt.Sprintf("https://%s.battle.net", r)
}

// TokenURL returns the client-credentials token endpoint for r.
func TokenURL(r Region) string {
	return oauthHost(r) + "/oauth/token"
}

// AuthorizeURL returns the authorization-code endpoint for r.
func AuthorizeURL(r Region) string {
	return oauthHost(r) + "/oauth/authorize"
}

// NamespaceFor renders the namespace query value, e.g. "static-us" or "dynamic-classic-eu".
// Profile data has no classic variant. An empty result means no namespace is sent.
func NamespaceFor(ns Namespace, r Region, classic bool) string {
	switch ns {
	case NamespaceStatic, NamespaceDynamic:
		if classic {
			return fmt.Sprintf("%s-classic-%s", ns, r)
		}
		return fmt.Sprintf("%s-%s", ns, r)
	case NamespaceProfile:
		return fmt.Sprintf("profile-%s", r)
	default:
		return ""
	}
}

// ParseNamespace accepts the configuration spelling of a namespace. Empty means none.
func ParseNamespace(s string) (Namespace, error) {
	switch ns := Namespace(strings.ToLower(s)); ns {
	case NamespaceStatic, NamespaceDynamic, NamespaceProfile, NamespaceNone:
		return ns, nil
	case "":
		return NamespaceNone, nil
	default:
		return "", errors.ConfigError(fmt.Sprintf("unknown namespace %q", s))
	}
}

// Hosts maps regions to API base URLs. A nil or partial map falls back to APIHost.
type Hosts map[Region]string

// For returns the base URL for r without a trailing slash.
func (h Hosts) For(r Region) string {
	if base, ok := h[r]; ok && base != "" {
		return strings.TrimRight(base, "/")
	}
	return APIHost(r)
}
