package registry

import (
	"fmt"
	"strings"

	"blizzard-api/internal/region"
)

// AuthMode says which kind of bearer token an endpoint needs.
type AuthMode string

const (
	// AuthClient endpoints use the client-credentials token managed by the client.
	AuthClient AuthMode = "client"
	// AuthUser endpoints need a user-delegated access token supplied per call.
	AuthUser AuthMode = "user"
)

// PatternTemplate is a reusable path and parameter shape shared by several endpoints.
type PatternTemplate struct {
	Name         string   `yaml:"-"`
	PathTemplate string   `yaml:"path_template"`
	Params       []string `yaml:"params"`
	AcceptsExtra bool     `yaml:"accepts_kwargs"`
}

// EndpointDescriptor is one logical operation as declared in a configuration document.
type EndpointDescriptor struct {
	MethodName   string           `yaml:"method_name"`
	Description  string           `yaml:"description"`
	Pattern      string           `yaml:"pattern,omitempty"`
	Params       []string         `yaml:"params,omitempty"`
	ParamName    string           `yaml:"param_name,omitempty"`
	AcceptsExtra *bool            `yaml:"accepts_kwargs,omitempty"`
	Path         string           `yaml:"path,omitempty"`
	Resource     string           `yaml:"resource,omitempty"`
	Namespace    region.Namespace `yaml:"namespace,omitempty"`
	Auth         AuthMode         `yaml:"auth,omitempty"`
}

// ResourceName returns the value of the {resource} placeholder: the explicit resource, or
// the method name without its verb prefix in URL form (get_achievement_category becomes
// achievement-category).
func (d EndpointDescriptor) ResourceName() string {
	if d.Resource != "" {
		return d.Resource
	}
	name := d.MethodName
	for _, prefix := range []string{"get_", "search_"} {
		if strings.HasPrefix(name, prefix) {
			name = strings.TrimPrefix(name, prefix)
			break
		}
	}
	return strings.ReplaceAll(name, "_", "-")
}

// Config is the parsed configuration for one (game, api_type) pair.
type Config struct {
	Game             string                      `yaml:"-"`
	APIType          string                      `yaml:"api_type"`
	Version          string                      `yaml:"version"`
	Namespace        region.Namespace            `yaml:"namespace"`
	PatternTemplates map[string]*PatternTemplate `yaml:"pattern_templates"`
	Endpoints        []EndpointDescriptor        `yaml:"endpoints"`
}

// Key identifies the config, e.g. "wow_game_data".
func (c *Config) Key() string {
	return configKey(c.Game, c.APIType)
}

// Endpoint returns the descriptor named method.
func (c *Config) Endpoint(method string) (EndpointDescriptor, bool) {
	for _, e := range c.Endpoints {
		if e.MethodName == method {
			return e, true
		}
	}
	return EndpointDescriptor{}, false
}

func configKey(game, apiType string) string {
	return fmt.Sprintf("%s_%s", game, apiType)
}

// ResolvedPattern is an endpoint merged with its pattern template: the concrete path
// template and the full parameter contract of the generated operation.
type ResolvedPattern struct {
	MethodName  string
	Description string
	// PathTemplate has {resource} filled in and {id} renamed when a substitution applies.
	PathTemplate string
	// RequiredParams always starts with region.
	RequiredParams []string
	// PathParams are the placeholders of PathTemplate in order of appearance.
	PathParams []string
	// QueryParams are required parameters that are neither path placeholders nor region/locale.
	QueryParams  []string
	AcceptsExtra bool
	Namespace    region.Namespace
	Auth         AuthMode
}

// Identifiers returns the required parameters the caller must supply explicitly,
// i.e. everything except region and locale.
func (p ResolvedPattern) Identifiers() []string {
	out := make([]string, 0, len(p.RequiredParams))
	for _, name := range p.RequiredParams {
		if name != "region" && name != "locale" {
			out = append(out, name)
		}
	}
	return out
}
