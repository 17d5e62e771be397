// Package registry loads the declarative endpoint configurations and resolves each
// endpoint against its pattern template.
//
// One YAML document exists per (game, api_type) pair, named "<game>_<api_type>.yaml".
// Documents are parsed lazily on first use and kept for the lifetime of the Registry.
package registry

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"

	"blizzard-api/internal/common/errors"
	"blizzard-api/internal/common/logging"
	commonregistry "blizzard-api/internal/common/registry"
	"blizzard-api/internal/region"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed configs/*.yaml
var embedded embed.FS

const configDir = "configs"

// loadGate serializes the first load of one key. Later callers read the result.
type loadGate struct {
	once sync.Once
	cfg  *Config
	err  error
}

// Registry indexes endpoint configurations by (game, api_type).
type Registry struct {
	fsys    fs.FS
	dir     string
	configs *commonregistry.Registry[*Config]
	gates   sync.Map // key -> *loadGate
	// resolved memoises ResolvedPattern per "<config key>/<method name>".
	resolved sync.Map
}

// New returns a registry backed by the configurations compiled into the binary.
func New() *Registry {
	return NewFromFS(embedded, configDir)
}

// NewFromFS returns a registry reading "<game>_<api_type>.yaml" documents from dir in fsys.
func NewFromFS(fsys fs.FS, dir string) *Registry {
	return &Registry{
		fsys:    fsys,
		dir:     dir,
		configs: commonregistry.New[*Config](),
	}
}

// Load returns the configuration for (game, apiType), parsing it on first use.
// Concurrent first loads of the same key parse the document once.
func (r *Registry) Load(game, apiType string) (*Config, error) {
	key := configKey(game, apiType)
	if cfg, err := r.configs.Get(key); err == nil {
		return cfg, nil
	}

	g, _ := r.gates.LoadOrStore(key, &loadGate{})
	gate := g.(*loadGate)
	gate.once.Do(func() {
		gate.cfg, gate.err = r.parse(game, apiType)
		if gate.err == nil {
			r.configs.Register(gate.cfg)
			logging.Debug("Loaded endpoint configuration",
				logging.String("config", key),
				logging.Int("endpoints", len(gate.cfg.Endpoints)))
		}
	})
	return gate.cfg, gate.err
}

// Endpoints returns the endpoints of (game, apiType) in declaration order.
func (r *Registry) Endpoints(game, apiType string) ([]EndpointDescriptor, error) {
	cfg, err := r.Load(game, apiType)
	if err != nil {
		return nil, err
	}
	return append([]EndpointDescriptor(nil), cfg.Endpoints...), nil
}

// Resolve merges descriptor with the pattern template it references in (game, apiType).
// Results for the configuration's own endpoints are memoised per configuration and method
// name. Any other descriptor, including an edited copy of a configured one, is resolved
// on every call.
func (r *Registry) Resolve(game, apiType string, descriptor EndpointDescriptor) (ResolvedPattern, error) {
	cfg, err := r.Load(game, apiType)
	if err != nil {
		return ResolvedPattern{}, err
	}
	configured, ok := cfg.Endpoint(descriptor.MethodName)
	if !ok || !reflect.DeepEqual(configured, descriptor) {
		return resolve(cfg, descriptor)
	}

	memoKey := cfg.Key() + "/" + descriptor.MethodName
	if p, ok := r.resolved.Load(memoKey); ok {
		return p.(ResolvedPattern), nil
	}
	p, err := resolve(cfg, descriptor)
	if err != nil {
		return ResolvedPattern{}, err
	}
	actual, _ := r.resolved.LoadOrStore(memoKey, p)
	return actual.(ResolvedPattern), nil
}

// Available lists the keys of every configuration the registry can load, e.g. "wow_game_data".
func (r *Registry) Available() []string {
	entries, err := fs.ReadDir(r.fsys, r.dir)
	if err != nil {
		return nil
	}
	keys := lo.FilterMap(entries, func(e fs.DirEntry, _ int) (string, bool) {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".yaml" {
			return "", false
		}
		return strings.TrimSuffix(name, ".yaml"), true
	})
	sort.Strings(keys)
	return keys
}

// SplitKey splits a configuration key such as "wow_game_data" into game and api type.
func SplitKey(key string) (game, apiType string, ok bool) {
	return strings.Cut(key, "_")
}

func (r *Registry) parse(game, apiType string) (*Config, error) {
	name := path.Join(r.dir, configKey(game, apiType)+".yaml")
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, errors.ConfigNotFoundError(game, apiType)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("parsing %s", name)).WithCode("invalid_document").WithContext("cause", err.Error())
	}
	cfg.Game = game
	if cfg.APIType == "" {
		cfg.APIType = apiType
	}
	if cfg.APIType != apiType {
		return nil, errors.ConfigError(fmt.Sprintf("%s declares api_type %q", name, cfg.APIType)).WithCode("api_type_mismatch")
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects duplicate method names, unknown enum values and endpoints that do not resolve.
func validate(cfg *Config) error {
	ns, err := region.ParseNamespace(string(cfg.Namespace))
	if err != nil {
		return err.(*errors.AppError).WithContext("config", cfg.Key())
	}
	cfg.Namespace = ns

	for name, tmpl := range cfg.PatternTemplates {
		if tmpl == nil {
			return errors.ConfigError(fmt.Sprintf("pattern %q is empty", name)).WithContext("config", cfg.Key())
		}
		tmpl.Name = name
	}

	dups := lo.FindDuplicatesBy(cfg.Endpoints, func(e EndpointDescriptor) string { return e.MethodName })
	if len(dups) > 0 {
		return errors.ConfigError(fmt.Sprintf("duplicate method_name %q", dups[0].MethodName)).
			WithCode("duplicate_method").
			WithContext("config", cfg.Key())
	}

	for i := range cfg.Endpoints {
		e := &cfg.Endpoints[i]
		if e.MethodName == "" {
			return errors.ConfigError("endpoint without method_name").WithContext("config", cfg.Key())
		}
		if e.Namespace != "" {
			ns, err := region.ParseNamespace(string(e.Namespace))
			if err != nil {
				return err.(*errors.AppError).WithContext("method", e.MethodName)
			}
			e.Namespace = ns
		}
		if e.Auth != "" && e.Auth != AuthClient && e.Auth != AuthUser {
			return errors.ConfigError(fmt.Sprintf("endpoint %s has unknown auth mode %q", e.MethodName, e.Auth)).
				WithContext("config", cfg.Key())
		}
		if _, err := resolve(cfg, *e); err != nil {
			return err
		}
	}
	return nil
}
