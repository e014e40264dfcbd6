package provider

import (
	"errors"
	"fmt"
	"sync"

	"github.com/oxbot/oxbot/internal/runtime"
)

// PlaceholderAPIKey satisfies backends that require a bearer token but do
// not check it, such as local inference servers.
const PlaceholderAPIKey = "not-needed"

// Registry slot names. Exactly one local and one cloud provider exist at a
// time; registering a slot replaces it.
const (
	KeyLocal = "local"
	KeyCloud = "cloud"
)

// ErrUnknownProvider is returned when a slot name is neither local nor cloud.
var ErrUnknownProvider = errors.New("unknown provider")

// Config describes one provider slot.
type Config struct {
	Name     string
	Endpoint string
	Model    string
	APIKey   string
	Offline  bool // true for providers that never need a real credential
}

// Issue classifies why an active provider cannot be used.
type Issue int

const (
	None Issue = iota
	NoProvider
	MissingEndpoint
	MissingModel
	MissingCredential
)

// Validity is the result of validating the active provider.
type Validity struct {
	Issue  Issue
	Detail string
}

func (v Validity) OK() bool {
	return v.Issue == None
}

// Registry holds the two provider slots and tracks which one is active.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]Config
	active  string
}

func NewRegistry() *Registry {
	return &Registry{
		configs: make(map[string]Config),
	}
}

// RegisterLocal installs the local slot. Offline providers get the
// placeholder credential so downstream clients always carry a key.
func (r *Registry) RegisterLocal(cfg Config) {
	cfg.Offline = true
	if cfg.APIKey == "" {
		cfg.APIKey = PlaceholderAPIKey
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[KeyLocal] = cfg
	if r.active == "" {
		r.active = KeyLocal
	}
}

// RegisterCloud installs the cloud slot.
func (r *Registry) RegisterCloud(cfg Config) {
	cfg.Offline = false
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[KeyCloud] = cfg
	if r.active == "" {
		r.active = KeyCloud
	}
}

// UpdateAPIKey replaces the credential of one slot.
func (r *Registry) UpdateAPIKey(name, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	cfg.APIKey = key
	r.configs[name] = cfg
	return nil
}

// SelectActive switches the active slot.
func (r *Registry) SelectActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.configs[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	r.active = name
	return nil
}

// Active returns the name of the active slot, empty when none is set.
func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// ActiveConfig returns a copy of the active slot configuration.
func (r *Registry) ActiveConfig() (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[r.active]
	return cfg, ok
}

// Names lists the registered slots, local first.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, k := range []string{KeyLocal, KeyCloud} {
		if _, ok := r.configs[k]; ok {
			names = append(names, k)
		}
	}
	return names
}

// ValidateActive checks that the active provider is usable. Offline
// providers accept the placeholder credential; cloud providers need a real
// one.
func (r *Registry) ValidateActive() Validity {
	cfg, ok := r.ActiveConfig()
	if !ok {
		return Validity{Issue: NoProvider, Detail: "no provider selected"}
	}
	if cfg.Endpoint == "" {
		return Validity{Issue: MissingEndpoint, Detail: "provider has no endpoint"}
	}
	if cfg.Model == "" {
		return Validity{Issue: MissingModel, Detail: "provider has no model"}
	}
	if !cfg.Offline && (cfg.APIKey == "" || cfg.APIKey == PlaceholderAPIKey) {
		return Validity{Issue: MissingCredential, Detail: "cloud provider needs an API key"}
	}
	return Validity{Issue: None}
}

// ResolveRuntimeConfig maps the active provider onto a runtime
// configuration. base carries the non-provider settings, which are kept.
func (r *Registry) ResolveRuntimeConfig(base runtime.Config) (runtime.Config, error) {
	if v := r.ValidateActive(); !v.OK() {
		return runtime.Config{}, errors.New(v.Detail)
	}
	cfg, _ := r.ActiveConfig()
	base.Endpoint = cfg.Endpoint
	base.Model = cfg.Model
	base.APIKey = cfg.APIKey
	base.Offline = cfg.Offline
	return base, nil
}
