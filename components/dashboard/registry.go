package dashboard

import (
	"fmt"
	"sync"
)

// ProviderRegistry stores panel definitions and providers in display order.
type ProviderRegistry interface {
	RegisterDefinition(def PanelDefinition) error
	RegisterProvider(code string, provider Provider) error
	Definition(code string) (PanelDefinition, bool)
	Provider(code string) (Provider, bool)
	Definitions() []PanelDefinition
}

// providerMetadataSource is implemented by registries that keep manifest
// provider details alongside definitions.
type providerMetadataSource interface {
	ProviderMetadata(code string) (ManifestProvider, bool)
}

// PanelHook lets packages register panels/providers during init().
type PanelHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []PanelHook
)

// RegisterPanelHook registers a hook executed against new registries.
func RegisterPanelHook(h PanelHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// Registry implements ProviderRegistry with hook + manifest support.
type Registry struct {
	mu           sync.RWMutex
	definitions  map[string]PanelDefinition
	providers    map[string]Provider
	order        []string
	manifestMeta map[string]ManifestProvider
}

// NewRegistry builds a registry holding the built-in panel definitions and
// applies global hooks. Providers for the built-ins are attached by the
// Service because they depend on its collaborators.
func NewRegistry() *Registry {
	reg := &Registry{
		definitions:  map[string]PanelDefinition{},
		providers:    map[string]Provider{},
		manifestMeta: map[string]ManifestProvider{},
	}
	for _, def := range DefaultPanelDefinitions() {
		_ = reg.RegisterDefinition(def)
	}
	_ = reg.ApplyHooks()
	return reg
}

// ApplyHooks executes registered panel hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDefinition stores panel metadata. Re-registering a code replaces
// the definition but keeps its position.
func (r *Registry) RegisterDefinition(def PanelDefinition) error {
	if def.Code == "" {
		return fmt.Errorf("panel definition code is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[def.Code]; !exists {
		r.order = append(r.order, def.Code)
	}
	r.definitions[def.Code] = def
	return nil
}

// RegisterProvider associates a provider implementation with a definition.
func (r *Registry) RegisterProvider(code string, provider Provider) error {
	if code == "" {
		return fmt.Errorf("panel definition code is required to register provider")
	}
	if provider == nil {
		return fmt.Errorf("provider cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.definitions[code]; !ok {
		return fmt.Errorf("panel definition %s not found", code)
	}
	r.providers[code] = provider
	return nil
}

// Definition fetches a panel definition by code.
func (r *Registry) Definition(code string) (PanelDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[code]
	return def, ok
}

// Provider fetches a panel provider by code.
func (r *Registry) Provider(code string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[code]
	return provider, ok
}

// ProviderMetadata returns any manifest metadata registered for a panel.
func (r *Registry) ProviderMetadata(code string) (ManifestProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.manifestMeta[code]
	return meta, ok
}

// Definitions returns all registered definitions in display order.
func (r *Registry) Definitions() []PanelDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]PanelDefinition, 0, len(r.order))
	for _, code := range r.order {
		defs = append(defs, r.definitions[code])
	}
	return defs
}

// Reorder moves the listed codes to the front in the given order. Unknown
// codes are ignored and unlisted panels keep their relative order.
func (r *Registry) Reorder(codes []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = applyOrderOverride(r.order, codes)
}

func (r *Registry) recordProviderMetadata(code string, meta ManifestProvider) {
	if meta.isZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifestMeta[code] = meta
}
