package llm

import "fmt"

// ModelRoute binds a logical model id to a provider and physical model name.
// Fallback, when set, names a secondary model retried once on the same
// provider after a failed primary call.
type ModelRoute struct {
	Name        string
	Provider    string
	Model       string
	Fallback    string
	Temperature float64
}

// Registry resolves logical model ids to providers and routes.
type Registry struct {
	providers    map[string]Provider
	models       map[string]ModelRoute
	defaultModel string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		models:    make(map[string]ModelRoute),
	}
}

// RegisterProvider adds a provider implementation.
func (r *Registry) RegisterProvider(name string, p Provider) {
	r.providers[name] = p
}

// RegisterModel adds a model route.
func (r *Registry) RegisterModel(name string, route ModelRoute, isDefault bool) {
	route.Name = name
	r.models[name] = route
	if isDefault || r.defaultModel == "" {
		r.defaultModel = name
	}
}

// DefaultModel returns the id of the designated default route.
func (r *Registry) DefaultModel() string {
	return r.defaultModel
}

// Resolve returns the provider and route for a logical model id. An empty or
// unknown id resolves to the default route, so callers with a well-formed
// registry never see a lookup failure for user-supplied ids.
func (r *Registry) Resolve(modelID string) (Provider, ModelRoute, error) {
	route, ok := r.models[modelID]
	if !ok {
		route, ok = r.models[r.defaultModel]
		if !ok {
			return nil, ModelRoute{}, fmt.Errorf("no default model registered")
		}
	}

	p, ok := r.providers[route.Provider]
	if !ok {
		return nil, ModelRoute{}, fmt.Errorf("provider %q not registered for model %q", route.Provider, route.Name)
	}

	return p, route, nil
}
