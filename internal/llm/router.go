package llm

import (
	"fmt"
	"sync"
)

// Router manages registered model providers
type Router struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// NewRouter creates a new provider router
func NewRouter() *Router {
	return &Router{providers: make(map[string]Provider)}
}

// Register registers a provider under its name
func (r *Router) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// Streamer returns the named provider as a streaming chat provider
func (r *Router) Streamer(name string) (Streamer, error) {
	p, err := r.get(name)
	if err != nil {
		return nil, err
	}
	s, ok := p.(Streamer)
	if !ok {
		return nil, fmt.Errorf("provider %s does not support streaming", name)
	}
	return s, nil
}

// Completer returns the named provider as a completion provider
func (r *Router) Completer(name string) (Completer, error) {
	p, err := r.get(name)
	if err != nil {
		return nil, err
	}
	c, ok := p.(Completer)
	if !ok {
		return nil, fmt.Errorf("provider %s does not support completions", name)
	}
	return c, nil
}

func (r *Router) get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	if !p.IsConfigured() {
		return nil, fmt.Errorf("provider not configured: %s", name)
	}
	return p, nil
}

// ListProviders returns the names of configured providers
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, p := range r.providers {
		if p.IsConfigured() {
			names = append(names, name)
		}
	}
	return names
}
