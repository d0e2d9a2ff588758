package llm

import "sync"

// ProviderFactory constructs a CoreLLM from a client configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var (
	factoryMu sync.RWMutex
	factories = make(map[string]ProviderFactory)
)

// RegisterProviderFactory makes a provider available to NewClient under
// the given name. Built-in providers call this from init; applications
// may register additional providers before creating clients.
func RegisterProviderFactory(name string, factory ProviderFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[name] = factory
}

func lookupProviderFactory(name string) (ProviderFactory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// Providers returns the names of all registered provider factories.
func Providers() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}
