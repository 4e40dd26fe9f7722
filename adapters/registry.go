package adapters

import (
	"fmt"

	"github.com/brettbedarf/webfiles/config"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/spf13/afero"
)

// Provider builds the storage backend the executor performs I/O against.
type Provider interface {
	NewFs(cfg *config.Config) (afero.Fs, error)
}

// ProviderFunc adapts a plain function to [Provider].
type ProviderFunc func(cfg *config.Config) (afero.Fs, error)

func (f ProviderFunc) NewFs(cfg *config.Config) (afero.Fs, error) {
	return f(cfg)
}

// Registry maps backend type keys (config.Backend) to providers.
type Registry struct {
	providers *xsync.Map[string, Provider]
}

func NewRegistry() *Registry {
	return &Registry{providers: xsync.NewMap[string, Provider]()}
}

// Register ties a provider to a backend type key and should be called for each
// backend during app init. The first registration for a key wins.
func (r *Registry) Register(backendType string, provider Provider) {
	r.providers.LoadOrStore(backendType, provider)
}

// GetProvider returns the provider registered for backendType.
func (r *Registry) GetProvider(backendType string) (Provider, error) {
	p, ok := r.providers.Load(backendType)
	if !ok {
		return nil, fmt.Errorf("no provider for backend %q", backendType)
	}
	return p, nil
}

// NewFs resolves cfg.Backend and builds its filesystem.
func (r *Registry) NewFs(cfg *config.Config) (afero.Fs, error) {
	p, err := r.GetProvider(cfg.Backend)
	if err != nil {
		return nil, err
	}
	return p.NewFs(cfg)
}
