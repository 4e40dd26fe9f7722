package adapters

import (
	"github.com/brettbedarf/webfiles/config"
	"github.com/spf13/afero"
)

type BuiltInBackendType = string

const (
	OSBackendType     BuiltInBackendType = config.OSBackend
	MemoryBackendType BuiltInBackendType = config.MemoryBackend
)

// RegisterBuiltins registers all built-in backends by default
// or only the specific ones if keys are provided
func RegisterBuiltins(r *Registry, backends ...BuiltInBackendType) {
	if len(backends) == 0 {
		backends = append(backends, OSBackendType, MemoryBackendType)
	}

	for _, key := range backends {
		switch key {
		case OSBackendType:
			r.Register(key, ProviderFunc(func(*config.Config) (afero.Fs, error) {
				return afero.NewOsFs(), nil
			}))
		case MemoryBackendType:
			// Contents live only as long as the process.
			r.Register(key, ProviderFunc(func(*config.Config) (afero.Fs, error) {
				return afero.NewMemMapFs(), nil
			}))
		}
	}
}

// NewDefaultRegistry returns a registry with every built-in backend registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}
