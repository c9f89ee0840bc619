package storage

import (
	"fmt"

	"github.com/leeforge/gallery/config"
	"github.com/leeforge/gallery/errors"
)

// Provider names understood by the factory.
const (
	ProviderOSS   = "oss"
	ProviderMinio = "minio"
	ProviderLocal = "local"
)

// NewBackend constructs the backend implementation for the given provider
// name, using its section of the storage configuration.
func NewBackend(provider string, cfg config.StorageConfig) (Backend, error) {
	switch provider {
	case ProviderOSS:
		return NewOSSBackend(cfg.OSS)
	case ProviderMinio:
		return NewMinioBackend(cfg.Minio)
	case ProviderLocal:
		return NewLocalBackend(cfg.Local)
	default:
		return nil, errors.New(errors.ErrorTypeInternal,
			fmt.Sprintf("unsupported storage provider: %s", provider))
	}
}
