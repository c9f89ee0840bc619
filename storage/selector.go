package storage

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/leeforge/gallery/config"
	"github.com/leeforge/gallery/errors"
	"github.com/leeforge/gallery/logging"
)

// ProviderRecord is one persisted backend configuration row.
type ProviderRecord struct {
	ID           string
	ProviderName string
	IsActive     bool
	Priority     int
}

// ConfigStore is the persisted backend configuration read by the selector.
type ConfigStore interface {
	// ActiveProvider returns the highest-priority active record.
	ActiveProvider(ctx context.Context) (ProviderRecord, error)
	// ProviderByID returns the record with the given id.
	ProviderByID(ctx context.Context, id string) (ProviderRecord, error)
}

// Selector resolves the active storage backend from persisted configuration
// and caches the choice process-wide. Resolution is idempotent and cheap, so
// concurrent first calls are merely deduplicated, not serialized against
// readers.
type Selector struct {
	store    ConfigStore
	cfg      config.StorageConfig
	fallback Backend
	log      logging.Logger

	mu     sync.RWMutex
	active Backend
	group  singleflight.Group
}

// NewSelector creates a selector. The fallback default backend is built
// eagerly so configuration failures at resolution time always have a
// working backend to fall back to.
func NewSelector(store ConfigStore, cfg config.StorageConfig, log logging.Logger) (*Selector, error) {
	if log == nil {
		log = logging.L()
	}
	fallback, err := NewBackend(cfg.DefaultProvider, cfg)
	if err != nil {
		return nil, err
	}
	return &Selector{
		store:    store,
		cfg:      cfg,
		fallback: fallback,
		log:      log.Named("storage.selector"),
	}, nil
}

// Active returns the cached backend, resolving it from configuration on
// first use. On configuration-read failure it logs and returns the fallback
// default WITHOUT caching it, so a later call (or an explicit Reset) retries
// the configuration store.
func (s *Selector) Active(ctx context.Context) Backend {
	s.mu.RLock()
	if s.active != nil {
		defer s.mu.RUnlock()
		return s.active
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do("active", func() (any, error) {
		record, err := s.store.ActiveProvider(ctx)
		if err != nil {
			return nil, err
		}
		backend, err := NewBackend(record.ProviderName, s.cfg)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.active = backend
		s.mu.Unlock()
		return backend, nil
	})
	if err != nil {
		s.log.Warn("failed to resolve active storage backend, using fallback",
			zap.String("fallback", s.fallback.Name()), zap.Error(err))
		return s.fallback
	}
	return v.(Backend)
}

// Reset clears the cached selection, forcing the next Active call to
// re-resolve. Called after an administrative backend switch.
func (s *Selector) Reset() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

// ByID resolves a backend from a specific configuration record, bypassing
// the cache.
func (s *Selector) ByID(ctx context.Context, id string) (Backend, error) {
	record, err := s.store.ProviderByID(ctx, id)
	if err != nil {
		return nil, errors.NewNotFound("storage backend", id)
	}
	return NewBackend(record.ProviderName, s.cfg)
}
