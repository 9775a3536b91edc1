package views

import (
	"context"
	"sync"
	"time"

	"gridDashboard/internal/logging"
	"gridDashboard/internal/models"
	"gridDashboard/internal/utils"
)

// CachedStore caches List per grid key and refetches after every mutation
type CachedStore struct {
	store  Store
	cache  *utils.ViewListCache
	logger *logging.Logger

	mutex  sync.Mutex
	gridOf map[string]string // view id -> grid key
}

// NewCachedStore wraps store with a per-grid-key list cache
func NewCachedStore(store Store, ttl time.Duration, logger *logging.Logger) *CachedStore {
	return &CachedStore{
		store:  store,
		cache:  utils.NewViewListCache(ttl),
		logger: logging.OrDiscard(logger).Named("views-cache"),
		gridOf: make(map[string]string),
	}
}

// Close stops the cache janitor
func (s *CachedStore) Close() {
	s.cache.Close()
}

func (s *CachedStore) List(ctx context.Context, gridKey string) ([]models.ViewRecord, error) {
	if list, ok := s.cache.Get(gridKey); ok {
		return list, nil
	}
	return s.Refresh(ctx, gridKey)
}

// Refresh refetches the list of a grid and replaces the cached copy
func (s *CachedStore) Refresh(ctx context.Context, gridKey string) ([]models.ViewRecord, error) {
	list, err := s.store.List(ctx, gridKey)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	for _, v := range list {
		s.gridOf[v.ID] = gridKey
	}
	s.mutex.Unlock()

	s.cache.Set(gridKey, list)
	return list, nil
}

func (s *CachedStore) Create(ctx context.Context, view models.NewView) (models.ViewRecord, error) {
	record, err := s.store.Create(ctx, view)
	if err != nil {
		return models.ViewRecord{}, err
	}

	s.mutex.Lock()
	s.gridOf[record.ID] = record.GridKey
	s.mutex.Unlock()

	s.revalidate(ctx, record.GridKey)
	return record, nil
}

func (s *CachedStore) Update(ctx context.Context, id string, patch models.ViewPatch) error {
	if err := s.store.Update(ctx, id, patch); err != nil {
		return err
	}
	s.revalidateView(ctx, id, false)
	return nil
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.revalidateView(ctx, id, true)
	return nil
}

func (s *CachedStore) revalidateView(ctx context.Context, id string, forget bool) {
	s.mutex.Lock()
	gridKey, known := s.gridOf[id]
	if forget {
		delete(s.gridOf, id)
	}
	s.mutex.Unlock()

	if !known {
		s.cache.Clear()
		return
	}
	s.revalidate(ctx, gridKey)
}

// revalidate drops the cached list and refetches it. A failed refetch leaves
// the entry empty so the next List goes to the store.
func (s *CachedStore) revalidate(ctx context.Context, gridKey string) {
	s.cache.Invalidate(gridKey)
	if _, err := s.Refresh(ctx, gridKey); err != nil {
		s.logger.WithError(err).WithField("grid_key", gridKey).Warn("Failed to refresh view list")
	}
}
