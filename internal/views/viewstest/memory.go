// Package viewstest provides an in-memory view store with failure injection.
package viewstest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gridDashboard/internal/models"
	"gridDashboard/internal/views"
)

// MemoryStore is a views.Store kept in memory
type MemoryStore struct {
	mutex   sync.Mutex
	records []models.ViewRecord
	nextID  int
	now     time.Time
	failOps map[string]error
	calls   map[string]int

	// Gate, when set, is received from before every operation completes
	Gate chan struct{}
}

var _ views.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		failOps: make(map[string]error),
		calls:   make(map[string]int),
	}
}

// FailNext makes the next call of op ("list", "create", "update", "delete")
// fail with err
func (m *MemoryStore) FailNext(op string, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failOps[op] = err
}

// Calls reports how many times op was invoked
func (m *MemoryStore) Calls(op string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.calls[op]
}

// Seed inserts records as if they had been created earlier
func (m *MemoryStore) Seed(records ...models.ViewRecord) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.records = append(m.records, records...)
}

// Records returns a copy of every stored record
func (m *MemoryStore) Records() []models.ViewRecord {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]models.ViewRecord{}, m.records...)
}

func (m *MemoryStore) enter(ctx context.Context, op string) error {
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return &views.PersistenceError{Op: op, Kind: views.KindRemote, Message: "cancelled", Err: ctx.Err()}
		}
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.calls[op]++
	if err, ok := m.failOps[op]; ok {
		delete(m.failOps, op)
		return &views.PersistenceError{Op: op, Kind: views.KindRemote, Message: "injected failure", Err: err}
	}
	return nil
}

func (m *MemoryStore) List(ctx context.Context, gridKey string) ([]models.ViewRecord, error) {
	if err := m.enter(ctx, "list"); err != nil {
		return nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	out := []models.ViewRecord{}
	for _, r := range m.records {
		if r.GridKey == gridKey {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

func (m *MemoryStore) Create(ctx context.Context, view models.NewView) (models.ViewRecord, error) {
	view, err := views.PrepareNew(view)
	if err != nil {
		return models.ViewRecord{}, err
	}
	if err := m.enter(ctx, "create"); err != nil {
		return models.ViewRecord{}, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.nextID++
	m.now = m.now.Add(time.Second)
	record := models.ViewRecord{
		ID:          fmt.Sprintf("view-%d", m.nextID),
		Name:        view.Name,
		GridKey:     view.GridKey,
		ColumnState: models.CloneColumnState(view.ColumnState),
		SortModel:   append([]models.SortModelItem{}, view.SortModel...),
		FilterModel: view.FilterModel.Clone(),
		CreatedAt:   m.now,
	}
	m.records = append(m.records, record)
	return cloneRecord(record), nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, patch models.ViewPatch) error {
	patch, err := views.PreparePatch(patch)
	if err != nil {
		return err
	}
	if err := m.enter(ctx, "update"); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			patch.Apply(&m.records[i])
			return nil
		}
	}
	return &views.PersistenceError{Op: "update", Kind: views.KindNotFound, Message: "view not found"}
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := m.enter(ctx, "delete"); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return &views.PersistenceError{Op: "delete", Kind: views.KindNotFound, Message: "view not found"}
}

func cloneRecord(r models.ViewRecord) models.ViewRecord {
	r.ColumnState = models.CloneColumnState(r.ColumnState)
	r.SortModel = append([]models.SortModelItem{}, r.SortModel...)
	r.FilterModel = r.FilterModel.Clone()
	return r
}
