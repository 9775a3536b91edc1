// Package views persists named grid presentations per grid key.
package views

import (
	"context"

	"gridDashboard/internal/models"
	"gridDashboard/internal/utils"
)

// Store is CRUD access to saved views. List returns views of one grid in
// creation order. Every failure is a *PersistenceError.
type Store interface {
	List(ctx context.Context, gridKey string) ([]models.ViewRecord, error)
	Create(ctx context.Context, view models.NewView) (models.ViewRecord, error)
	Update(ctx context.Context, id string, patch models.ViewPatch) error
	Delete(ctx context.Context, id string) error
}

// Refresher is implemented by stores that cache List results
type Refresher interface {
	Refresh(ctx context.Context, gridKey string) ([]models.ViewRecord, error)
}

// Refresh bypasses any cache in store and returns the current list
func Refresh(ctx context.Context, store Store, gridKey string) ([]models.ViewRecord, error) {
	if r, ok := store.(Refresher); ok {
		return r.Refresh(ctx, gridKey)
	}
	return store.List(ctx, gridKey)
}

// PrepareNew trims and validates a view before it is created
func PrepareNew(view models.NewView) (models.NewView, error) {
	view.Name = utils.SanitizeInput(view.Name)

	v := utils.NewValidator().
		ValidateViewName(view.Name, "name").
		ValidateGridKey(view.GridKey, "grid_key").
		ValidateColumnState(view.ColumnState, "column_state").
		ValidateFilterModel(view.FilterModel, "filter_model")
	if err := v.Err(); err != nil {
		return view, newError("create", KindInvalid, v.ErrorString(), nil)
	}

	if view.ColumnState == nil {
		view.ColumnState = []models.ColumnState{}
	}
	if view.SortModel == nil {
		view.SortModel = []models.SortModelItem{}
	}
	view.FilterModel = view.FilterModel.Clone()
	return view, nil
}

// PreparePatch trims and validates a partial update
func PreparePatch(patch models.ViewPatch) (models.ViewPatch, error) {
	v := utils.NewValidator()
	if patch.Name != nil {
		name := utils.SanitizeInput(*patch.Name)
		patch.Name = &name
		v.ValidateViewName(name, "name")
	}
	if patch.ColumnState != nil {
		v.ValidateColumnState(*patch.ColumnState, "column_state")
	}
	if patch.FilterModel != nil {
		v.ValidateFilterModel(*patch.FilterModel, "filter_model")
	}
	if err := v.Err(); err != nil {
		return patch, newError("update", KindInvalid, v.ErrorString(), nil)
	}
	return patch, nil
}
