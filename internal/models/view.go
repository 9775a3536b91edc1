package models

import (
	"encoding/json"
	"time"
)

// ViewRecord is a named, persisted grid presentation scoped to one grid key
type ViewRecord struct {
	ID          string          `json:"id" gorm:"primaryKey;type:text"`
	Name        string          `json:"name" gorm:"type:text;not null"`
	GridKey     string          `json:"grid_key" gorm:"type:text;not null;index"`
	ColumnState []ColumnState   `json:"column_state" gorm:"serializer:json"`
	SortModel   []SortModelItem `json:"sort_model" gorm:"serializer:json"`
	FilterModel FilterModel     `json:"filter_model" gorm:"serializer:json"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (ViewRecord) TableName() string {
	return "views"
}

// NewView carries the fields needed to create a view
type NewView struct {
	Name        string          `json:"name"`
	GridKey     string          `json:"grid_key"`
	ColumnState []ColumnState   `json:"column_state"`
	SortModel   []SortModelItem `json:"sort_model"`
	FilterModel FilterModel     `json:"filter_model"`
}

// ViewPatch is a partial update. Only non-nil fields are written; a non-nil
// FilterModel pointing at a nil model clears the stored filter.
type ViewPatch struct {
	Name        *string
	ColumnState *[]ColumnState
	SortModel   *[]SortModelItem
	FilterModel *FilterModel
}

// StatePatch builds a patch that replaces the stored presentation with state
func StatePatch(state GridState) ViewPatch {
	columnState := CloneColumnState(state.ColumnState)
	sortModel := append([]SortModelItem{}, state.SortModel...)
	filterModel := state.FilterModel.Clone()
	return ViewPatch{
		ColumnState: &columnState,
		SortModel:   &sortModel,
		FilterModel: &filterModel,
	}
}

func (p ViewPatch) IsEmpty() bool {
	return p.Name == nil && p.ColumnState == nil && p.SortModel == nil && p.FilterModel == nil
}

// Apply writes the set fields of p onto v
func (p ViewPatch) Apply(v *ViewRecord) {
	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.ColumnState != nil {
		v.ColumnState = CloneColumnState(*p.ColumnState)
	}
	if p.SortModel != nil {
		v.SortModel = append([]SortModelItem{}, (*p.SortModel)...)
	}
	if p.FilterModel != nil {
		v.FilterModel = p.FilterModel.Clone()
	}
}

func (p ViewPatch) MarshalJSON() ([]byte, error) {
	out := make(map[string]any)
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.ColumnState != nil {
		out["column_state"] = *p.ColumnState
	}
	if p.SortModel != nil {
		out["sort_model"] = *p.SortModel
	}
	if p.FilterModel != nil {
		out["filter_model"] = *p.FilterModel
	}
	return json.Marshal(out)
}

func (p *ViewPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = ViewPatch{}
	if v, ok := raw["name"]; ok {
		var name string
		if err := json.Unmarshal(v, &name); err != nil {
			return err
		}
		p.Name = &name
	}
	if v, ok := raw["column_state"]; ok {
		var columnState []ColumnState
		if err := json.Unmarshal(v, &columnState); err != nil {
			return err
		}
		p.ColumnState = &columnState
	}
	if v, ok := raw["sort_model"]; ok {
		var sortModel []SortModelItem
		if err := json.Unmarshal(v, &sortModel); err != nil {
			return err
		}
		p.SortModel = &sortModel
	}
	if v, ok := raw["filter_model"]; ok {
		var filterModel FilterModel
		if err := json.Unmarshal(v, &filterModel); err != nil {
			return err
		}
		p.FilterModel = &filterModel
	}
	return nil
}
