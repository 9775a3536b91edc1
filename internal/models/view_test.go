package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestViewPatchOnlyWritesPresentKeys(t *testing.T) {
	name := "Q1"
	patch := ViewPatch{Name: &name}

	data, err := json.Marshal(patch)
	if err != nil {
		t.Fatalf("marshal patch: %v", err)
	}
	if string(data) != `{"name":"Q1"}` {
		t.Fatalf("unexpected patch body: %s", data)
	}
}

func TestViewPatchNullFilterModelClears(t *testing.T) {
	var patch ViewPatch
	if err := json.Unmarshal([]byte(`{"filter_model":null}`), &patch); err != nil {
		t.Fatalf("unmarshal patch: %v", err)
	}
	if patch.FilterModel == nil {
		t.Fatalf("expected filter_model key to be recorded as present")
	}
	if patch.Name != nil || patch.ColumnState != nil || patch.SortModel != nil {
		t.Fatalf("unexpected fields set: %+v", patch)
	}

	view := ViewRecord{
		Name:        "keep",
		FilterModel: FilterModel{"status": NewTextFilter(OpEquals, "paid")},
	}
	patch.Apply(&view)
	if view.FilterModel != nil {
		t.Fatalf("expected filter model to be cleared, got %+v", view.FilterModel)
	}
	if view.Name != "keep" {
		t.Fatalf("name changed unexpectedly: %q", view.Name)
	}
}

func TestStatePatchRoundTripsThroughJSON(t *testing.T) {
	state := GridState{
		ColumnState: []ColumnState{
			{ColID: "total", Sort: SortDesc, SortIndex: IntPtr(0)},
			{ColID: "amount", Hide: true},
		},
		SortModel: []SortModelItem{{ColID: "total", Sort: SortDesc}},
	}

	data, err := json.Marshal(StatePatch(state))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"filter_model":null`) {
		t.Fatalf("expected explicit null filter model, got %s", data)
	}

	var patch ViewPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var view ViewRecord
	patch.Apply(&view)
	if len(view.ColumnState) != 2 || view.ColumnState[0].Sort != SortDesc || *view.ColumnState[0].SortIndex != 0 {
		t.Fatalf("unexpected column state: %+v", view.ColumnState)
	}
	if len(view.SortModel) != 1 || view.SortModel[0].ColID != "total" {
		t.Fatalf("unexpected sort model: %+v", view.SortModel)
	}
}

func TestFilterModelCloneCollapsesEmpty(t *testing.T) {
	if got := (FilterModel{}).Clone(); got != nil {
		t.Fatalf("expected nil for empty model, got %#v", got)
	}

	src := FilterModel{"status": NewSetFilter("paid", "open")}
	dup := src.Clone()
	dup["status"].Values[0] = "void"
	if src["status"].Values[0] != "paid" {
		t.Fatalf("clone shares values with source")
	}
}

func TestColumnDefsFor(t *testing.T) {
	for _, key := range GridKeys() {
		defs, ok := ColumnDefsFor(key)
		if !ok || len(defs) == 0 {
			t.Fatalf("expected column defs for %q", key)
		}
	}
	if IsKnownGrid("users") {
		t.Fatalf("users must not be a known grid")
	}
}
