package gridstate_test

import (
	"encoding/json"
	"testing"

	"gridDashboard/internal/gridstate"
	"gridDashboard/internal/gridstate/gridtest"
	"gridDashboard/internal/models"
)

func colIDs(cs []models.ColumnState) []string {
	ids := make([]string, len(cs))
	for i, col := range cs {
		ids[i] = col.ColID
	}
	return ids
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildDefaultState(t *testing.T) {
	state := gridstate.BuildDefaultState(models.InvoiceColumns)

	if len(state.ColumnState) != len(models.InvoiceColumns) {
		t.Fatalf("expected %d columns, got %d", len(models.InvoiceColumns), len(state.ColumnState))
	}
	for i, def := range models.InvoiceColumns {
		col := state.ColumnState[i]
		if col.ColID != def.Field {
			t.Fatalf("column %d: expected %q, got %q", i, def.Field, col.ColID)
		}
		if col.Hide != def.InitiallyHidden() {
			t.Fatalf("column %q: expected hide=%v", def.Field, def.InitiallyHidden())
		}
		if col.IsSorted() {
			t.Fatalf("column %q should not be sorted", def.Field)
		}
	}
	if state.SortModel == nil || len(state.SortModel) != 0 {
		t.Fatalf("expected empty non-nil sort model, got %#v", state.SortModel)
	}
	if state.FilterModel != nil {
		t.Fatalf("expected nil filter model, got %#v", state.FilterModel)
	}
}

func TestMergeSortIntoColumnState(t *testing.T) {
	columnState := []models.ColumnState{{ColID: "a"}, {ColID: "b"}, {ColID: "c"}}
	sortModel := []models.SortModelItem{{ColID: "c", Sort: models.SortDesc}, {ColID: "a", Sort: models.SortAsc}}

	merged := gridstate.MergeSortIntoColumnState(columnState, sortModel)

	if merged[2].Sort != models.SortDesc || merged[2].SortIndex == nil || *merged[2].SortIndex != 0 {
		t.Fatalf("expected c desc at index 0, got %#v", merged[2])
	}
	if merged[0].Sort != models.SortAsc || merged[0].SortIndex == nil || *merged[0].SortIndex != 1 {
		t.Fatalf("expected a asc at index 1, got %#v", merged[0])
	}
	if merged[1].IsSorted() {
		t.Fatalf("b should stay unsorted, got %#v", merged[1])
	}
	if columnState[0].IsSorted() {
		t.Fatal("input slice was modified")
	}
}

func TestMergeSortKeepsExistingSort(t *testing.T) {
	columnState := []models.ColumnState{
		{ColID: "a", Sort: models.SortAsc, SortIndex: models.IntPtr(0)},
		{ColID: "b"},
	}
	sortModel := []models.SortModelItem{{ColID: "b", Sort: models.SortDesc}}

	merged := gridstate.MergeSortIntoColumnState(columnState, sortModel)
	if merged[1].IsSorted() {
		t.Fatalf("existing column sort must win over sort model, got %#v", merged[1])
	}
	if merged[0].Sort != models.SortAsc {
		t.Fatalf("existing sort lost: %#v", merged[0])
	}
}

func TestMergeSortIdempotent(t *testing.T) {
	cases := []struct {
		name        string
		columnState []models.ColumnState
		sortModel   []models.SortModelItem
	}{
		{"legacy", []models.ColumnState{{ColID: "a"}, {ColID: "b"}}, []models.SortModelItem{{ColID: "b", Sort: models.SortAsc}}},
		{"unknown column", []models.ColumnState{{ColID: "a"}}, []models.SortModelItem{{ColID: "zz", Sort: models.SortAsc}}},
		{"duplicates", []models.ColumnState{{ColID: "a"}}, []models.SortModelItem{{ColID: "a", Sort: models.SortAsc}, {ColID: "a", Sort: models.SortDesc}}},
		{"empty sort model", []models.ColumnState{{ColID: "a"}}, nil},
		{"already sorted", []models.ColumnState{{ColID: "a", Sort: models.SortDesc, SortIndex: models.IntPtr(0)}}, []models.SortModelItem{{ColID: "a", Sort: models.SortAsc}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			once := gridstate.MergeSortIntoColumnState(tc.columnState, tc.sortModel)
			twice := gridstate.MergeSortIntoColumnState(once, tc.sortModel)

			a, _ := json.Marshal(once)
			b, _ := json.Marshal(twice)
			if string(a) != string(b) {
				t.Fatalf("merge not idempotent:\n%s\n%s", a, b)
			}
		})
	}
}

func TestDeriveSortModelOrdersBySortIndex(t *testing.T) {
	columnState := []models.ColumnState{
		{ColID: "a", Sort: models.SortAsc, SortIndex: models.IntPtr(2)},
		{ColID: "b"},
		{ColID: "c", Sort: models.SortDesc, SortIndex: models.IntPtr(0)},
		{ColID: "d", Sort: models.SortAsc},
		{ColID: "e", Sort: models.SortAsc, SortIndex: models.IntPtr(1)},
	}

	got := gridstate.DeriveSortModel(columnState)
	want := []string{"c", "e", "a", "d"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %#v", len(want), got)
	}
	for i, colID := range want {
		if got[i].ColID != colID {
			t.Fatalf("entry %d: expected %q, got %q", i, colID, got[i].ColID)
		}
	}
}

func TestCaptureUsesDisplayOrder(t *testing.T) {
	table := gridtest.NewTable(models.InvoiceColumns, gridtest.Options{StaleStateOrder: true, SelectionColumn: true})
	table.MoveColumn("total", 1)

	state := gridstate.CaptureState(table, models.GridState{})
	if !sameIDs(colIDs(state.ColumnState), table.ColumnOrder()) {
		t.Fatalf("captured order %v does not match display order %v", colIDs(state.ColumnState), table.ColumnOrder())
	}
	if state.ColumnState[1].ColID != "total" {
		t.Fatalf("expected total at position 1, got %q", state.ColumnState[1].ColID)
	}
}

func TestCaptureWithoutTableReturnsFallback(t *testing.T) {
	fallback := gridstate.BuildDefaultState(models.OrderColumns)
	state := gridstate.CaptureState(nil, fallback)
	if !gridstate.Equal(state, fallback) {
		t.Fatal("expected fallback state when no table is attached")
	}
}

func TestApplyThenCaptureRoundTrip(t *testing.T) {
	table := gridtest.NewTable(models.InvoiceColumns, gridtest.Options{SelectionColumn: true})
	table.MoveColumn("total", 2)
	table.SetVisible("amount", false)
	table.SortBy("total", models.SortDesc)
	table.Resize("customer_name", 320)
	table.SetFilter("customer_name", models.NewTextFilter(models.OpContains, "Jo"))

	saved := gridstate.CaptureState(table, models.GridState{})

	other := gridtest.NewTable(models.InvoiceColumns, gridtest.Options{SelectionColumn: true})
	gridstate.ApplyState(other, saved)
	restored := gridstate.CaptureState(other, models.GridState{})

	if !gridstate.Equal(saved, restored) {
		t.Fatalf("round trip changed state:\n%s\n%s", gridstate.Serialize(saved), gridstate.Serialize(restored))
	}
}

func TestApplyStateClearsPreviousSort(t *testing.T) {
	table := gridtest.NewTable(models.InvoiceColumns, gridtest.Options{})
	table.SortBy("total", models.SortDesc)

	gridstate.ApplyState(table, gridstate.BuildDefaultState(models.InvoiceColumns))

	state := gridstate.CaptureState(table, models.GridState{})
	if len(state.SortModel) != 0 {
		t.Fatalf("sort leaked into default view: %#v", state.SortModel)
	}
	def := gridstate.BuildDefaultState(models.InvoiceColumns)
	if !sameIDs(colIDs(state.ColumnState), colIDs(def.ColumnState)) {
		t.Fatalf("expected default order, got %v", colIDs(state.ColumnState))
	}
	for i, col := range state.ColumnState {
		if col.Hide != def.ColumnState[i].Hide {
			t.Fatalf("column %q: expected hide=%v", col.ColID, def.ColumnState[i].Hide)
		}
	}
}

func TestApplyWithoutResetKeepsSort(t *testing.T) {
	// Documents the widget behavior ApplyState guards against.
	table := gridtest.NewTable(models.InvoiceColumns, gridtest.Options{})
	table.SortBy("total", models.SortDesc)

	table.ApplyColumnState(gridstate.ApplyColumnStateParams{
		State:      gridstate.BuildDefaultState(models.InvoiceColumns).ColumnState,
		ApplyOrder: true,
	})

	state := gridstate.CaptureState(table, models.GridState{})
	if len(state.SortModel) != 1 || state.SortModel[0].ColID != "total" {
		t.Fatalf("expected sort to survive a non-resetting apply, got %#v", state.SortModel)
	}
}

func TestFromViewUpgradesLegacyRecord(t *testing.T) {
	view := models.ViewRecord{
		ColumnState: []models.ColumnState{{ColID: "invoice_id"}, {ColID: "total"}},
		SortModel:   []models.SortModelItem{{ColID: "total", Sort: models.SortDesc}},
	}

	state := gridstate.FromView(view)
	if state.ColumnState[1].Sort != models.SortDesc {
		t.Fatalf("expected total desc after upgrade, got %#v", state.ColumnState[1])
	}
	if view.ColumnState[1].IsSorted() {
		t.Fatal("view record was modified")
	}

	normalized := gridstate.Normalize(state)
	if len(normalized.SortModel) != 1 || normalized.SortModel[0].ColID != "total" {
		t.Fatalf("unexpected sort model %#v", normalized.SortModel)
	}
}

func TestSerializeIgnoresEmptyFilterAndSortShape(t *testing.T) {
	a := models.GridState{
		ColumnState: []models.ColumnState{{ColID: "a"}},
		FilterModel: models.FilterModel{},
	}
	b := models.GridState{
		ColumnState: []models.ColumnState{{ColID: "a"}},
		SortModel:   []models.SortModelItem{{ColID: "stale", Sort: models.SortAsc}},
	}
	if !gridstate.Equal(a, b) {
		t.Fatalf("expected equal serializations:\n%s\n%s", gridstate.Serialize(a), gridstate.Serialize(b))
	}

	c := models.GridState{ColumnState: []models.ColumnState{{ColID: "a", Hide: true}}}
	if gridstate.Equal(a, c) {
		t.Fatal("visibility change should be detected")
	}
}

func TestSerializeColumnOrderMatters(t *testing.T) {
	a := models.GridState{ColumnState: []models.ColumnState{{ColID: "a"}, {ColID: "b"}}}
	b := models.GridState{ColumnState: []models.ColumnState{{ColID: "b"}, {ColID: "a"}}}
	if gridstate.Equal(a, b) {
		t.Fatal("column order should be significant")
	}
}

func TestSetColumnsVisible(t *testing.T) {
	table := gridtest.NewTable(models.InvoiceColumns, gridtest.Options{})
	table.SortBy("total", models.SortAsc)
	table.Resize("customer_name", 150)

	if ok := gridstate.SetColumnsVisible(table, []string{"customer_name", "missing"}, false); ok {
		t.Fatal("expected false when an id is unknown")
	}

	hidden := gridstate.HiddenByColID(table)
	if !hidden["customer_name"] {
		t.Fatal("customer_name should be hidden")
	}
	if _, ok := hidden["missing"]; ok {
		t.Fatal("unknown column should not appear")
	}

	state := gridstate.CaptureState(table, models.GridState{})
	for _, col := range state.ColumnState {
		if col.ColID == "customer_name" && col.Width != 150 {
			t.Fatalf("width lost on visibility change: %d", col.Width)
		}
	}
	if len(state.SortModel) != 1 || state.SortModel[0].ColID != "total" {
		t.Fatalf("sort lost on visibility change: %#v", state.SortModel)
	}

	if !gridstate.SetColumnVisible(table, "customer_name", true) {
		t.Fatal("expected true for a known column")
	}
	if gridstate.HiddenByColID(table)["customer_name"] {
		t.Fatal("customer_name should be visible again")
	}
}
