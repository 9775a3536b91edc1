package gridstate

import (
	"encoding/json"
	"sort"

	"gridDashboard/internal/models"
)

// BuildDefaultState produces the static default presentation of a grid: one
// entry per configured column in configuration order, no sort, no filter.
func BuildDefaultState(columnDefs []models.ColumnDef) models.GridState {
	columnState := make([]models.ColumnState, 0, len(columnDefs))
	for _, col := range columnDefs {
		columnState = append(columnState, models.ColumnState{
			ColID: col.Field,
			Hide:  col.InitiallyHidden(),
		})
	}

	return models.GridState{
		ColumnState: columnState,
		SortModel:   []models.SortModelItem{},
		FilterModel: nil,
	}
}

// CaptureState reads the live presentation from the table. Column entries are
// reordered to the table's authoritative display order and the sort model is
// derived from the result. With no table the fallback state is returned.
func CaptureState(table Table, fallback models.GridState) models.GridState {
	if table == nil {
		return Normalize(fallback)
	}

	columnState := OrderColumnState(table.ColumnState(), table.ColumnOrder())
	return Normalize(models.GridState{
		ColumnState: columnState,
		FilterModel: table.FilterModel(),
	})
}

// ApplyState pushes a full presentation onto the table. Sort is reset
// explicitly: the widget treats a missing sort as "leave unchanged", which
// would otherwise carry the previous view's sort into the new one.
func ApplyState(table Table, state models.GridState) {
	if table == nil {
		return
	}

	table.ApplyColumnState(ApplyColumnStateParams{
		State:      models.CloneColumnState(state.ColumnState),
		ApplyOrder: true,
		ResetSort:  true,
	})
	table.SetFilterModel(state.FilterModel.Clone())
}

// OrderColumnState sorts entries by their position in order. Entries missing
// from order keep their relative position after the ordered ones.
func OrderColumnState(columnState []models.ColumnState, order []string) []models.ColumnState {
	out := models.CloneColumnState(columnState)
	if len(order) == 0 {
		return out
	}

	position := make(map[string]int, len(order))
	for i, colID := range order {
		if _, seen := position[colID]; !seen {
			position[colID] = i
		}
	}

	rank := func(col models.ColumnState) int {
		if pos, ok := position[col.ColID]; ok {
			return pos
		}
		return len(order)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i]) < rank(out[j])
	})
	return out
}

// DeriveSortModel lists the sorted columns ordered by sortIndex. Columns
// without a sortIndex follow in display order.
func DeriveSortModel(columnState []models.ColumnState) []models.SortModelItem {
	type sorted struct {
		col models.ColumnState
		pos int
	}

	var cols []sorted
	for i, col := range columnState {
		if col.Sort.IsValid() {
			cols = append(cols, sorted{col: col, pos: i})
		}
	}

	sort.SliceStable(cols, func(i, j int) bool {
		a, b := cols[i].col.SortIndex, cols[j].col.SortIndex
		switch {
		case a != nil && b != nil:
			return *a < *b
		case a != nil:
			return true
		case b != nil:
			return false
		default:
			return cols[i].pos < cols[j].pos
		}
	})

	sortModel := make([]models.SortModelItem, 0, len(cols))
	for _, c := range cols {
		sortModel = append(sortModel, models.SortModelItem{ColID: c.col.ColID, Sort: c.col.Sort})
	}
	return sortModel
}

// MergeSortIntoColumnState restores sort information into a column state
// saved before sort lived on the columns. It only acts when no column carries
// a sort; existing sort information is never overwritten, so the merge is
// idempotent.
func MergeSortIntoColumnState(columnState []models.ColumnState, sortModel []models.SortModelItem) []models.ColumnState {
	if len(sortModel) == 0 || hasSortState(columnState) {
		return columnState
	}

	type sortState struct {
		sort  models.SortDirection
		index int
	}
	lookup := make(map[string]sortState, len(sortModel))
	for i, item := range sortModel {
		if !item.Sort.IsValid() {
			continue
		}
		if _, dup := lookup[item.ColID]; dup {
			continue
		}
		lookup[item.ColID] = sortState{sort: item.Sort, index: i}
	}

	out := models.CloneColumnState(columnState)
	for i, col := range out {
		s, ok := lookup[col.ColID]
		if !ok {
			continue
		}
		out[i].Sort = s.sort
		out[i].SortIndex = models.IntPtr(s.index)
	}
	return out
}

func hasSortState(columnState []models.ColumnState) bool {
	for _, col := range columnState {
		if col.IsSorted() {
			return true
		}
	}
	return false
}

// FromView turns a stored view into a GridState, upgrading records saved
// under the older shape where sort only lived in sort_model.
func FromView(view models.ViewRecord) models.GridState {
	columnState := MergeSortIntoColumnState(models.CloneColumnState(view.ColumnState), view.SortModel)
	sortModel := append([]models.SortModelItem{}, view.SortModel...)
	return models.GridState{
		ColumnState: columnState,
		SortModel:   sortModel,
		FilterModel: view.FilterModel.Clone(),
	}
}

// Normalize returns the canonical form of a state: columnState is copied, the
// sort model is regenerated from it and an empty filter model becomes nil.
func Normalize(state models.GridState) models.GridState {
	columnState := models.CloneColumnState(state.ColumnState)
	if columnState == nil {
		columnState = []models.ColumnState{}
	}
	return models.GridState{
		ColumnState: columnState,
		SortModel:   DeriveSortModel(columnState),
		FilterModel: state.FilterModel.Clone(),
	}
}

// Serialize is the deterministic encoding used for dirty comparison. Column
// order is significant; filter keys are emitted sorted.
func Serialize(state models.GridState) string {
	data, err := json.Marshal(Normalize(state))
	if err != nil {
		// Only unsupported filter values can fail here; they still compare
		// unequal to any valid state.
		return "!" + err.Error()
	}
	return string(data)
}

// Equal reports whether two states serialize identically
func Equal(a, b models.GridState) bool {
	return Serialize(a) == Serialize(b)
}
