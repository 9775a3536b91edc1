package gridstate

import "gridDashboard/internal/models"

// Table is the imperative handle of the interactive grid widget. The widget
// owns the live state and may normalize anything pushed into it, so callers
// read state back after every apply instead of trusting what they pushed.
type Table interface {
	// ColumnState returns the live per-column state. Its ordering can lag
	// behind drag-reorders; ColumnOrder is authoritative.
	ColumnState() []models.ColumnState
	// ColumnOrder returns the column ids in current display order
	ColumnOrder() []string
	FilterModel() models.FilterModel

	// ApplyColumnState pushes column state onto the widget. It reports
	// whether every referenced column was known.
	ApplyColumnState(params ApplyColumnStateParams) bool
	// SetFilterModel replaces the filter model; nil clears all filters
	SetFilterModel(model models.FilterModel)
}

// ApplyColumnStateParams mirrors the widget's partial-update call. An entry
// whose Sort is empty leaves that column's sort untouched unless ResetSort is
// set, in which case it is cleared along with the sort of every column not
// listed in State.
type ApplyColumnStateParams struct {
	State      []models.ColumnState
	ApplyOrder bool
	ResetSort  bool
}

// ChangeNotifier is implemented by tables that report column, sort and filter
// change events
type ChangeNotifier interface {
	OnChange(fn func(event string))
}
