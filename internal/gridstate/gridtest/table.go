// Package gridtest provides an in-memory grid widget that behaves like the
// browser widget where it matters for view synchronization.
package gridtest

import (
	"sort"
	"sync"

	"gridDashboard/internal/gridstate"
	"gridDashboard/internal/models"
)

const (
	// SelectionColumnID is the implicit checkbox column the widget injects
	SelectionColumnID = "ag-Grid-SelectionColumn"

	DefaultWidth   = 200
	SelectionWidth = 50
)

// Options tunes which widget quirks are reproduced
type Options struct {
	// SelectionColumn injects an implicit selection column in front
	SelectionColumn bool
	// StaleStateOrder makes ColumnState keep reporting the pre-move order
	// after MoveColumn until the next apply
	StaleStateOrder bool
}

// Table is a thread-safe in-memory gridstate.Table
type Table struct {
	mutex     sync.Mutex
	opts      Options
	columns   []models.ColumnState
	stale     []models.ColumnState
	filter    models.FilterModel
	listeners []func(event string)

	applyCount int
}

var _ gridstate.Table = (*Table)(nil)

// NewTable lays out the configured columns the way the widget does on first
// render: implicit columns injected, widths filled in.
func NewTable(defs []models.ColumnDef, opts Options) *Table {
	t := &Table{opts: opts}
	if opts.SelectionColumn {
		t.columns = append(t.columns, models.ColumnState{
			ColID:  SelectionColumnID,
			Width:  SelectionWidth,
			Pinned: models.PinLeft,
		})
	}
	for _, def := range defs {
		t.columns = append(t.columns, models.ColumnState{
			ColID: def.Field,
			Hide:  def.InitiallyHidden(),
			Width: DefaultWidth,
		})
	}
	return t
}

// OnChange registers a listener for column, sort and filter events. Events
// fire for user actions and for applies, as in the real widget.
func (t *Table) OnChange(fn func(event string)) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.listeners = append(t.listeners, fn)
}

// ApplyCount reports how many times state was pushed through ApplyColumnState
func (t *Table) ApplyCount() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.applyCount
}

func (t *Table) ColumnState() []models.ColumnState {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.stale != nil {
		return t.currentInStaleOrder()
	}
	return models.CloneColumnState(t.columns)
}

func (t *Table) ColumnOrder() []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	order := make([]string, len(t.columns))
	for i, col := range t.columns {
		order[i] = col.ColID
	}
	return order
}

func (t *Table) FilterModel() models.FilterModel {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.filter.Clone()
}

func (t *Table) ApplyColumnState(params gridstate.ApplyColumnStateParams) bool {
	t.mutex.Lock()
	allKnown := t.applyLocked(params)
	t.mutex.Unlock()

	t.emit("columnStateApplied")
	return allKnown
}

func (t *Table) SetFilterModel(model models.FilterModel) {
	t.mutex.Lock()
	t.filter = model.Clone()
	t.mutex.Unlock()

	t.emit("filterChanged")
}

// User actions

// MoveColumn drags a column to a new display index
func (t *Table) MoveColumn(colID string, toIndex int) {
	t.mutex.Lock()
	from := t.indexOf(colID)
	if from < 0 {
		t.mutex.Unlock()
		return
	}
	if t.opts.StaleStateOrder && t.stale == nil {
		t.stale = models.CloneColumnState(t.columns)
	}

	col := t.columns[from]
	rest := append(append([]models.ColumnState{}, t.columns[:from]...), t.columns[from+1:]...)
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(rest) {
		toIndex = len(rest)
	}
	t.columns = append(rest[:toIndex], append([]models.ColumnState{col}, rest[toIndex:]...)...)
	t.mutex.Unlock()

	t.emit("columnMoved")
}

// SetVisible toggles one column's visibility
func (t *Table) SetVisible(colID string, visible bool) {
	t.updateColumn(colID, "columnVisible", func(col *models.ColumnState) {
		col.Hide = !visible
	})
}

// Resize changes a column width
func (t *Table) Resize(colID string, width int) {
	t.updateColumn(colID, "columnResized", func(col *models.ColumnState) {
		col.Width = width
	})
}

// Pin pins a column to a side
func (t *Table) Pin(colID string, side models.PinSide) {
	t.updateColumn(colID, "columnPinned", func(col *models.ColumnState) {
		col.Pinned = side
	})
}

// SortBy makes colID the only sorted column, like a plain header click
func (t *Table) SortBy(colID string, dir models.SortDirection) {
	t.mutex.Lock()
	for i := range t.columns {
		t.columns[i].Sort = models.SortNone
		t.columns[i].SortIndex = nil
	}
	if i := t.indexOf(colID); i >= 0 && dir.IsValid() {
		t.columns[i].Sort = dir
		t.columns[i].SortIndex = models.IntPtr(0)
	}
	t.mutex.Unlock()

	t.emit("sortChanged")
}

// AddSort appends colID to the current multi-column sort
func (t *Table) AddSort(colID string, dir models.SortDirection) {
	t.mutex.Lock()
	next := 0
	for _, col := range t.columns {
		if col.IsSorted() {
			next++
		}
	}
	if i := t.indexOf(colID); i >= 0 && dir.IsValid() {
		if !t.columns[i].IsSorted() {
			t.columns[i].SortIndex = models.IntPtr(next)
		}
		t.columns[i].Sort = dir
	}
	t.normalizeSortIndexes()
	t.mutex.Unlock()

	t.emit("sortChanged")
}

// SetFilter sets or replaces the filter of one column
func (t *Table) SetFilter(colID string, f models.FilterDescriptor) {
	t.mutex.Lock()
	if t.filter == nil {
		t.filter = models.FilterModel{}
	}
	t.filter[colID] = f.Clone()
	t.mutex.Unlock()

	t.emit("filterChanged")
}

func (t *Table) updateColumn(colID, event string, fn func(col *models.ColumnState)) {
	t.mutex.Lock()
	i := t.indexOf(colID)
	if i < 0 {
		t.mutex.Unlock()
		return
	}
	fn(&t.columns[i])
	t.mutex.Unlock()

	t.emit(event)
}

func (t *Table) applyLocked(params gridstate.ApplyColumnStateParams) bool {
	t.applyCount++
	t.stale = nil

	allKnown := true
	listed := make(map[string]bool, len(params.State))
	for _, entry := range params.State {
		i := t.indexOf(entry.ColID)
		if i < 0 {
			allKnown = false
			continue
		}
		listed[entry.ColID] = true

		col := &t.columns[i]
		col.Hide = entry.Hide
		col.Pinned = entry.Pinned
		if entry.Width > 0 {
			col.Width = entry.Width
		}

		// An entry without a sort means "leave unchanged" unless reset is asked for.
		switch {
		case entry.Sort.IsValid():
			col.Sort = entry.Sort
			if entry.SortIndex != nil {
				col.SortIndex = models.IntPtr(*entry.SortIndex)
			} else {
				col.SortIndex = nil
			}
		case params.ResetSort:
			col.Sort = models.SortNone
			col.SortIndex = nil
		}
	}

	if params.ResetSort {
		for i := range t.columns {
			if !listed[t.columns[i].ColID] {
				t.columns[i].Sort = models.SortNone
				t.columns[i].SortIndex = nil
			}
		}
	}

	if params.ApplyOrder {
		t.reorder(params.State)
	}
	t.normalizeSortIndexes()
	return allKnown
}

// reorder places listed columns in the given order. The selection column
// stays in front and unlisted columns follow the listed ones.
func (t *Table) reorder(state []models.ColumnState) {
	byID := make(map[string]models.ColumnState, len(t.columns))
	for _, col := range t.columns {
		byID[col.ColID] = col
	}

	next := make([]models.ColumnState, 0, len(t.columns))
	used := make(map[string]bool, len(t.columns))
	if col, ok := byID[SelectionColumnID]; ok {
		next = append(next, col)
		used[SelectionColumnID] = true
	}
	for _, entry := range state {
		col, ok := byID[entry.ColID]
		if !ok || used[entry.ColID] {
			continue
		}
		next = append(next, col)
		used[entry.ColID] = true
	}
	for _, col := range t.columns {
		if !used[col.ColID] {
			next = append(next, col)
		}
	}
	t.columns = next
}

// normalizeSortIndexes renumbers sort indexes to 0..n-1, as the widget does
func (t *Table) normalizeSortIndexes() {
	var sorted []int
	for i, col := range t.columns {
		if col.IsSorted() {
			sorted = append(sorted, i)
		}
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		ia, ib := t.columns[sorted[a]].SortIndex, t.columns[sorted[b]].SortIndex
		switch {
		case ia != nil && ib != nil:
			return *ia < *ib
		case ia != nil:
			return true
		default:
			return false
		}
	})
	for rank, i := range sorted {
		t.columns[i].SortIndex = models.IntPtr(rank)
	}
}

func (t *Table) currentInStaleOrder() []models.ColumnState {
	current := make(map[string]models.ColumnState, len(t.columns))
	for _, col := range t.columns {
		current[col.ColID] = col
	}
	out := make([]models.ColumnState, 0, len(t.stale))
	for _, col := range t.stale {
		if live, ok := current[col.ColID]; ok {
			out = append(out, live)
		}
	}
	return models.CloneColumnState(out)
}

func (t *Table) indexOf(colID string) int {
	for i, col := range t.columns {
		if col.ColID == colID {
			return i
		}
	}
	return -1
}

func (t *Table) emit(event string) {
	t.mutex.Lock()
	listeners := append([]func(string){}, t.listeners...)
	t.mutex.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
}

var _ gridstate.ChangeNotifier = (*Table)(nil)
