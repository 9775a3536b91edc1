package gridstate

import "gridDashboard/internal/models"

// HiddenByColID reads the visibility of every live column
func HiddenByColID(table Table) map[string]bool {
	hidden := make(map[string]bool)
	for _, col := range table.ColumnState() {
		if col.ColID != "" {
			hidden[col.ColID] = col.Hide
		}
	}
	return hidden
}

// SetColumnsVisible shows or hides columns and reports whether every id was a
// known column. Unknown ids are ignored by the table.
func SetColumnsVisible(table Table, colIDs []string, visible bool) bool {
	known := HiddenByColID(table)

	state := make([]models.ColumnState, 0, len(colIDs))
	allKnown := true
	for _, colID := range colIDs {
		if _, ok := known[colID]; !ok {
			allKnown = false
			continue
		}
		state = append(state, models.ColumnState{ColID: colID, Hide: !visible})
	}

	if len(state) > 0 {
		table.ApplyColumnState(ApplyColumnStateParams{State: mergeLive(table, state)})
	}
	return allKnown
}

// SetColumnVisible is SetColumnsVisible for a single column
func SetColumnVisible(table Table, colID string, visible bool) bool {
	return SetColumnsVisible(table, []string{colID}, visible)
}

// mergeLive fills the untouched attributes of each update from the live state
// so the partial update only changes visibility.
func mergeLive(table Table, updates []models.ColumnState) []models.ColumnState {
	live := make(map[string]models.ColumnState)
	for _, col := range table.ColumnState() {
		live[col.ColID] = col
	}

	out := make([]models.ColumnState, 0, len(updates))
	for _, u := range updates {
		col := live[u.ColID]
		col.ColID = u.ColID
		col.Hide = u.Hide
		if col.SortIndex != nil {
			idx := *col.SortIndex
			col.SortIndex = &idx
		}
		out = append(out, col)
	}
	return out
}
