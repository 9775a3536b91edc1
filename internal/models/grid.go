package models

// SortDirection is the sort applied to a column. The empty value means unsorted.
type SortDirection string

const (
	SortNone SortDirection = ""
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// IsValid reports whether d is one of the two real directions
func (d SortDirection) IsValid() bool {
	return d == SortAsc || d == SortDesc
}

// PinSide is the side a column is pinned to, empty when not pinned
type PinSide string

const (
	PinNone  PinSide = ""
	PinLeft  PinSide = "left"
	PinRight PinSide = "right"
)

// ColumnState is the presentation of one column. The position of an entry in a
// []ColumnState encodes display order.
type ColumnState struct {
	ColID     string        `json:"colId"`
	Hide      bool          `json:"hide"`
	Width     int           `json:"width,omitempty"`
	Pinned    PinSide       `json:"pinned,omitempty"`
	Sort      SortDirection `json:"sort,omitempty"`
	SortIndex *int          `json:"sortIndex,omitempty"`
}

// IsSorted reports whether the column carries a sort direction
func (c ColumnState) IsSorted() bool {
	return c.Sort != SortNone
}

// SortModelItem is one entry of an ordered sort list
type SortModelItem struct {
	ColID string        `json:"colId"`
	Sort  SortDirection `json:"sort"`
}

// GridState is a full presentation of a grid: the default view or a saved one.
// SortModel is derived from ColumnState and is regenerated before every
// persist or compare.
type GridState struct {
	ColumnState []ColumnState   `json:"columnState"`
	SortModel   []SortModelItem `json:"sortModel"`
	FilterModel FilterModel     `json:"filterModel"`
}

// Clone returns a deep copy of the state
func (s GridState) Clone() GridState {
	return GridState{
		ColumnState: CloneColumnState(s.ColumnState),
		SortModel:   append([]SortModelItem{}, s.SortModel...),
		FilterModel: s.FilterModel.Clone(),
	}
}

// CloneColumnState copies a column state list, including sort indexes
func CloneColumnState(in []ColumnState) []ColumnState {
	out := make([]ColumnState, len(in))
	for i, col := range in {
		out[i] = col
		if col.SortIndex != nil {
			idx := *col.SortIndex
			out[i].SortIndex = &idx
		}
	}
	return out
}

// IntPtr is a small helper for optional integer fields such as SortIndex
func IntPtr(v int) *int {
	return &v
}
