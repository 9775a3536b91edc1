package models

// ColumnVO describes a column taking part in grouping, aggregation or pivot
type ColumnVO struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Field       string `json:"field,omitempty"`
	AggFunc     string `json:"aggFunc,omitempty"`
}

// RowRequest is the body a grid posts for one page of rows. EndRow is
// exclusive.
type RowRequest struct {
	StartRow     int             `json:"startRow"`
	EndRow       int             `json:"endRow"`
	SortModel    []SortModelItem `json:"sortModel"`
	FilterModel  FilterModel     `json:"filterModel"`
	RowGroupCols []ColumnVO      `json:"rowGroupCols,omitempty"`
	GroupKeys    []string        `json:"groupKeys,omitempty"`
	ValueCols    []ColumnVO      `json:"valueCols,omitempty"`
	PivotCols    []ColumnVO      `json:"pivotCols,omitempty"`
	PivotMode    bool            `json:"pivotMode,omitempty"`
}

// Row is one record as returned to the grid
type Row = map[string]any

// RowPage is the response to a RowRequest. LastRow is the total number of
// matching rows, or nil when unknown.
type RowPage struct {
	Rows    []Row  `json:"rows"`
	LastRow *int64 `json:"lastRow"`
}
