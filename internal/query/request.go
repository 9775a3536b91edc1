// Package query turns the grid's server-side row requests into SQL against
// the allow-listed tables.
package query

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"gridDashboard/internal/models"
)

// DefaultPageSize is used when a request carries no usable endRow
const DefaultPageSize = 100

// Request is a validated row request. EndRow is exclusive and always
// greater than StartRow.
type Request struct {
	Table    string
	StartRow int
	EndRow   int
	Sort     []models.SortModelItem
	Filters  []Filter
}

// Range returns the inclusive row range covered by the request
func (r Request) Range() (from, to int) {
	return r.StartRow, r.EndRow - 1
}

// Filter is one column filter after normalization. Value holds a string for
// text and date filters and a float64 for number filters; Values holds the
// members of a set filter.
type Filter struct {
	Column   string
	Type     models.FilterType
	Operator string
	Value    interface{}
	Values   []interface{}
}

// ParseRequest validates table and decodes body. A body that is not a JSON
// object is treated as an empty one. Clauses that cannot be understood are
// dropped rather than reported.
func ParseRequest(table string, body []byte, pageSize int) (Request, error) {
	columns, ok := allowedColumns(table)
	if !ok {
		return Request{}, &NotFoundError{Table: table}
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	raw := decodeObject(body)

	if nonEmptyArray(raw["rowGroupCols"]) || nonEmptyArray(raw["groupKeys"]) {
		return Request{}, &UnsupportedRequestError{Message: "Row grouping is not supported"}
	}

	startRow := asInt(raw["startRow"], 0)
	if startRow < 0 {
		startRow = 0
	}
	endRow := asInt(raw["endRow"], startRow+pageSize)
	if endRow < startRow+1 {
		endRow = startRow + 1
	}

	return Request{
		Table:    table,
		StartRow: startRow,
		EndRow:   endRow,
		Sort:     parseSort(raw["sortModel"], columns),
		Filters:  parseFilters(raw["filterModel"], columns),
	}, nil
}

// allowedColumns returns the queryable columns of an allow-listed table
func allowedColumns(table string) (map[string]bool, bool) {
	defs, ok := models.ColumnDefsFor(table)
	if !ok {
		return nil, false
	}
	columns := map[string]bool{"id": true}
	for _, def := range defs {
		columns[def.Field] = true
	}
	return columns, true
}

func decodeObject(body []byte) map[string]interface{} {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return map[string]interface{}{}
	}
	return raw
}

func nonEmptyArray(v interface{}) bool {
	list, ok := v.([]interface{})
	return ok && len(list) > 0
}

// asInt accepts numbers and numeric strings, truncating fractions
func asInt(v interface{}, fallback int) int {
	f, ok := asFloat(v)
	if !ok {
		return fallback
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

// asFloat returns a finite number for numbers and numeric strings
func asFloat(v interface{}) (float64, bool) {
	return models.FiniteNumber(v)
}

func parseSort(v interface{}, columns map[string]bool) []models.SortModelItem {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}

	var items []models.SortModelItem
	for _, entry := range list {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		colID, _ := obj["colId"].(string)
		direction, _ := obj["sort"].(string)
		dir := models.SortDirection(direction)
		if !columns[colID] || !dir.IsValid() {
			continue
		}
		items = append(items, models.SortModelItem{ColID: colID, Sort: dir})
	}
	return items
}

func parseFilters(v interface{}, columns map[string]bool) []Filter {
	model, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	cols := make([]string, 0, len(model))
	for col := range model {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var filters []Filter
	for _, col := range cols {
		if !columns[col] {
			continue
		}
		obj, ok := model[col].(map[string]interface{})
		if !ok {
			continue
		}
		if f, ok := parseFilter(col, obj); ok {
			filters = append(filters, f)
		}
	}
	return filters
}

func parseFilter(col string, obj map[string]interface{}) (Filter, bool) {
	filterType := models.FilterText
	if s, ok := obj["filterType"].(string); ok {
		filterType = models.FilterType(s)
	}
	operator, _ := obj["type"].(string)

	switch filterType {
	case models.FilterText:
		s, _ := obj["filter"].(string)
		s = strings.TrimSpace(s)
		if s == "" {
			return Filter{}, false
		}
		if operator == "" {
			operator = models.OpContains
		}
		return Filter{Column: col, Type: filterType, Operator: operator, Value: s}, true

	case models.FilterNumber:
		n, ok := asFloat(obj["filter"])
		if !ok {
			return Filter{}, false
		}
		if operator == "" {
			operator = models.OpEquals
		}
		return Filter{Column: col, Type: filterType, Operator: operator, Value: n}, true

	case models.FilterDate:
		s, _ := obj["dateFrom"].(string)
		if strings.TrimSpace(s) == "" {
			s, _ = obj["filter"].(string)
		}
		s = DateOnly(s)
		if s == "" {
			return Filter{}, false
		}
		if operator == "" {
			operator = models.OpEquals
		}
		return Filter{Column: col, Type: filterType, Operator: operator, Value: s}, true

	case models.FilterSet:
		values, _ := obj["values"].([]interface{})
		if len(values) == 0 {
			return Filter{}, false
		}
		members := make([]interface{}, 0, len(values))
		for _, value := range values {
			member, ok := setMember(value)
			if !ok {
				return Filter{}, false
			}
			members = append(members, member)
		}
		return Filter{Column: col, Type: filterType, Values: members}, true

	default:
		return Filter{}, false
	}
}

// DateOnly trims s and keeps its first ten characters, turning timestamps
// such as 2024-01-15T00:00:00.000Z into 2024-01-15
func DateOnly(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

// setMember converts one set filter value into a SQL argument. Anything
// other than a string, number or bool makes the whole filter malformed.
func setMember(v interface{}) (interface{}, bool) {
	if !models.IsSetMember(v) {
		return nil, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return v, true
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	return asFloat(n)
}
