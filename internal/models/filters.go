package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// These describe the per-column filters a grid sends with every row request
// and stores inside saved views.

type FilterType string

const (
	FilterText   FilterType = "text"
	FilterNumber FilterType = "number"
	FilterDate   FilterType = "date"
	FilterSet    FilterType = "set"
)

// Operators understood by the query endpoint. Text filters default to
// contains, number and date filters default to equals.
const (
	OpEquals             = "equals"
	OpNotEqual           = "notEqual"
	OpContains           = "contains"
	OpStartsWith         = "startsWith"
	OpEndsWith           = "endsWith"
	OpGreaterThan        = "greaterThan"
	OpGreaterThanOrEqual = "greaterThanOrEqual"
	OpLessThan           = "lessThan"
	OpLessThanOrEqual    = "lessThanOrEqual"
)

// FilterDescriptor is the filter attached to a single column
type FilterDescriptor struct {
	FilterType FilterType `json:"filterType"`
	Type       string     `json:"type,omitempty"`
	Filter     any        `json:"filter,omitempty"`
	DateFrom   string     `json:"dateFrom,omitempty"`
	DateTo     string     `json:"dateTo,omitempty"`
	Values     []any      `json:"values,omitempty"`
}

// FilterModel maps a column id to its filter. A nil model means no filtering.
type FilterModel map[string]FilterDescriptor

// Constructor functions for type safety
func NewTextFilter(op, value string) FilterDescriptor {
	return FilterDescriptor{
		FilterType: FilterText,
		Type:       op,
		Filter:     value,
	}
}

func NewNumberFilter(op string, value float64) FilterDescriptor {
	return FilterDescriptor{
		FilterType: FilterNumber,
		Type:       op,
		Filter:     value,
	}
}

func NewDateFilter(op, dateFrom string) FilterDescriptor {
	return FilterDescriptor{
		FilterType: FilterDate,
		Type:       op,
		DateFrom:   dateFrom,
	}
}

func NewSetFilter(values ...any) FilterDescriptor {
	return FilterDescriptor{
		FilterType: FilterSet,
		Values:     values,
	}
}

// IsValid reports whether the row endpoint applies f rather than ignoring
// it. A missing filter type means text.
func (f FilterDescriptor) IsValid() bool {
	switch f.FilterType {
	case FilterText, "":
		s, ok := f.Filter.(string)
		return ok && strings.TrimSpace(s) != ""
	case FilterNumber:
		_, ok := FiniteNumber(f.Filter)
		return ok
	case FilterDate:
		s := f.DateFrom
		if strings.TrimSpace(s) == "" {
			s, _ = f.Filter.(string)
		}
		return strings.TrimSpace(s) != ""
	case FilterSet:
		if len(f.Values) == 0 {
			return false
		}
		for _, v := range f.Values {
			if !IsSetMember(v) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// FiniteNumber returns v as a finite float. Numeric strings are accepted.
func FiniteNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsSetMember reports whether v can be one of a set filter's values
func IsSetMember(v any) bool {
	switch v.(type) {
	case string, bool:
		return true
	default:
		_, ok := FiniteNumber(v)
		return ok
	}
}

// Clone returns a copy that shares no slices with f
func (f FilterDescriptor) Clone() FilterDescriptor {
	out := f
	if f.Values != nil {
		out.Values = append([]any{}, f.Values...)
	}
	return out
}

// Clone returns a copy of the model. Empty models collapse to nil.
func (m FilterModel) Clone() FilterModel {
	if len(m) == 0 {
		return nil
	}
	out := make(FilterModel, len(m))
	for col, f := range m {
		out[col] = f.Clone()
	}
	return out
}
