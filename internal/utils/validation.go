package utils

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gridDashboard/internal/models"
)

// MaxViewNameLength bounds the length of a saved view name
const MaxViewNameLength = 100

// Validator collects validation errors
type Validator struct {
	errors []string
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]string, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(message string) {
	v.errors = append(v.errors, message)
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []string {
	return v.errors
}

// ErrorString returns all errors as a single string
func (v *Validator) ErrorString() string {
	return strings.Join(v.errors, "; ")
}

// ValidateRequired checks if a string is not empty
func (v *Validator) ValidateRequired(value, field string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(fmt.Sprintf("%s is required", field))
	}
	return v
}

// ValidateLength checks string length constraints
func (v *Validator) ValidateLength(value, field string, min, max int) *Validator {
	length := utf8.RuneCountInString(value)
	if length < min {
		v.AddError(fmt.Sprintf("%s must be at least %d characters long", field, min))
	}
	if max > 0 && length > max {
		v.AddError(fmt.Sprintf("%s must be no more than %d characters long", field, max))
	}
	return v
}

// ValidateSafeText rejects control characters
func (v *Validator) ValidateSafeText(value, field string) *Validator {
	for _, r := range value {
		if unicode.IsControl(r) {
			v.AddError(fmt.Sprintf("%s contains invalid characters", field))
			break
		}
	}
	return v
}

// ValidateGridKey checks key against the allow-list of grids
func (v *Validator) ValidateGridKey(key, field string) *Validator {
	if !models.IsKnownGrid(key) {
		v.AddError(fmt.Sprintf("%s must be one of: %s", field, strings.Join(models.GridKeys(), ", ")))
	}
	return v
}

// ValidateViewName checks an already trimmed view name
func (v *Validator) ValidateViewName(name, field string) *Validator {
	v.ValidateRequired(name, field)
	v.ValidateLength(name, field, 0, MaxViewNameLength)
	v.ValidateSafeText(name, field)
	return v
}

// ValidateColumnState requires every entry to carry a unique colId
func (v *Validator) ValidateColumnState(columnState []models.ColumnState, field string) *Validator {
	seen := make(map[string]bool, len(columnState))
	for i, col := range columnState {
		if col.ColID == "" {
			v.AddError(fmt.Sprintf("%s[%d]: colId is required", field, i))
			continue
		}
		if seen[col.ColID] {
			v.AddError(fmt.Sprintf("%s[%d]: duplicate colId %q", field, i, col.ColID))
		}
		seen[col.ColID] = true
	}
	return v
}

// ValidateFilterModel rejects filters the row endpoint would ignore, so a
// saved view never restores a filter that has no effect
func (v *Validator) ValidateFilterModel(model models.FilterModel, field string) *Validator {
	cols := make([]string, 0, len(model))
	for col := range model {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		if !model[col].IsValid() {
			v.AddError(fmt.Sprintf("%s.%s: invalid %s filter", field, col, filterTypeName(model[col].FilterType)))
		}
	}
	return v
}

func filterTypeName(t models.FilterType) string {
	if t == "" {
		return string(models.FilterText)
	}
	return string(t)
}

// Err returns the collected errors as one error, or nil
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return fmt.Errorf("%s", v.ErrorString())
}

// SanitizeInput trims whitespace and strips control characters
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	var result strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
