package query

import (
	"strings"

	"gorm.io/gorm/clause"

	"gridDashboard/internal/models"
)

// Conditions translates the request filters into WHERE expressions
func (r Request) Conditions() []clause.Expression {
	exprs := make([]clause.Expression, 0, len(r.Filters))
	for _, f := range r.Filters {
		if expr := f.Expression(); expr != nil {
			exprs = append(exprs, expr)
		}
	}
	return exprs
}

// OrderBy translates the sort model, in order, followed by the primary key
// so that pages never overlap on ties
func (r Request) OrderBy() clause.OrderBy {
	columns := make([]clause.OrderByColumn, 0, len(r.Sort)+1)
	seenID := false
	for _, item := range r.Sort {
		columns = append(columns, clause.OrderByColumn{
			Column: clause.Column{Name: item.ColID},
			Desc:   item.Sort == models.SortDesc,
		})
		if item.ColID == "id" {
			seenID = true
		}
	}
	if !seenID {
		columns = append(columns, clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	return clause.OrderBy{Columns: columns}
}

// Expression returns the condition for f, or nil for an operator the filter
// type does not know
func (f Filter) Expression() clause.Expression {
	column := clause.Column{Name: f.Column}

	switch f.Type {
	case models.FilterText:
		value, _ := f.Value.(string)
		switch f.Operator {
		case models.OpEquals:
			return clause.Eq{Column: column, Value: value}
		case models.OpNotEqual:
			return clause.Neq{Column: column, Value: value}
		case models.OpStartsWith:
			return like(column, escapeLike(value)+"%")
		case models.OpEndsWith:
			return like(column, "%"+escapeLike(value))
		default:
			return like(column, "%"+escapeLike(value)+"%")
		}

	case models.FilterNumber:
		return compare(column, f.Operator, f.Value, true)

	case models.FilterDate:
		return compare(column, f.Operator, f.Value, false)

	case models.FilterSet:
		return clause.IN{Column: column, Values: f.Values}
	}
	return nil
}

// compare builds the comparison shared by number and date filters. Unknown
// operators fall back to equality; notEqual is only understood by numbers.
func compare(column clause.Column, operator string, value interface{}, allowNotEqual bool) clause.Expression {
	switch operator {
	case models.OpNotEqual:
		if allowNotEqual {
			return clause.Neq{Column: column, Value: value}
		}
	case models.OpGreaterThan:
		return clause.Gt{Column: column, Value: value}
	case models.OpGreaterThanOrEqual:
		return clause.Gte{Column: column, Value: value}
	case models.OpLessThan:
		return clause.Lt{Column: column, Value: value}
	case models.OpLessThanOrEqual:
		return clause.Lte{Column: column, Value: value}
	}
	return clause.Eq{Column: column, Value: value}
}

// like matches case-insensitively with backslash as the escape character
func like(column clause.Column, pattern string) clause.Expression {
	return clause.Expr{SQL: "? LIKE ? ESCAPE '\\'", Vars: []interface{}{column, pattern}}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
