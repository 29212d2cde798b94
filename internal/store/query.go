package store

import (
	"fmt"

	"gorm.io/gorm/clause"
)

// Op is a filter comparison.
type Op string

const (
	OpEq     Op = "=="
	OpNeq    Op = "!="
	OpLt     Op = "<"
	OpLte    Op = "<="
	OpGt     Op = ">"
	OpGte    Op = ">="
	OpIn     Op = "in"
	OpPrefix Op = "prefix"
)

// Filter restricts a query on one column.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query describes a filtered, optionally ordered and limited read.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Where builds a Query from filters.
func Where(filters ...Filter) Query { return Query{Filters: filters} }

// Order sets ascending ordering on field.
func (q Query) Order(field string) Query {
	q.OrderBy, q.Desc = field, false
	return q
}

// OrderDesc sets descending ordering on field.
func (q Query) OrderDesc(field string) Query {
	q.OrderBy, q.Desc = field, true
	return q
}

// Take limits the result size.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

func Eq(field string, v any) Filter  { return Filter{field, OpEq, v} }
func Neq(field string, v any) Filter { return Filter{field, OpNeq, v} }
func Lt(field string, v any) Filter  { return Filter{field, OpLt, v} }
func Lte(field string, v any) Filter { return Filter{field, OpLte, v} }
func Gt(field string, v any) Filter  { return Filter{field, OpGt, v} }
func Gte(field string, v any) Filter { return Filter{field, OpGte, v} }
func Prefix(field, p string) Filter  { return Filter{field, OpPrefix, p} }

// In matches any of values. An empty list matches nothing.
func In[V any](field string, values []V) Filter {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Filter{field, OpIn, vs}
}

func (f Filter) expr() (clause.Expression, error) {
	if !fieldRe.MatchString(f.Field) {
		return nil, fmt.Errorf("%w: %q", ErrBadField, f.Field)
	}
	col := clause.Column{Name: f.Field}
	switch f.Op {
	case OpEq:
		return clause.Eq{Column: col, Value: f.Value}, nil
	case OpNeq:
		return clause.Neq{Column: col, Value: f.Value}, nil
	case OpLt:
		return clause.Lt{Column: col, Value: f.Value}, nil
	case OpLte:
		return clause.Lte{Column: col, Value: f.Value}, nil
	case OpGt:
		return clause.Gt{Column: col, Value: f.Value}, nil
	case OpGte:
		return clause.Gte{Column: col, Value: f.Value}, nil
	case OpIn:
		vs, _ := f.Value.([]any)
		if len(vs) == 0 {
			return clause.Expr{SQL: "1 = 0"}, nil
		}
		return clause.IN{Column: col, Values: vs}, nil
	case OpPrefix:
		p, _ := f.Value.(string)
		return clause.Expr{SQL: "? LIKE ? ESCAPE '\\'", Vars: []any{col, escapeLike(p) + "%"}}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOp, f.Op)
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
