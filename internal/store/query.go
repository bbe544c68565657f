// ABOUTME: Typed query builder shared by both storage backends
// ABOUTME: Filters compile to SQL for SQLite and evaluate in-memory for the memory backend

package store

import (
	"fmt"
	"time"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
	OpIn Op = "IN"
)

// Filter is a single typed predicate on a record field. Values may be
// string, int, int64, bool or time.Time; OpIn takes a slice of values.
type Filter struct {
	Field  string
	Op     Op
	Value  any
	Values []any // OpIn only
}

// Eq matches records whose field equals v.
func Eq(field string, v any) Filter { return Filter{Field: field, Op: OpEq, Value: v} }

// Ne matches records whose field does not equal v.
func Ne(field string, v any) Filter { return Filter{Field: field, Op: OpNe, Value: v} }

// Lt matches records whose field is strictly less than v.
func Lt(field string, v any) Filter { return Filter{Field: field, Op: OpLt, Value: v} }

// Le matches records whose field is less than or equal to v.
func Le(field string, v any) Filter { return Filter{Field: field, Op: OpLe, Value: v} }

// Gt matches records whose field is strictly greater than v.
func Gt(field string, v any) Filter { return Filter{Field: field, Op: OpGt, Value: v} }

// Ge matches records whose field is greater than or equal to v.
func Ge(field string, v any) Filter { return Filter{Field: field, Op: OpGe, Value: v} }

// In matches records whose field equals any of vs.
func In(field string, vs ...any) Filter { return Filter{Field: field, Op: OpIn, Values: vs} }

// Sort orders results by a single field.
type Sort struct {
	Field string
	Desc  bool
}

// Asc sorts ascending on field.
func Asc(field string) Sort { return Sort{Field: field} }

// Desc sorts descending on field.
func Desc(field string) Sort { return Sort{Field: field, Desc: true} }

// Query selects records of one type. Zero Limit means no limit.
type Query struct {
	Type    RecordType
	Filters []Filter
	Sorts   []Sort
	Limit   int
	Offset  int
}

// Match reports whether the record satisfies every filter.
func (q Query) Match(r Record) bool {
	for _, f := range q.Filters {
		if !f.match(r) {
			return false
		}
	}
	return true
}

func (f Filter) match(r Record) bool {
	fv, ok := r.Field(f.Field)
	if !ok {
		return false
	}
	if f.Op == OpIn {
		for _, v := range f.Values {
			if equalValues(fv, v) {
				return true
			}
		}
		return false
	}
	switch f.Op {
	case OpEq:
		return equalValues(fv, f.Value)
	case OpNe:
		return !equalValues(fv, f.Value)
	}
	c, ok := compareValues(fv, f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	}
	return false
}

// less orders a before b under the query's sort keys, falling back to
// primary key so results are deterministic across backends.
func (q Query) less(a, b Record) bool {
	for _, s := range q.Sorts {
		av, _ := a.Field(s.Field)
		bv, _ := b.Field(s.Field)
		c, ok := compareValues(av, bv)
		if !ok || c == 0 {
			continue
		}
		if s.Desc {
			return c > 0
		}
		return c < 0
	}
	return a.PrimaryKey() < b.PrimaryKey()
}

// normalize flattens pointer and numeric field values to a small set of
// comparable kinds: nil, string, int64, bool, time.Time.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	case int:
		return int64(t)
	case int64:
		return t
	case string, bool, time.Time:
		return t
	}
	return v
}

func equalValues(a, b any) bool {
	a, b = normalize(a), normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if at, aok := a.(time.Time); aok {
		bt, bok := b.(time.Time)
		return bok && at.Equal(bt)
	}
	return a == b
}

// compareValues returns -1/0/1 ordering, or ok=false when the values are
// not mutually ordered (nil or mismatched kinds). Booleans order false
// before true so is_default sorts match SQLite's 0/1 integers.
func compareValues(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)
	if a == nil || b == nil {
		return 0, false
	}
	switch at := a.(type) {
	case string:
		bt, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case at < bt:
			return -1, true
		case at > bt:
			return 1, true
		}
		return 0, true
	case int64:
		bt, ok := b.(int64)
		if !ok {
			return 0, false
		}
		switch {
		case at < bt:
			return -1, true
		case at > bt:
			return 1, true
		}
		return 0, true
	case time.Time:
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return at.Compare(bt), true
	case bool:
		bt, ok := b.(bool)
		if !ok {
			return 0, false
		}
		ai, bi := 0, 0
		if at {
			ai = 1
		}
		if bt {
			bi = 1
		}
		return ai - bi, true
	}
	return 0, false
}

// timeLayout is RFC3339 with a fixed-width fractional second so stored
// TEXT timestamps compare correctly byte-for-byte.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqlArg converts a filter value to its SQLite representation. Times are
// stored as fixed-width RFC3339 TEXT and booleans as 0/1 integers.
func sqlArg(v any) any {
	switch t := normalize(v).(type) {
	case nil:
		return nil
	case time.Time:
		return t.UTC().Format(timeLayout)
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return t
	}
}

// whereClause builds the SQL WHERE fragment (without the keyword) and
// argument list for the query's filters. Empty when unfiltered.
func whereClause(filters []Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	clause := ""
	var args []any
	for i, f := range filters {
		if i > 0 {
			clause += " AND "
		}
		if f.Op == OpIn {
			if len(f.Values) == 0 {
				// IN over nothing matches nothing
				clause += "1 = 0"
				continue
			}
			clause += f.Field + " IN ("
			for j, v := range f.Values {
				if j > 0 {
					clause += ", "
				}
				clause += "?"
				args = append(args, sqlArg(v))
			}
			clause += ")"
			continue
		}
		switch f.Op {
		case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
			clause += fmt.Sprintf("%s %s ?", f.Field, f.Op)
			args = append(args, sqlArg(f.Value))
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", f.Op)
		}
	}
	return clause, args, nil
}

// orderClause builds the SQL ORDER BY fragment with a primary-key
// tiebreaker matching Query.less.
func orderClause(sorts []Sort) string {
	clause := " ORDER BY "
	for _, s := range sorts {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		clause += s.Field + " " + dir + ", "
	}
	return clause + "id ASC"
}
