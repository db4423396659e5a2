package querybuilder

import "strings"

// Condition is one predicate of a WHERE clause. Conditions passed to Where
// are joined with AND.
type Condition interface {
	writeSQL(w *sqlWriter)
}

type conditionFunc func(w *sqlWriter)

func (f conditionFunc) writeSQL(w *sqlWriter) { f(w) }

func compare(column, op string, value any) Condition {
	return conditionFunc(func(w *sqlWriter) {
		w.raw(column, " ", op, " ")
		w.bind(value)
	})
}

func Eq(column string, value any) Condition  { return compare(column, "=", value) }
func Gte(column string, value any) Condition { return compare(column, ">=", value) }
func Lte(column string, value any) Condition { return compare(column, "<=", value) }

// In renders "column IN (...)". An empty list matches nothing.
func In(column string, values []any) Condition {
	return conditionFunc(func(w *sqlWriter) {
		if len(values) == 0 {
			w.raw("1=0")
			return
		}
		w.raw(column, " IN (")
		for i, v := range values {
			if i > 0 {
				w.raw(", ")
			}
			w.bind(v)
		}
		w.raw(")")
	})
}

func IsNull(column string) Condition {
	return conditionFunc(func(w *sqlWriter) {
		w.raw(column, " IS NULL")
	})
}

// Expr is raw SQL with '?' markers for args.
func Expr(expr string, args ...any) Condition {
	return conditionFunc(func(w *sqlWriter) {
		w.expr(expr, args)
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Contains is a case-insensitive substring match. LIKE wildcards inside term
// match literally.
func Contains(column, term string) Condition {
	return conditionFunc(func(w *sqlWriter) {
		w.raw(column, " ILIKE ")
		w.bind("%" + likeEscaper.Replace(term) + "%")
	})
}

// Or groups conditions in parentheses. An empty group matches nothing.
func Or(conditions ...Condition) Condition {
	return conditionFunc(func(w *sqlWriter) {
		if len(conditions) == 0 {
			w.raw("1=0")
			return
		}
		w.raw("(")
		for i, c := range conditions {
			if i > 0 {
				w.raw(" OR ")
			}
			c.writeSQL(w)
		}
		w.raw(")")
	})
}
