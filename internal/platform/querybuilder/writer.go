// Package querybuilder renders PostgreSQL statements with positional
// placeholders. Identifiers are trusted; only values are bound.
package querybuilder

import (
	"strconv"
	"strings"
)

// sqlWriter accumulates statement text and bound values. Placeholders are
// numbered in bind order, so $n always matches args[n-1].
type sqlWriter struct {
	buf  strings.Builder
	args []any
}

func (w *sqlWriter) raw(parts ...string) {
	for _, part := range parts {
		w.buf.WriteString(part)
	}
}

func (w *sqlWriter) bind(value any) {
	w.args = append(w.args, value)
	w.buf.WriteByte('$')
	w.buf.WriteString(strconv.Itoa(len(w.args)))
}

// expr copies text, binding one value per '?'. Extra '?' are kept literally.
func (w *sqlWriter) expr(text string, values []any) {
	if len(values) == 0 {
		w.raw(text)
		return
	}
	next := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '?' && next < len(values) {
			w.bind(values[next])
			next++
			continue
		}
		w.buf.WriteByte(text[i])
	}
}

func (w *sqlWriter) clause(keyword string, items []string) {
	if len(items) == 0 {
		return
	}
	w.raw(" ", keyword, " ", strings.Join(items, ", "))
}

func (w *sqlWriter) where(conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			w.raw(" WHERE ")
		} else {
			w.raw(" AND ")
		}
		c.writeSQL(w)
	}
}

func (w *sqlWriter) positive(keyword string, n int) {
	if n > 0 {
		w.raw(" ", keyword, " ", strconv.Itoa(n))
	}
}

func (w *sqlWriter) suffix(sql string) {
	if sql != "" {
		w.raw(" ", sql)
	}
}

func (w *sqlWriter) result() (string, []any, error) {
	return w.buf.String(), w.args, nil
}
