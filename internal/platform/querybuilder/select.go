package querybuilder

import (
	"errors"
	"strings"
)

type SelectBuilder struct {
	columns []string
	table   string
	joins   []string
	where   []Condition
	groupBy []string
	orderBy []string
	limit   int
	offset  int
	suffix  string
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = strings.TrimSpace(table)
	return b
}

func (b *SelectBuilder) Join(clause string) *SelectBuilder {
	b.joins = append(b.joins, "JOIN "+strings.TrimSpace(clause))
	return b
}

func (b *SelectBuilder) LeftJoin(clause string) *SelectBuilder {
	b.joins = append(b.joins, "LEFT JOIN "+strings.TrimSpace(clause))
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) GroupBy(parts ...string) *SelectBuilder {
	b.groupBy = append(b.groupBy, parts...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

// Limit and Offset ignore non-positive values.
func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) Offset(offset int) *SelectBuilder {
	b.offset = offset
	return b
}

// Suffix is appended verbatim after paging, e.g. "FOR UPDATE".
func (b *SelectBuilder) Suffix(sql string) *SelectBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, errors.New("select columns are required")
	}
	if b.table == "" {
		return "", nil, errors.New("select table is required")
	}

	var w sqlWriter
	w.raw("SELECT ", strings.Join(b.columns, ", "))
	b.writeSource(&w)
	w.clause("GROUP BY", b.groupBy)
	w.clause("ORDER BY", b.orderBy)
	w.positive("LIMIT", b.limit)
	w.positive("OFFSET", b.offset)
	w.suffix(b.suffix)
	return w.result()
}

// CountSQL counts the rows ToSQL would page over; grouping, ordering and
// paging are dropped.
func (b *SelectBuilder) CountSQL() (string, []any, error) {
	if b.table == "" {
		return "", nil, errors.New("select table is required")
	}

	var w sqlWriter
	w.raw("SELECT COUNT(*)")
	b.writeSource(&w)
	return w.result()
}

func (b *SelectBuilder) writeSource(w *sqlWriter) {
	w.raw(" FROM ", b.table)
	for _, join := range b.joins {
		w.raw(" ", join)
	}
	w.where(b.where)
}
