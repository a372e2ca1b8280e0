package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/worldcities/worldcities-api/internal/paging"
	"github.com/worldcities/worldcities-api/internal/repository"
)

// table describes how one entity is laid out in SQL.
type table[T any] struct {
	name    string
	columns []string // columns[0] is the primary key
	scan    func(Row) (T, error)
}

func (t *table[T]) hasColumn(c string) bool {
	for _, col := range t.columns {
		if col == c {
			return true
		}
	}
	return false
}

func (t *table[T]) selectList(d Dialect) string {
	cols := make([]string, len(t.columns))
	for i, c := range t.columns {
		cols[i] = d.Quote(c)
	}
	return strings.Join(cols, ", ")
}

type filter struct {
	column string
	value  any
}

type orderClause struct {
	column string
	dir    paging.Direction
}

// tableQuery is a paging.Query rendered to SQL on Count/Fetch. It is a value
// type; every composition method works on a copy.
type tableQuery[T any] struct {
	db      DB
	t       *table[T]
	filters []filter
	order   *orderClause
	skip    int
	take    int // -1 means unbounded
	err     error
}

func newTableQuery[T any](db DB, t *table[T]) tableQuery[T] {
	return tableQuery[T]{db: db, t: t, take: -1}
}

func (q tableQuery[T]) where(column string, value any) tableQuery[T] {
	q.filters = append(append([]filter(nil), q.filters...), filter{column: column, value: value})
	return q
}

func (q tableQuery[T]) OrderBy(field paging.Field[T], dir paging.Direction) paging.Query[T] {
	// Only columns of this table may be rendered, whatever Field the caller built.
	if !q.t.hasColumn(field.Column) {
		q.err = &paging.InvalidFieldError{Field: field.Name}
		return q
	}
	q.order = &orderClause{column: field.Column, dir: dir}
	return q
}

func (q tableQuery[T]) Skip(n int) paging.Query[T] {
	if n > 0 {
		q.skip += n
		if q.take >= 0 {
			q.take = max(q.take-n, 0)
		}
	}
	return q
}

func (q tableQuery[T]) Take(n int) paging.Query[T] {
	if n < 0 {
		n = 0
	}
	if q.take < 0 || n < q.take {
		q.take = n
	}
	return q
}

func (q tableQuery[T]) windowed() bool { return q.skip > 0 || q.take >= 0 }

func (q tableQuery[T]) render(b *binder, selectList string) string {
	d := b.d
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectList)
	sb.WriteString(" FROM ")
	sb.WriteString(d.Quote(q.t.name))
	for i, f := range q.filters {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(d.Quote(f.column))
		sb.WriteString(" = ")
		sb.WriteString(b.bind(f.value))
	}
	pk := d.Quote(q.t.columns[0])
	sb.WriteString(" ORDER BY ")
	if q.order != nil && q.order.column != q.t.columns[0] {
		sb.WriteString(d.Quote(q.order.column))
		sb.WriteString(direction(q.order.dir))
		sb.WriteString(", ")
		sb.WriteString(pk)
		sb.WriteString(" ASC")
	} else {
		sb.WriteString(pk)
		if q.order != nil {
			sb.WriteString(direction(q.order.dir))
		} else {
			sb.WriteString(" ASC")
		}
	}
	sb.WriteString(d.Window(q.take, q.skip))
	return sb.String()
}

func direction(d paging.Direction) string {
	if d == paging.Asc {
		return " ASC"
	}
	return " DESC"
}

func (q tableQuery[T]) Count(ctx context.Context) (int, error) {
	if q.err != nil {
		return 0, q.err
	}
	if err := ensureDB(q.db); err != nil {
		return 0, err
	}
	b := &binder{d: q.db.Dialect()}
	var sqlText string
	if q.windowed() {
		sqlText = "SELECT COUNT(*) FROM (" + q.render(b, "1") + ") AS w"
	} else {
		sqlText = q.renderCount(b)
	}
	var n int
	if err := getQ(ctx, q.db).QueryRow(ctx, sqlText, b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", q.t.name, repository.MapError(err))
	}
	return n, nil
}

func (q tableQuery[T]) renderCount(b *binder) string {
	d := b.d
	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM ")
	sb.WriteString(d.Quote(q.t.name))
	for i, f := range q.filters {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(d.Quote(f.column))
		sb.WriteString(" = ")
		sb.WriteString(b.bind(f.value))
	}
	return sb.String()
}

func (q tableQuery[T]) Fetch(ctx context.Context) ([]T, error) {
	if q.err != nil {
		return nil, q.err
	}
	if err := ensureDB(q.db); err != nil {
		return nil, err
	}
	b := &binder{d: q.db.Dialect()}
	sqlText := q.render(b, q.t.selectList(b.d))
	rows, err := getQ(ctx, q.db).Query(ctx, sqlText, b.args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.t.name, repository.MapError(err))
	}
	defer rows.Close()

	capHint := 0
	if q.take > 0 {
		capHint = q.take
	}
	out := make([]T, 0, capHint)
	for rows.Next() {
		it, err := q.t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.t.name, repository.MapError(err))
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", q.t.name, repository.MapError(err))
	}
	return out, nil
}

var _ paging.Query[struct{}] = tableQuery[struct{}]{}
