package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported backends.
type Dialect struct {
	name     string
	numbered bool // $1, $2 ... instead of ?
}

var (
	Postgres = Dialect{name: "postgres", numbered: true}
	SQLite   = Dialect{name: "sqlite"}
)

func (d Dialect) Name() string { return d.name }

// Placeholder renders the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote wraps an identifier in double quotes, doubling embedded quotes.
// Both backends accept standard SQL quoting.
func (d Dialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Window renders a LIMIT/OFFSET tail. A negative limit means unbounded.
func (d Dialect) Window(limit, offset int) string {
	var b strings.Builder
	switch {
	case limit >= 0:
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(limit))
	case offset > 0 && !d.numbered:
		// SQLite only accepts OFFSET after a LIMIT.
		b.WriteString(" LIMIT -1")
	}
	if offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(offset))
	}
	return b.String()
}

// binder collects positional arguments and hands out placeholders for them.
type binder struct {
	d    Dialect
	args []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}
