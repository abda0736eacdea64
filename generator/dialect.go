package generator

import (
	"fmt"
	"strings"
)

// Dialect is the part of a SQL dialect the generator needs: identifier
// quoting, bind placeholders and literal escaping.
type Dialect interface {
	// Name of the dialect.
	Name() string

	// Quote a table or column name so it cannot clash with reserved words.
	Quote(name string) string

	// Placeholder returns the bind placeholder for the nth (1-based) value.
	Placeholder(n int) string

	// Literal renders a string as a quoted SQL string literal.
	Literal(s string) string
}

// dialectT implements the Dialect interface.
type dialectT struct {
	name            string
	altnames        []string
	quoteFunc       func(name string) string
	placeholderFunc func(n int) string
	literalFunc     func(s string) string
}

func (d *dialectT) Name() string {
	return d.name
}

func (d *dialectT) Quote(name string) string {
	if d.quoteFunc == nil {
		return name
	}
	return d.quoteFunc(name)
}

func (d *dialectT) Placeholder(n int) string {
	if d.placeholderFunc == nil {
		return "?"
	}
	return d.placeholderFunc(n)
}

func (d *dialectT) Literal(s string) string {
	if d.literalFunc == nil {
		return standardLiteral(s)
	}
	return d.literalFunc(s)
}

var (
	dialects       map[string]*dialectT
	defaultDialect *dialectT
)

func init() {
	dialects = make(map[string]*dialectT)
	defaultDialect = &dialectT{name: "default", quoteFunc: quoteFunc(`"`, `"`)}

	for _, d := range []*dialectT{
		{
			name:        "mysql",
			quoteFunc:   quoteFunc("`", "`"),
			literalFunc: mysqlLiteral,
		},
		{
			name:      "sqlite",
			altnames:  []string{"sqlite3"},
			quoteFunc: quoteFunc("`", "`"),
		},
		{
			name:            "postgres",
			altnames:        []string{"pq", "pgx", "postgresql"},
			quoteFunc:       quoteFunc(`"`, `"`),
			placeholderFunc: placeholderFunc("$%d"),
		},
	} {
		dialects[d.name] = d
		for _, alt := range d.altnames {
			dialects[alt] = d
		}
	}
}

// DialectFor returns the dialect for a database driver name. Unknown names get
// the default dialect, which double quotes identifiers and uses ? placeholders.
//
//	name      alternative names
//	----      -----------------
//	mysql
//	postgres  pq, pgx, postgresql
//	sqlite    sqlite3
func DialectFor(name string) Dialect {
	d := dialects[strings.TrimSpace(strings.ToLower(name))]
	if d == nil {
		d = defaultDialect
	}
	return d
}

func quoteFunc(begin, end string) func(name string) string {
	return func(name string) string {
		parts := strings.Split(name, ".")
		for i, part := range parts {
			part = strings.TrimSpace(part)
			if part == "*" {
				parts[i] = part
				continue
			}
			parts[i] = begin + strings.ReplaceAll(part, end, end+end) + end
		}
		return strings.Join(parts, ".")
	}
}

func placeholderFunc(format string) func(n int) string {
	return func(n int) string {
		return fmt.Sprintf(format, n)
	}
}

func standardLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// mysqlLiteral also escapes backslashes, which MySQL treats as an escape
// character inside string literals.
func mysqlLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return standardLiteral(s)
}
