package generator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	sqlcomment "github.com/honeycombio/sqlcomment-go"
)

var (
	// ErrBadArgument is returned when an operation is called with an argument
	// of the wrong type.
	ErrBadArgument = errors.New("generator: bad argument")
	// ErrUnexpectedFragment is returned by the typed methods when an
	// operation produced a fragment of a different shape than they promise.
	ErrUnexpectedFragment = errors.New("generator: unexpected fragment")
	// ErrNoValues is returned by insert, update and bulk insert when there is
	// nothing to write.
	ErrNoValues = errors.New("generator: no values")
)

// Values maps column names to the values to write.
type Values map[string]interface{}

// Where maps column names to the values they must equal. A nil value matches
// NULL and a slice or array (other than []byte) matches any of its elements;
// an empty one matches no rows.
type Where map[string]interface{}

// Options are the options accepted by insert, update, delete and bulk insert.
type Options struct {
	// Comment is prepended to the generated SQL once sqlcomment is installed
	// on the generator.
	Comment interface{}
	// Returning adds RETURNING * to inserts and updates on postgres.
	Returning bool
}

// SQLComment implements sqlcomment.Commenter.
func (o *Options) SQLComment() interface{} { return o.Comment }

// SelectOptions are the options accepted by selectQuery.
type SelectOptions struct {
	// Attributes are the columns to select. Empty means *.
	Attributes []string
	Where      Where
	// Order entries are a column name optionally followed by ASC or DESC.
	Order   []string
	Limit   int
	Comment interface{}
}

// SQLComment implements sqlcomment.Commenter.
func (o *SelectOptions) SQLComment() interface{} { return o.Comment }

// Generator builds SQL for one dialect. Its operations live in an operation
// table so that sqlcomment.Install can wrap them; the typed methods all go
// through that table.
type Generator struct {
	dialect Dialect
	ops     *sqlcomment.OperationTable
}

// New returns a generator for the given driver or dialect name.
func New(driverName string) *Generator {
	g := &Generator{
		dialect: DialectFor(driverName),
		ops:     sqlcomment.NewOperationTable(),
	}
	g.ops.Set(sqlcomment.SelectQuery, g.selectQuery)
	g.ops.Set(sqlcomment.InsertQuery, g.insertQuery)
	g.ops.Set(sqlcomment.UpdateQuery, g.updateQuery)
	g.ops.Set(sqlcomment.DeleteQuery, g.deleteQuery)
	g.ops.Set(sqlcomment.BulkInsertQuery, g.bulkInsertQuery)
	return g
}

// QueryGenerator implements sqlcomment.Host.
func (g *Generator) QueryGenerator() *sqlcomment.OperationTable {
	return g.ops
}

// Dialect returns the generator's dialect.
func (g *Generator) Dialect() Dialect {
	return g.dialect
}

// EscapeString quotes s as a string literal. It has the sqlcomment.EscapeFunc
// signature so it can be handed to sqlcomment.Config.Escaper.
func (g *Generator) EscapeString(s string) string {
	return g.dialect.Literal(s)
}

// InstallConfig is sqlcomment.Config plus the choice to quote comments with
// the generator's own dialect.
type InstallConfig struct {
	sqlcomment.Config
	// QuoteComment renders each comment as a string literal before it is
	// sanitized, eg `/* 'BULK CREATE' */`. It replaces any Escaper.
	QuoteComment bool
}

// Install installs sqlcomment on g and returns g. Installing twice is a
// no-op.
func (g *Generator) Install(cfg InstallConfig) *Generator {
	sc := cfg.Config
	if cfg.QuoteComment {
		sc.Escaper = g.EscapeString
	}
	sqlcomment.Install(g, sc)
	return g
}

// Escape renders v as a SQL literal.
func (g *Generator) Escape(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return g.dialect.Literal(val)
	case []byte:
		return g.dialect.Literal(string(val))
	case bool:
		if g.dialect.Name() == "postgres" {
			return strconv.FormatBool(val)
		}
		if val {
			return "1"
		}
		return "0"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		return g.dialect.Literal(val.UTC().Format("2006-01-02 15:04:05.000"))
	case fmt.Stringer:
		return g.dialect.Literal(val.String())
	}
	return g.dialect.Literal(fmt.Sprint(v))
}

// SelectQuery builds a SELECT statement.
func (g *Generator) SelectQuery(table string, opts *SelectOptions) (string, error) {
	out, err := g.ops.Call(sqlcomment.SelectQuery, table, opts, nil)
	return asString(out, err)
}

// InsertQuery builds a single row INSERT with bound values. attributes fixes
// the column order; without it columns are sorted by name.
func (g *Generator) InsertQuery(table string, values Values, attributes []string, opts *Options) (*sqlcomment.Query, error) {
	out, err := g.ops.Call(sqlcomment.InsertQuery, table, values, attributes, opts)
	return asQuery(out, err)
}

// UpdateQuery builds an UPDATE with bound values.
func (g *Generator) UpdateQuery(table string, values Values, where Where, opts *Options) (*sqlcomment.Query, error) {
	out, err := g.ops.Call(sqlcomment.UpdateQuery, table, values, where, opts, nil)
	return asQuery(out, err)
}

// DeleteQuery builds a DELETE statement.
func (g *Generator) DeleteQuery(table string, where Where, opts *Options) (string, error) {
	out, err := g.ops.Call(sqlcomment.DeleteQuery, table, where, opts)
	return asString(out, err)
}

// BulkInsertQuery builds a multi row INSERT with inlined literals.
func (g *Generator) BulkInsertQuery(table string, rows []Values, opts *Options, attributes []string) (string, error) {
	out, err := g.ops.Call(sqlcomment.BulkInsertQuery, table, rows, opts, attributes)
	return asString(out, err)
}

func asString(out interface{}, err error) (string, error) {
	if err != nil {
		return "", err
	}
	s, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("%w: want string, got %T", ErrUnexpectedFragment, out)
	}
	return s, nil
}

func asQuery(out interface{}, err error) (*sqlcomment.Query, error) {
	if err != nil {
		return nil, err
	}
	q, ok := out.(*sqlcomment.Query)
	if !ok {
		return nil, fmt.Errorf("%w: want *sqlcomment.Query, got %T", ErrUnexpectedFragment, out)
	}
	return q, nil
}

// selectQuery(table, options, model)
func (g *Generator) selectQuery(args ...interface{}) (interface{}, error) {
	table, err := tableArg(args)
	if err != nil {
		return nil, err
	}
	opts, _ := argAt(args, 1).(*SelectOptions)
	if opts == nil {
		opts = &SelectOptions{}
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if len(opts.Attributes) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(g.columnList(opts.Attributes))
	}
	b.WriteString(" FROM ")
	b.WriteString(g.dialect.Quote(table))
	if len(opts.Where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(g.whereLiteral(opts.Where))
	}
	if len(opts.Order) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range opts.Order {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(g.orderTerm(o))
		}
	}
	if opts.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(opts.Limit))
	}
	b.WriteString(";")
	return b.String(), nil
}

// insertQuery(table, values, attributes, options)
func (g *Generator) insertQuery(args ...interface{}) (interface{}, error) {
	table, err := tableArg(args)
	if err != nil {
		return nil, err
	}
	values, err := valuesArg(args, 1)
	if err != nil {
		return nil, err
	}
	attributes, _ := argAt(args, 2).([]string)
	opts, _ := argAt(args, 3).(*Options)

	columns := orderedColumns(attributes, values)
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: insert into %s", ErrNoValues, table)
	}
	bind := make([]interface{}, 0, len(columns))
	placeholders := make([]string, 0, len(columns))
	for i, col := range columns {
		bind = append(bind, values[col])
		placeholders = append(placeholders, g.dialect.Placeholder(i+1))
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(g.dialect.Quote(table))
	b.WriteString(" (")
	b.WriteString(g.columnList(columns))
	b.WriteString(") VALUES (")
	b.WriteString(strings.Join(placeholders, ","))
	b.WriteString(")")
	g.writeReturning(&b, opts)
	b.WriteString(";")
	return &sqlcomment.Query{Query: b.String(), Bind: bind, Type: "INSERT"}, nil
}

// updateQuery(table, values, where, options, attributes)
func (g *Generator) updateQuery(args ...interface{}) (interface{}, error) {
	table, err := tableArg(args)
	if err != nil {
		return nil, err
	}
	values, err := valuesArg(args, 1)
	if err != nil {
		return nil, err
	}
	where := whereArg(argAt(args, 2))
	opts, _ := argAt(args, 3).(*Options)
	attributes, _ := argAt(args, 4).([]string)

	columns := orderedColumns(attributes, values)
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: update %s", ErrNoValues, table)
	}
	bind := make([]interface{}, 0, len(columns)+len(where))
	sets := make([]string, 0, len(columns))
	for _, col := range columns {
		bind = append(bind, values[col])
		sets = append(sets, g.dialect.Quote(col)+"="+g.dialect.Placeholder(len(bind)))
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(g.dialect.Quote(table))
	b.WriteString(" SET ")
	b.WriteString(strings.Join(sets, ","))
	if len(where) > 0 {
		var clause string
		clause, bind = g.whereBind(where, bind)
		b.WriteString(" WHERE ")
		b.WriteString(clause)
	}
	g.writeReturning(&b, opts)
	b.WriteString(";")
	return &sqlcomment.Query{Query: b.String(), Bind: bind, Type: "UPDATE"}, nil
}

// deleteQuery(table, where, options)
func (g *Generator) deleteQuery(args ...interface{}) (interface{}, error) {
	table, err := tableArg(args)
	if err != nil {
		return nil, err
	}
	where := whereArg(argAt(args, 1))

	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(g.dialect.Quote(table))
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(g.whereLiteral(where))
	}
	b.WriteString(";")
	return b.String(), nil
}

// bulkInsertQuery(table, rows, options, attributes)
func (g *Generator) bulkInsertQuery(args ...interface{}) (interface{}, error) {
	table, err := tableArg(args)
	if err != nil {
		return nil, err
	}
	rows, ok := argAt(args, 1).([]Values)
	if !ok || len(rows) == 0 {
		return nil, fmt.Errorf("%w: bulk insert into %s", ErrNoValues, table)
	}
	attributes, _ := argAt(args, 3).([]string)

	columns := attributes
	if len(columns) == 0 {
		seen := make(map[string]bool)
		for _, row := range rows {
			for col := range row {
				if !seen[col] {
					seen[col] = true
					columns = append(columns, col)
				}
			}
		}
		sort.Strings(columns)
	}

	tuples := make([]string, 0, len(rows))
	for _, row := range rows {
		lits := make([]string, 0, len(columns))
		for _, col := range columns {
			lits = append(lits, g.Escape(row[col]))
		}
		tuples = append(tuples, "("+strings.Join(lits, ",")+")")
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(g.dialect.Quote(table))
	b.WriteString(" (")
	b.WriteString(g.columnList(columns))
	b.WriteString(") VALUES ")
	b.WriteString(strings.Join(tuples, ","))
	b.WriteString(";")
	return b.String(), nil
}

func (g *Generator) columnList(columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = g.dialect.Quote(col)
	}
	return strings.Join(quoted, ",")
}

func (g *Generator) orderTerm(term string) string {
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return ""
	}
	out := g.dialect.Quote(fields[0])
	if len(fields) > 1 {
		switch dir := strings.ToUpper(fields[1]); dir {
		case "ASC", "DESC":
			out += " " + dir
		}
	}
	return out
}

func (g *Generator) writeReturning(b *strings.Builder, opts *Options) {
	if opts != nil && opts.Returning && g.dialect.Name() == "postgres" {
		b.WriteString(" RETURNING *")
	}
}

// whereLiteral renders where with inlined literals.
func (g *Generator) whereLiteral(where Where) string {
	terms := make([]string, 0, len(where))
	for _, col := range sortedKeys(where) {
		val := where[col]
		if val == nil {
			terms = append(terms, g.dialect.Quote(col)+" IS NULL")
			continue
		}
		items, ok := sliceItems(val)
		switch {
		case !ok:
			terms = append(terms, g.dialect.Quote(col)+" = "+g.Escape(val))
		case len(items) == 0:
			terms = append(terms, matchNothing)
		default:
			lits := make([]string, len(items))
			for i, item := range items {
				lits[i] = g.Escape(item)
			}
			terms = append(terms, g.dialect.Quote(col)+" IN ("+strings.Join(lits, ",")+")")
		}
	}
	return strings.Join(terms, " AND ")
}

// whereBind renders where with placeholders, appending the values to bind.
func (g *Generator) whereBind(where Where, bind []interface{}) (string, []interface{}) {
	terms := make([]string, 0, len(where))
	for _, col := range sortedKeys(where) {
		val := where[col]
		if val == nil {
			terms = append(terms, g.dialect.Quote(col)+" IS NULL")
			continue
		}
		items, ok := sliceItems(val)
		switch {
		case !ok:
			bind = append(bind, val)
			terms = append(terms, g.dialect.Quote(col)+" = "+g.dialect.Placeholder(len(bind)))
		case len(items) == 0:
			terms = append(terms, matchNothing)
		default:
			holders := make([]string, len(items))
			for i, item := range items {
				bind = append(bind, item)
				holders[i] = g.dialect.Placeholder(len(bind))
			}
			terms = append(terms, g.dialect.Quote(col)+" IN ("+strings.Join(holders, ",")+")")
		}
	}
	return strings.Join(terms, " AND "), bind
}

// matchNothing stands in for `col IN ()`, which no dialect accepts.
const matchNothing = "1=0"

// sliceItems returns the elements of any slice or array value. []byte is a
// single value, not a list.
func sliceItems(val interface{}) ([]interface{}, bool) {
	if items, ok := val.([]interface{}); ok {
		return items, true
	}
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
	case reflect.Array:
	default:
		return nil, false
	}
	items := make([]interface{}, v.Len())
	for i := range items {
		items[i] = v.Index(i).Interface()
	}
	return items, true
}

func argAt(args []interface{}, i int) interface{} {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func tableArg(args []interface{}) (string, error) {
	table, ok := argAt(args, 0).(string)
	if !ok || table == "" {
		return "", fmt.Errorf("%w: table name must be a non-empty string, got %T", ErrBadArgument, argAt(args, 0))
	}
	return table, nil
}

func valuesArg(args []interface{}, i int) (Values, error) {
	switch v := argAt(args, i).(type) {
	case Values:
		return v, nil
	case map[string]interface{}:
		return Values(v), nil
	}
	return nil, fmt.Errorf("%w: values must be generator.Values, got %T", ErrBadArgument, argAt(args, i))
}

func whereArg(v interface{}) Where {
	switch w := v.(type) {
	case Where:
		return w
	case map[string]interface{}:
		return Where(w)
	}
	return nil
}

// orderedColumns returns attributes that have a value, or every column in
// values sorted by name when attributes is empty.
func orderedColumns(attributes []string, values Values) []string {
	if len(attributes) > 0 {
		cols := make([]string, 0, len(attributes))
		for _, a := range attributes {
			if _, ok := values[a]; ok {
				cols = append(cols, a)
			}
		}
		return cols
	}
	return sortedKeys(values)
}

func sortedKeys[M ~map[string]interface{}](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
