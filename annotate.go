package sqlcomment

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrUnsupportedFragment is returned when a fragment is neither a string nor
// a structured query the annotator knows how to rewrite.
var ErrUnsupportedFragment = errors.New("sqlcomment: unsupported fragment type")

// Query is a structured SQL fragment: the statement text plus whatever the
// host needs to execute it. Only Query is ever rewritten.
type Query struct {
	Query string
	// Bind holds the bound parameters for the placeholders in Query.
	Bind []interface{}
	// Type is the statement kind the generator produced, eg "INSERT".
	Type string
}

// SQL returns the statement text.
func (q *Query) SQL() string { return q.Query }

// SetSQL replaces the statement text.
func (q *Query) SetSQL(s string) { q.Query = s }

// Fragment is implemented by host query objects that carry their SQL text
// alongside other data. The annotator only touches the text.
type Fragment interface {
	SQL() string
	SetSQL(string)
}

// Annotator prepends sanitized comment blocks to SQL fragments. Build one with
// Config.Annotator.
type Annotator struct {
	Delimiter string
	Policy    Policy
	Escaper   EscapeFunc
}

// Block renders comment as a complete `/* ... */` block.
func Block(comment interface{}, policy Policy, escape EscapeFunc) string {
	return "/* " + policy.Sanitize(comment, escape) + " */"
}

// Block renders comment with this annotator's policy and escaper.
func (a *Annotator) Block(comment interface{}) string {
	return Block(comment, a.Policy, a.Escaper)
}

// String returns sql with the comment block and delimiter in front of it.
func (a *Annotator) String(comment interface{}, sql string) string {
	return a.Block(comment) + a.Delimiter + sql
}

// Prepend is String for callers that may hold a blank comment: sql comes
// back unchanged when there is nothing to say.
func (a *Annotator) Prepend(comment interface{}, sql string) string {
	if Blank(comment) {
		return sql
	}
	return a.String(comment, sql)
}

// Fragment annotates a string, a Query (value or pointer) or any Fragment. A
// pointer or Fragment is modified in place and returned; a Query value comes
// back as a modified copy. A blank comment returns fragment untouched.
func (a *Annotator) Fragment(comment interface{}, fragment interface{}) (interface{}, error) {
	if Blank(comment) {
		return fragment, nil
	}
	switch f := fragment.(type) {
	case string:
		return a.String(comment, f), nil
	case Query:
		f.Query = a.String(comment, f.Query)
		return f, nil
	case Fragment:
		if v := reflect.ValueOf(f); v.Kind() == reflect.Ptr && v.IsNil() {
			return nil, fmt.Errorf("%w: nil %T", ErrUnsupportedFragment, fragment)
		}
		f.SetSQL(a.String(comment, f.SQL()))
		return f, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedFragment, fragment)
}

// Annotate prepends comment to fragment using delimiter and the default
// EscapePolicy.
func Annotate(comment interface{}, fragment interface{}, delimiter string) (interface{}, error) {
	a := &Annotator{Delimiter: delimiter}
	return a.Fragment(comment, fragment)
}

// Blank reports whether a comment value means "no comment": nil, the empty
// string, false, a numeric zero, an empty slice or map, or a nil pointer.
func Blank(comment interface{}) bool {
	if comment == nil {
		return true
	}
	v := reflect.ValueOf(comment)
	switch v.Kind() {
	case reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Map, reflect.Slice:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
