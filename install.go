package sqlcomment

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// ErrNoOperation is returned by OperationTable.Call for a name that was never
// registered.
var ErrNoOperation = errors.New("sqlcomment: no such operation")

// Names of the query generator operations that get wrapped.
const (
	SelectQuery     = "selectQuery"
	InsertQuery     = "insertQuery"
	UpdateQuery     = "updateQuery"
	DeleteQuery     = "deleteQuery"
	BulkInsertQuery = "bulkInsertQuery"
)

// OperationSpec names a fragment producing operation and the position of its
// options argument, the one that may carry a comment.
type OperationSpec struct {
	Name       string
	OptionsArg int
}

// Operations is the fixed set of wrapped operations. The argument positions
// follow the host calling convention:
//
//	selectQuery(table, options, model)
//	insertQuery(table, values, attributes, options)
//	updateQuery(table, values, where, options, attributes)
//	deleteQuery(table, where, options)
//	bulkInsertQuery(table, rows, options, attributes)
//
// A host that changes any of these signatures needs this table updated.
var Operations = []OperationSpec{
	{Name: SelectQuery, OptionsArg: 1},
	{Name: InsertQuery, OptionsArg: 3},
	{Name: UpdateQuery, OptionsArg: 3},
	{Name: DeleteQuery, OptionsArg: 2},
	{Name: BulkInsertQuery, OptionsArg: 2},
}

// Operation produces a SQL fragment, either a string or a structured query.
type Operation func(args ...interface{}) (interface{}, error)

// OperationTable is a host's set of named fragment producing operations. It
// also records whether comment injection has been installed on it, so a
// table is only ever wrapped once.
type OperationTable struct {
	mu        sync.RWMutex
	ops       map[string]Operation
	installed bool
	annotator *Annotator
}

// NewOperationTable returns an empty table.
func NewOperationTable() *OperationTable {
	return &OperationTable{ops: make(map[string]Operation)}
}

// Set registers op under name, replacing any previous operation. On an
// installed table an operation named in Operations is wrapped as it is set,
// so replacing one never drops the comment.
func (t *OperationTable) Set(name string, op Operation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ops == nil {
		t.ops = make(map[string]Operation)
	}
	if t.installed {
		if desc, ok := lookupSpec(name); ok {
			op = wrapOperation(desc, op, t.annotator)
		}
	}
	t.ops[name] = op
}

// Lookup returns the operation registered under name.
func (t *OperationTable) Lookup(name string) (Operation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	op, ok := t.ops[name]
	return op, ok
}

// Call invokes the named operation.
func (t *OperationTable) Call(name string, args ...interface{}) (interface{}, error) {
	op, ok := t.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoOperation, name)
	}
	return op(args...)
}

// Names lists the registered operations in sorted order.
func (t *OperationTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.ops))
	for name := range t.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Installed reports whether comment injection is installed on the table.
func (t *OperationTable) Installed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.installed
}

// Host is anything that exposes a query generator operation table, usually
// an ORM connection or dialect.
type Host interface {
	QueryGenerator() *OperationTable
}

// Install wraps the host's query generator operations so that a comment found
// in an operation's options is prepended to the fragment it returns. Only the
// first config is used; with none, the zero Config applies. Installing twice
// on the same host is a no-op, and operations the host does not have are
// skipped. The host is returned for chaining.
//
// Install panics if the host has no operation table.
func Install(h Host, cfgs ...Config) Host {
	table := h.QueryGenerator()
	if table == nil {
		panic(fmt.Sprintf("sqlcomment: %T has no query generator operation table", h))
	}
	InstallTable(table, resolveConfig(cfgs))
	return h
}

// InstallTable installs comment injection on table directly. It returns false
// if the table was already installed.
func InstallTable(table *OperationTable, cfg Config) bool {
	table.mu.Lock()
	defer table.mu.Unlock()
	if table.installed {
		return false
	}
	table.installed = true

	annotator := cfg.Annotator()
	table.annotator = annotator
	for _, desc := range Operations {
		original, ok := table.ops[desc.Name]
		if !ok {
			continue
		}
		table.ops[desc.Name] = wrapOperation(desc, original, annotator)
	}
	return true
}

func lookupSpec(name string) (OperationSpec, bool) {
	for _, desc := range Operations {
		if desc.Name == name {
			return desc, true
		}
	}
	return OperationSpec{}, false
}

func wrapOperation(desc OperationSpec, original Operation, annotator *Annotator) Operation {
	return func(args ...interface{}) (interface{}, error) {
		base, err := original(args...)
		if err != nil {
			return base, err
		}
		var opts interface{}
		if desc.OptionsArg < len(args) {
			opts = args[desc.OptionsArg]
		}
		comment := CommentOf(opts)
		if Blank(comment) {
			return base, nil
		}
		return annotator.Fragment(comment, base)
	}
}

// Commenter is implemented by option types that carry a comment.
type Commenter interface {
	SQLComment() interface{}
}

// CommentOf pulls the comment out of an options value. It understands
// Commenter, map[string]interface{} with a "comment" key, and structs (or
// pointers to structs) with an exported Comment field. Anything else has no
// comment.
func CommentOf(opts interface{}) interface{} {
	switch o := opts.(type) {
	case nil:
		return nil
	case Commenter:
		if v := reflect.ValueOf(o); v.Kind() == reflect.Ptr && v.IsNil() {
			return nil
		}
		return o.SQLComment()
	case map[string]interface{}:
		return o["comment"]
	}

	v := reflect.ValueOf(opts)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	field := v.FieldByName("Comment")
	if !field.IsValid() || !field.CanInterface() {
		return nil
	}
	return field.Interface()
}
