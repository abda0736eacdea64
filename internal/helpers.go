// Package internal holds the event plumbing shared by the database wrappers.
package internal

import (
	"database/sql"
	"runtime"
	"strings"

	libhoney "github.com/honeycombio/libhoney-go"

	"github.com/honeycombio/sqlcomment-go/timer"
)

// BuildDBEvent brings together most of the things that need to happen for an
// event to wrap a DB call in both the sql and sqlx packages. It returns a
// function which, when called, dispatches the event that it created. This lets
// it finish a timer around the call automatically.
//
// query is the statement as it was sent to the database, comment included.
// comment is recorded on its own so events can be grouped by it.
func BuildDBEvent(bld *libhoney.Builder, comment, query string, args ...interface{}) (*libhoney.Event, func(error)) {
	t := timer.Start()
	ev := bld.NewEvent()
	fn := func(err error) {
		ev.AddField("duration_ms", t.Finish())
		if err != nil {
			ev.AddField("db.error", err.Error())
		}
		ev.Send()
	}

	// get the name of the function that called this one. Strip the package and type
	ev.AddField("db.call", callerName(2))

	if comment != "" {
		ev.AddField("db.comment", comment)
	}
	if query != "" {
		ev.AddField("db.query", query)
	}
	if args != nil {
		ev.AddField("db.query_args", args)
	}
	return ev, fn
}

func callerName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	chunks := strings.Split(fn.Name(), ".")
	return chunks[len(chunks)-1]
}

// AddResultFields records what an exec reported, when the driver reports it.
func AddResultFields(ev *libhoney.Event, res sql.Result) {
	if res == nil {
		return
	}
	if id, err := res.LastInsertId(); err == nil {
		ev.AddField("db.last_insert_id", id)
	}
	if n, err := res.RowsAffected(); err == nil {
		ev.AddField("db.rows_affected", n)
	}
}
