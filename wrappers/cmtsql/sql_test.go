package cmtsql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/go-sql-driver/mysql"
	"github.com/honeycombio/libhoney-go/transmission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlcomment "github.com/honeycombio/sqlcomment-go"
	"github.com/honeycombio/sqlcomment-go/client"
	"github.com/honeycombio/sqlcomment-go/wrappers/cmtsql"
)

func Example() {
	// Initialize the event client. For demonstration, send events to STDOUT
	// instead of Honeycomb.
	client.Init(client.Config{
		WriteKey: "abcabc123123",
		Dataset:  "sql",
		STDOUT:   true,
	})
	// and make sure we close to force flushing all pending events before shutdown
	defer client.Close()

	// open a regular sql.DB connection
	odb, err := sql.Open("mysql", "root:@tcp(127.0.0.1)/donut")
	if err != nil {
		fmt.Printf("connection err: %s\n", err)
		return
	}

	// replace it with a wrapped cmtsql.DB
	db := cmtsql.WrapDB(odb)
	// and say who is asking
	ctx := sqlcomment.WithComment(context.Background(), "donut inventory")

	// from here on, every statement run with ctx starts with /* donut inventory */
	db.ExecContext(ctx, "insert into flavors (flavor) values ('rose')")
	fv := "rose"
	rows, err := db.QueryContext(ctx, "SELECT id FROM flavors WHERE flavor=?", fv)
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%d is %s\n", id, fv)
	}
	if err := rows.Err(); err != nil {
		log.Fatal(err)
	}
}

func setup(t *testing.T, cfgs ...sqlcomment.Config) (*cmtsql.DB, sqlmock.Sqlmock, *transmission.MockSender) {
	mo := &transmission.MockSender{}
	require.NoError(t, client.Init(client.Config{Transmission: mo}))
	t.Cleanup(client.Close)

	odb, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { odb.Close() })
	return cmtsql.WrapDB(odb, cfgs...), mock, mo
}

func TestExecAnnotatesWithContextComment(t *testing.T) {
	db, mock, mo := setup(t)
	mock.ExpectExec("/* GET /flavors */ INSERT INTO flavors (flavor) VALUES (?)").
		WithArgs("rose").
		WillReturnResult(sqlmock.NewResult(7, 1))

	ctx := sqlcomment.WithComment(context.Background(), "GET /flavors")
	_, err := db.ExecContext(ctx, "INSERT INTO flavors (flavor) VALUES (?)", "rose")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	evs := mo.Events()
	require.Len(t, evs, 1)
	fields := evs[0].Data
	assert.Equal(t, "sql", fields["meta.type"])
	assert.Equal(t, "ExecContext", fields["db.call"])
	assert.Equal(t, "GET /flavors", fields["db.comment"])
	assert.Equal(t, "/* GET /flavors */ INSERT INTO flavors (flavor) VALUES (?)", fields["db.query"])
	assert.Equal(t, []interface{}{"rose"}, fields["db.query_args"])
	assert.Equal(t, int64(7), fields["db.last_insert_id"])
	assert.Equal(t, int64(1), fields["db.rows_affected"])
}

func TestNoCommentLeavesQueryAlone(t *testing.T) {
	db, mock, mo := setup(t)
	mock.ExpectExec("DELETE FROM flavors").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM toppings").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := db.Exec("DELETE FROM flavors")
	require.NoError(t, err)
	_, err = db.ExecContext(sqlcomment.WithComment(context.Background(), ""), "DELETE FROM toppings")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	for _, ev := range mo.Events() {
		assert.NotContains(t, ev.Data, "db.comment")
	}
}

func TestHostileCommentStaysInsideTheBlock(t *testing.T) {
	db, mock, _ := setup(t)
	mock.ExpectQuery(`/* x \*\/ DROP TABLE flavors; \/\* */ SELECT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ctx := sqlcomment.WithComment(context.Background(), "x */ DROP TABLE flavors; /*")
	rows, err := db.QueryContext(ctx, "SELECT 1")
	require.NoError(t, err)
	rows.Close()
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryRowContext(t *testing.T) {
	db, mock, mo := setup(t)
	mock.ExpectQuery("/* menu */ SELECT flavor FROM flavors WHERE id = ?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"flavor"}).AddRow("rose"))

	var flavor string
	ctx := sqlcomment.WithComment(context.Background(), "menu")
	require.NoError(t, db.QueryRowContext(ctx, "SELECT flavor FROM flavors WHERE id = ?", 1).Scan(&flavor))
	assert.Equal(t, "rose", flavor)
	require.NoError(t, mock.ExpectationsWereMet())

	evs := mo.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, "QueryRowContext", evs[0].Data["db.call"])
}

func TestErrorIsRecorded(t *testing.T) {
	db, mock, mo := setup(t)
	mock.ExpectExec("/* c */ UPDATE t SET a = 1").WillReturnError(errors.New("boom"))

	_, err := db.ExecContext(sqlcomment.WithComment(context.Background(), "c"), "UPDATE t SET a = 1")
	assert.EqualError(t, err, "boom")

	evs := mo.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, "boom", evs[0].Data["db.error"])
}

func TestTransactionInheritsComment(t *testing.T) {
	db, mock, mo := setup(t)
	mock.ExpectBegin()
	mock.ExpectExec("/* checkout */ UPDATE stock SET n = n - 1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("/* refund */ UPDATE stock SET n = n + 1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := sqlcomment.WithComment(context.Background(), "checkout")
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	// no context of its own, so the transaction's comment is used
	_, err = tx.Exec("UPDATE stock SET n = n - 1")
	require.NoError(t, err)
	// a comment on the call's context wins
	_, err = tx.ExecContext(sqlcomment.WithComment(ctx, "refund"), "UPDATE stock SET n = n + 1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())

	evs := mo.Events()
	require.Len(t, evs, 4)
	txid := evs[0].Data["db.tx_id"]
	assert.NotEmpty(t, txid)
	for _, ev := range evs {
		assert.Equal(t, txid, ev.Data["db.tx_id"])
	}
	assert.Equal(t, "checkout", evs[0].Data["db.comment"])
}

func TestPreparedStatementKeepsComment(t *testing.T) {
	db, mock, mo := setup(t)
	prep := mock.ExpectPrepare("/* batch load */ INSERT INTO t (a) VALUES (?)")
	prep.ExpectExec().WithArgs(1).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs(2).WillReturnResult(sqlmock.NewResult(2, 1))
	prep.WillBeClosed()

	stmt, err := db.PrepareContext(sqlcomment.WithComment(context.Background(), "batch load"), "INSERT INTO t (a) VALUES (?)")
	require.NoError(t, err)
	_, err = stmt.Exec(1)
	require.NoError(t, err)
	_, err = stmt.ExecContext(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, stmt.Close())
	require.NoError(t, mock.ExpectationsWereMet())

	for _, ev := range mo.Events() {
		assert.Equal(t, "batch load", ev.Data["db.comment"])
	}
}

func TestConnInheritsComment(t *testing.T) {
	db, mock, _ := setup(t)
	mock.ExpectExec("/* pinned */ SET @a = 1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("/* pinned */ SELECT @a").WillReturnRows(sqlmock.NewRows([]string{"@a"}).AddRow(1))

	ctx := sqlcomment.WithComment(context.Background(), "pinned")
	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ExecContext(context.Background(), "SET @a = 1")
	require.NoError(t, err)
	var a int
	require.NoError(t, conn.QueryRowContext(context.Background(), "SELECT @a").Scan(&a))
	assert.Equal(t, 1, a)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWrapDBWithConfig(t *testing.T) {
	db, mock, _ := setup(t, sqlcomment.Config{Newline: true, Policy: sqlcomment.CollapsePolicy})
	mock.ExpectExec("/* nightly cleanup */\nDELETE FROM sessions").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := db.ExecContext(sqlcomment.WithComment(context.Background(), "nightly\ncleanup"), "DELETE FROM sessions")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
