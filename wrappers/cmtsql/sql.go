package cmtsql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	libhoney "github.com/honeycombio/libhoney-go"

	sqlcomment "github.com/honeycombio/sqlcomment-go"
	"github.com/honeycombio/sqlcomment-go/client"
	"github.com/honeycombio/sqlcomment-go/internal"
)

type DB struct {
	// wdb is the wrapped sql db. It is not embedded because it's better to fail
	// compilation if some methods are missing than it is to silently send
	// unannotated statements through the underlying *sql.DB.
	wdb *sql.DB
	// Builder is available in case you wish to add fields to every SQL event
	// that will be created.
	Builder *libhoney.Builder
	cmt     internal.Commenter
}

// WrapDB wraps s. The optional config controls how comments are rendered;
// the zero Config is used when none is given.
func WrapDB(s *sql.DB, cfgs ...sqlcomment.Config) *DB {
	b := client.NewBuilder()
	b.AddField("meta.type", "sql")
	return &DB{
		wdb:     s,
		Builder: b,
		cmt:     internal.NewCommenter(cfgs...),
	}
}

// Unwrap returns the underlying *sql.DB. Statements run on it are not
// annotated.
func (db *DB) Unwrap() *sql.DB { return db.wdb }

func (db *DB) Begin() (*Tx, error) {
	return db.BeginTx(context.Background(), nil)
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	var err error
	cmt := db.cmt.Inherit(ctx)
	comment := cmt.Comment(ctx)
	ev, sender := internal.BuildDBEvent(db.Builder, comment, "")
	defer func() {
		sender(err)
	}()

	bld := db.Builder.Clone()
	txid := uuid.NewString()
	bld.AddField("db.tx_id", txid)
	ev.AddField("db.tx_id", txid)
	if opts != nil {
		ev.AddField("db.options.isolation", opts.Isolation.String())
		ev.AddField("db.options.read_only", opts.ReadOnly)
	}

	// do DB call
	tx, err := db.wdb.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{wtx: tx, Builder: bld, cmt: cmt}, nil
}

func (db *DB) Conn(ctx context.Context) (*Conn, error) {
	var err error
	cmt := db.cmt.Inherit(ctx)
	comment := cmt.Comment(ctx)
	ev, sender := internal.BuildDBEvent(db.Builder, comment, "")
	defer func() {
		sender(err)
	}()

	bld := db.Builder.Clone()
	connid := uuid.NewString()
	bld.AddField("db.conn_id", connid)
	ev.AddField("db.conn_id", connid)

	// do DB call
	conn, err := db.wdb.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{wconn: conn, Builder: bld, cmt: cmt}, nil
}

func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.ExecContext(context.Background(), query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	var err error
	comment, query := db.cmt.Annotate(ctx, query)
	ev, sender := internal.BuildDBEvent(db.Builder, comment, query, args...)
	defer func() {
		sender(err)
	}()

	// do DB call
	res, err := db.wdb.ExecContext(ctx, query, args...)
	internal.AddResultFields(ev, res)
	return res, err
}

func (db *DB) Ping() error {
	return db.PingContext(context.Background())
}

func (db *DB) PingContext(ctx context.Context) error {
	var err error
	_, sender := internal.BuildDBEvent(db.Builder, "", "")
	defer func() {
		sender(err)
	}()
	err = db.wdb.PingContext(ctx)
	return err
}

func (db *DB) Prepare(query string) (*Stmt, error) {
	return db.PrepareContext(context.Background(), query)
}

func (db *DB) PrepareContext(ctx context.Context, query string) (*Stmt, error) {
	var err error
	comment, query := db.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(db.Builder, comment, query)
	defer func() {
		sender(err)
	}()

	// do DB call
	stmt, err := db.wdb.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Stmt{wstmt: stmt, Builder: db.Builder.Clone(), comment: comment, query: query}, nil
}

func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.QueryContext(context.Background(), query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	var err error
	comment, query := db.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(db.Builder, comment, query, args...)
	defer func() {
		sender(err)
	}()
	rows, err := db.wdb.QueryContext(ctx, query, args...)
	return rows, err
}

func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.QueryRowContext(context.Background(), query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	comment, query := db.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(db.Builder, comment, query, args...)
	row := db.wdb.QueryRowContext(ctx, query, args...)
	sender(row.Err())
	return row
}

func (db *DB) Close() error {
	var err error
	_, sender := internal.BuildDBEvent(db.Builder, "", "")
	defer func() {
		sender(err)
	}()
	err = db.wdb.Close()
	return err
}

// These pass straight through.
func (db *DB) Driver() driver.Driver              { return db.wdb.Driver() }
func (db *DB) SetConnMaxLifetime(d time.Duration) { db.wdb.SetConnMaxLifetime(d) }
func (db *DB) SetConnMaxIdleTime(d time.Duration) { db.wdb.SetConnMaxIdleTime(d) }
func (db *DB) SetMaxIdleConns(n int)              { db.wdb.SetMaxIdleConns(n) }
func (db *DB) SetMaxOpenConns(n int)              { db.wdb.SetMaxOpenConns(n) }
func (db *DB) Stats() sql.DBStats                 { return db.wdb.Stats() }

type Conn struct {
	wconn   *sql.Conn
	Builder *libhoney.Builder
	cmt     internal.Commenter
}

func (c *Conn) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	var err error
	cmt := c.cmt.Inherit(ctx)
	comment := cmt.Comment(ctx)
	ev, sender := internal.BuildDBEvent(c.Builder, comment, "")
	defer func() {
		sender(err)
	}()

	bld := c.Builder.Clone()
	txid := uuid.NewString()
	bld.AddField("db.tx_id", txid)
	ev.AddField("db.tx_id", txid)

	tx, err := c.wconn.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{wtx: tx, Builder: bld, cmt: cmt}, nil
}

func (c *Conn) Close() error {
	var err error
	_, sender := internal.BuildDBEvent(c.Builder, "", "")
	defer func() {
		sender(err)
	}()
	err = c.wconn.Close()
	return err
}

func (c *Conn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	var err error
	comment, query := c.cmt.Annotate(ctx, query)
	ev, sender := internal.BuildDBEvent(c.Builder, comment, query, args...)
	defer func() {
		sender(err)
	}()
	res, err := c.wconn.ExecContext(ctx, query, args...)
	internal.AddResultFields(ev, res)
	return res, err
}

func (c *Conn) PingContext(ctx context.Context) error {
	var err error
	_, sender := internal.BuildDBEvent(c.Builder, "", "")
	defer func() {
		sender(err)
	}()
	err = c.wconn.PingContext(ctx)
	return err
}

func (c *Conn) PrepareContext(ctx context.Context, query string) (*Stmt, error) {
	var err error
	comment, query := c.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(c.Builder, comment, query)
	defer func() {
		sender(err)
	}()
	stmt, err := c.wconn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Stmt{wstmt: stmt, Builder: c.Builder.Clone(), comment: comment, query: query}, nil
}

func (c *Conn) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	var err error
	comment, query := c.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(c.Builder, comment, query, args...)
	defer func() {
		sender(err)
	}()
	rows, err := c.wconn.QueryContext(ctx, query, args...)
	return rows, err
}

func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	comment, query := c.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(c.Builder, comment, query, args...)
	row := c.wconn.QueryRowContext(ctx, query, args...)
	sender(row.Err())
	return row
}

// Stmt is a prepared statement. Its text, comment included, was fixed when it
// was prepared.
type Stmt struct {
	wstmt   *sql.Stmt
	Builder *libhoney.Builder
	comment string
	query   string
}

func (s *Stmt) Close() error {
	var err error
	_, sender := internal.BuildDBEvent(s.Builder, s.comment, s.query)
	defer func() {
		sender(err)
	}()
	err = s.wstmt.Close()
	return err
}

func (s *Stmt) Exec(args ...interface{}) (sql.Result, error) {
	return s.ExecContext(context.Background(), args...)
}

func (s *Stmt) ExecContext(ctx context.Context, args ...interface{}) (sql.Result, error) {
	var err error
	ev, sender := internal.BuildDBEvent(s.Builder, s.comment, s.query, args...)
	defer func() {
		sender(err)
	}()
	res, err := s.wstmt.ExecContext(ctx, args...)
	internal.AddResultFields(ev, res)
	return res, err
}

func (s *Stmt) Query(args ...interface{}) (*sql.Rows, error) {
	return s.QueryContext(context.Background(), args...)
}

func (s *Stmt) QueryContext(ctx context.Context, args ...interface{}) (*sql.Rows, error) {
	var err error
	_, sender := internal.BuildDBEvent(s.Builder, s.comment, s.query, args...)
	defer func() {
		sender(err)
	}()
	rows, err := s.wstmt.QueryContext(ctx, args...)
	return rows, err
}

func (s *Stmt) QueryRow(args ...interface{}) *sql.Row {
	return s.QueryRowContext(context.Background(), args...)
}

func (s *Stmt) QueryRowContext(ctx context.Context, args ...interface{}) *sql.Row {
	_, sender := internal.BuildDBEvent(s.Builder, s.comment, s.query, args...)
	row := s.wstmt.QueryRowContext(ctx, args...)
	sender(row.Err())
	return row
}

type Tx struct {
	wtx     *sql.Tx
	Builder *libhoney.Builder
	cmt     internal.Commenter
}

func (tx *Tx) Commit() error {
	var err error
	_, sender := internal.BuildDBEvent(tx.Builder, "", "")
	defer func() {
		sender(err)
	}()
	err = tx.wtx.Commit()
	return err
}

func (tx *Tx) Exec(query string, args ...interface{}) (sql.Result, error) {
	return tx.ExecContext(context.Background(), query, args...)
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	var err error
	comment, query := tx.cmt.Annotate(ctx, query)
	ev, sender := internal.BuildDBEvent(tx.Builder, comment, query, args...)
	defer func() {
		sender(err)
	}()
	res, err := tx.wtx.ExecContext(ctx, query, args...)
	internal.AddResultFields(ev, res)
	return res, err
}

func (tx *Tx) Prepare(query string) (*Stmt, error) {
	return tx.PrepareContext(context.Background(), query)
}

func (tx *Tx) PrepareContext(ctx context.Context, query string) (*Stmt, error) {
	var err error
	comment, query := tx.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(tx.Builder, comment, query)
	defer func() {
		sender(err)
	}()
	stmt, err := tx.wtx.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Stmt{wstmt: stmt, Builder: tx.Builder.Clone(), comment: comment, query: query}, nil
}

func (tx *Tx) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return tx.QueryContext(context.Background(), query, args...)
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	var err error
	comment, query := tx.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(tx.Builder, comment, query, args...)
	defer func() {
		sender(err)
	}()
	rows, err := tx.wtx.QueryContext(ctx, query, args...)
	return rows, err
}

func (tx *Tx) QueryRow(query string, args ...interface{}) *sql.Row {
	return tx.QueryRowContext(context.Background(), query, args...)
}

func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	comment, query := tx.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(tx.Builder, comment, query, args...)
	row := tx.wtx.QueryRowContext(ctx, query, args...)
	sender(row.Err())
	return row
}

func (tx *Tx) Rollback() error {
	var err error
	_, sender := internal.BuildDBEvent(tx.Builder, "", "")
	defer func() {
		sender(err)
	}()
	err = tx.wtx.Rollback()
	return err
}

// Stmt returns a transaction-specific prepared statement from an existing one.
func (tx *Tx) Stmt(stmt *Stmt) *Stmt {
	return tx.StmtContext(context.Background(), stmt)
}

func (tx *Tx) StmtContext(ctx context.Context, stmt *Stmt) *Stmt {
	_, sender := internal.BuildDBEvent(tx.Builder, stmt.comment, stmt.query)
	defer sender(nil)
	return &Stmt{
		wstmt:   tx.wtx.StmtContext(ctx, stmt.wstmt),
		Builder: tx.Builder.Clone(),
		comment: stmt.comment,
		query:   stmt.query,
	}
}
