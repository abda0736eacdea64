package cmtsqlx

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	libhoney "github.com/honeycombio/libhoney-go"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"

	sqlcomment "github.com/honeycombio/sqlcomment-go"
	"github.com/honeycombio/sqlcomment-go/client"
	"github.com/honeycombio/sqlcomment-go/internal"
)

type DB struct {
	// wdb is the wrapped sqlx db. It is not embedded because it's better to
	// fail compilation if some methods are missing than it is to silently send
	// unannotated statements through the underlying *sqlx.DB.
	wdb *sqlx.DB
	// Builder is available in case you wish to add fields to every SQL event
	// that will be created.
	Builder *libhoney.Builder
	// Mapper, if set, replaces the wrapped db's field name mapper before each
	// call that scans into structs.
	Mapper *reflectx.Mapper

	cmt internal.Commenter
}

// WrapDB wraps s. The optional config controls how comments are rendered.
func WrapDB(s *sqlx.DB, cfgs ...sqlcomment.Config) *DB {
	b := client.NewBuilder()
	addConns := func() interface{} {
		stats := s.DB.Stats()
		return stats.OpenConnections
	}
	b.AddDynamicField("db.open_conns", addConns)
	b.AddField("meta.type", "sqlx")
	b.AddField("db.driver", s.DriverName())
	return &DB{
		wdb:     s,
		Builder: b,
		cmt:     internal.NewCommenter(cfgs...),
	}
}

// GetWrappedDB returns the underlying *sqlx.DB. Statements run on it are not
// annotated.
func (db *DB) GetWrappedDB() *sqlx.DB { return db.wdb }

func (db *DB) mapper() {
	if db.Mapper != nil {
		db.wdb.Mapper = db.Mapper
	}
}

func (db *DB) Beginx() (*Tx, error) {
	return db.BeginTxx(context.Background(), nil)
}

func (db *DB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	var err error
	cmt := db.cmt.Inherit(ctx)
	ev, sender := internal.BuildDBEvent(db.Builder, cmt.Comment(ctx), "")
	defer func() {
		sender(err)
	}()

	bld := db.Builder.Clone()
	txid := uuid.NewString()
	bld.AddField("db.tx_id", txid)
	ev.AddField("db.tx_id", txid)

	db.mapper()
	tx, err := db.wdb.BeginTxx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{wtx: tx, Builder: bld, cmt: cmt}, nil
}

func (db *DB) MustBegin() *Tx {
	tx, err := db.Beginx()
	if err != nil {
		panic(err)
	}
	return tx
}

func (db *DB) BindNamed(query string, arg interface{}) (string, []interface{}, error) {
	return db.wdb.BindNamed(query, arg)
}

func (db *DB) DriverName() string { return db.wdb.DriverName() }

func (db *DB) Rebind(query string) string { return db.wdb.Rebind(query) }

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
	res, err := db.wdb.ExecContext(ctx, query, args...)
	internal.AddResultFields(ev, res)
	return res, err
}

func (db *DB) MustExec(query string, args ...interface{}) sql.Result {
	return db.MustExecContext(context.Background(), query, args...)
}

func (db *DB) MustExecContext(ctx context.Context, query string, args ...interface{}) sql.Result {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		panic(err)
	}
	return res
}

func (db *DB) Get(dest interface{}, query string, args ...interface{}) error {
	return db.GetContext(context.Background(), dest, query, args...)
}

func (db *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	var err error
	comment, query := db.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(db.Builder, comment, query, args...)
	defer func() {
		sender(err)
	}()
	db.mapper()
	err = db.wdb.GetContext(ctx, dest, query, args...)
	return err
}

func (db *DB) Select(dest interface{}, query string, args ...interface{}) error {
	return db.SelectContext(context.Background(), dest, query, args...)
}

func (db *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	var err error
	comment, query := db.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(db.Builder, comment, query, args...)
	defer func() {
		sender(err)
	}()
	db.mapper()
	err = db.wdb.SelectContext(ctx, dest, query, args...)
	return err
}

func (db *DB) NamedExec(query string, arg interface{}) (sql.Result, error) {
	return db.NamedExecContext(context.Background(), query, arg)
}

func (db *DB) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	var err error
	comment, query := db.cmt.AnnotateNamed(ctx, query)
	ev, sender := internal.BuildDBEvent(db.Builder, comment, query, arg)
	defer func() {
		sender(err)
	}()
	db.mapper()
	res, err := db.wdb.NamedExecContext(ctx, query, arg)
	internal.AddResultFields(ev, res)
	return res, err
}

func (db *DB) NamedQuery(query string, arg interface{}) (*sqlx.Rows, error) {
	return db.NamedQueryContext(context.Background(), query, arg)
}

func (db *DB) NamedQueryContext(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error) {
	var err error
	comment, query := db.cmt.AnnotateNamed(ctx, query)
	_, sender := internal.BuildDBEvent(db.Builder, comment, query, arg)
	defer func() {
		sender(err)
	}()
	db.mapper()
	rows, err := db.wdb.NamedQueryContext(ctx, query, arg)
	return rows, err
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

func (db *DB) PrepareNamed(query string) (*NamedStmt, error) {
	return db.PrepareNamedContext(context.Background(), query)
}

func (db *DB) PrepareNamedContext(ctx context.Context, query string) (*NamedStmt, error) {
	var err error
	comment, query := db.cmt.AnnotateNamed(ctx, query)
	_, sender := internal.BuildDBEvent(db.Builder, comment, query)
	defer func() {
		sender(err)
	}()
	db.mapper()
	stmt, err := db.wdb.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &NamedStmt{wns: stmt, Builder: db.Builder.Clone(), comment: comment, query: query}, nil
}

func (db *DB) Preparex(query string) (*Stmt, error) {
	return db.PreparexContext(context.Background(), query)
}

func (db *DB) PreparexContext(ctx context.Context, query string) (*Stmt, error) {
	var err error
	comment, query := db.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(db.Builder, comment, query)
	defer func() {
		sender(err)
	}()
	db.mapper()
	stmt, err := db.wdb.PreparexContext(ctx, query)
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

func (db *DB) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	return db.QueryxContext(context.Background(), query, args...)
}

func (db *DB) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	var err error
	comment, query := db.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(db.Builder, comment, query, args...)
	defer func() {
		sender(err)
	}()
	db.mapper()
	rows, err := db.wdb.QueryxContext(ctx, query, args...)
	return rows, err
}

func (db *DB) QueryRowx(query string, args ...interface{}) *sqlx.Row {
	return db.QueryRowxContext(context.Background(), query, args...)
}

func (db *DB) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	comment, query := db.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(db.Builder, comment, query, args...)
	db.mapper()
	row := db.wdb.QueryRowxContext(ctx, query, args...)
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

func (db *DB) SetConnMaxLifetime(d time.Duration) { db.wdb.SetConnMaxLifetime(d) }
func (db *DB) SetMaxIdleConns(n int)              { db.wdb.SetMaxIdleConns(n) }
func (db *DB) SetMaxOpenConns(n int)              { db.wdb.SetMaxOpenConns(n) }
func (db *DB) Stats() sql.DBStats                 { return db.wdb.Stats() }

// NamedStmt is a prepared named statement. Its text, comment included, was
// fixed when it was prepared.
type NamedStmt struct {
	wns     *sqlx.NamedStmt
	Builder *libhoney.Builder
	comment string
	query   string
}

// GetWrappedNamedStmt returns the underlying *sqlx.NamedStmt.
func (n *NamedStmt) GetWrappedNamedStmt() *sqlx.NamedStmt { return n.wns }

func (n *NamedStmt) Close() error {
	var err error
	_, sender := internal.BuildDBEvent(n.Builder, n.comment, n.query)
	defer func() {
		sender(err)
	}()
	err = n.wns.Close()
	return err
}

func (n *NamedStmt) Exec(arg interface{}) (sql.Result, error) {
	return n.ExecContext(context.Background(), arg)
}

func (n *NamedStmt) ExecContext(ctx context.Context, arg interface{}) (sql.Result, error) {
	var err error
	ev, sender := internal.BuildDBEvent(n.Builder, n.comment, n.query, arg)
	defer func() {
		sender(err)
	}()
	res, err := n.wns.ExecContext(ctx, arg)
	internal.AddResultFields(ev, res)
	return res, err
}

func (n *NamedStmt) Get(dest interface{}, arg interface{}) error {
	return n.GetContext(context.Background(), dest, arg)
}

func (n *NamedStmt) GetContext(ctx context.Context, dest interface{}, arg interface{}) error {
	var err error
	_, sender := internal.BuildDBEvent(n.Builder, n.comment, n.query, arg)
	defer func() {
		sender(err)
	}()
	err = n.wns.GetContext(ctx, dest, arg)
	return err
}

func (n *NamedStmt) Select(dest interface{}, arg interface{}) error {
	return n.SelectContext(context.Background(), dest, arg)
}

func (n *NamedStmt) SelectContext(ctx context.Context, dest interface{}, arg interface{}) error {
	var err error
	_, sender := internal.BuildDBEvent(n.Builder, n.comment, n.query, arg)
	defer func() {
		sender(err)
	}()
	err = n.wns.SelectContext(ctx, dest, arg)
	return err
}

func (n *NamedStmt) Queryx(arg interface{}) (*sqlx.Rows, error) {
	return n.QueryxContext(context.Background(), arg)
}

func (n *NamedStmt) QueryxContext(ctx context.Context, arg interface{}) (*sqlx.Rows, error) {
	var err error
	_, sender := internal.BuildDBEvent(n.Builder, n.comment, n.query, arg)
	defer func() {
		sender(err)
	}()
	rows, err := n.wns.QueryxContext(ctx, arg)
	return rows, err
}

// Stmt is a prepared statement. Its text, comment included, was fixed when it
// was prepared.
type Stmt struct {
	wstmt   *sqlx.Stmt
	Builder *libhoney.Builder
	comment string
	query   string
}

// GetWrappedStmt returns the underlying *sqlx.Stmt.
func (s *Stmt) GetWrappedStmt() *sqlx.Stmt { return s.wstmt }

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

func (s *Stmt) Get(dest interface{}, args ...interface{}) error {
	return s.GetContext(context.Background(), dest, args...)
}

func (s *Stmt) GetContext(ctx context.Context, dest interface{}, args ...interface{}) error {
	var err error
	_, sender := internal.BuildDBEvent(s.Builder, s.comment, s.query, args...)
	defer func() {
		sender(err)
	}()
	err = s.wstmt.GetContext(ctx, dest, args...)
	return err
}

func (s *Stmt) Select(dest interface{}, args ...interface{}) error {
	return s.SelectContext(context.Background(), dest, args...)
}

func (s *Stmt) SelectContext(ctx context.Context, dest interface{}, args ...interface{}) error {
	var err error
	_, sender := internal.BuildDBEvent(s.Builder, s.comment, s.query, args...)
	defer func() {
		sender(err)
	}()
	err = s.wstmt.SelectContext(ctx, dest, args...)
	return err
}

func (s *Stmt) Queryx(args ...interface{}) (*sqlx.Rows, error) {
	return s.QueryxContext(context.Background(), args...)
}

func (s *Stmt) QueryxContext(ctx context.Context, args ...interface{}) (*sqlx.Rows, error) {
	var err error
	_, sender := internal.BuildDBEvent(s.Builder, s.comment, s.query, args...)
	defer func() {
		sender(err)
	}()
	rows, err := s.wstmt.QueryxContext(ctx, args...)
	return rows, err
}

type Tx struct {
	wtx     *sqlx.Tx
	Builder *libhoney.Builder
	cmt     internal.Commenter
}

// GetWrappedTx returns the underlying *sqlx.Tx. Statements run on it are not
// annotated.
func (tx *Tx) GetWrappedTx() *sqlx.Tx { return tx.wtx }

func (tx *Tx) Commit() error {
	var err error
	_, sender := internal.BuildDBEvent(tx.Builder, "", "")
	defer func() {
		sender(err)
	}()
	err = tx.wtx.Commit()
	return err
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

func (tx *Tx) DriverName() string { return tx.wtx.DriverName() }

func (tx *Tx) Rebind(query string) string { return tx.wtx.Rebind(query) }

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

func (tx *Tx) Get(dest interface{}, query string, args ...interface{}) error {
	return tx.GetContext(context.Background(), dest, query, args...)
}

func (tx *Tx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	var err error
	comment, query := tx.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(tx.Builder, comment, query, args...)
	defer func() {
		sender(err)
	}()
	err = tx.wtx.GetContext(ctx, dest, query, args...)
	return err
}

func (tx *Tx) Select(dest interface{}, query string, args ...interface{}) error {
	return tx.SelectContext(context.Background(), dest, query, args...)
}

func (tx *Tx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	var err error
	comment, query := tx.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(tx.Builder, comment, query, args...)
	defer func() {
		sender(err)
	}()
	err = tx.wtx.SelectContext(ctx, dest, query, args...)
	return err
}

func (tx *Tx) NamedExec(query string, arg interface{}) (sql.Result, error) {
	return tx.NamedExecContext(context.Background(), query, arg)
}

func (tx *Tx) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	var err error
	comment, query := tx.cmt.AnnotateNamed(ctx, query)
	ev, sender := internal.BuildDBEvent(tx.Builder, comment, query, arg)
	defer func() {
		sender(err)
	}()
	res, err := tx.wtx.NamedExecContext(ctx, query, arg)
	internal.AddResultFields(ev, res)
	return res, err
}

func (tx *Tx) NamedQuery(query string, arg interface{}) (*sqlx.Rows, error) {
	var err error
	comment, query := tx.cmt.AnnotateNamed(context.Background(), query)
	_, sender := internal.BuildDBEvent(tx.Builder, comment, query, arg)
	defer func() {
		sender(err)
	}()
	rows, err := tx.wtx.NamedQuery(query, arg)
	return rows, err
}

func (tx *Tx) PrepareNamed(query string) (*NamedStmt, error) {
	return tx.PrepareNamedContext(context.Background(), query)
}

func (tx *Tx) PrepareNamedContext(ctx context.Context, query string) (*NamedStmt, error) {
	var err error
	comment, query := tx.cmt.AnnotateNamed(ctx, query)
	_, sender := internal.BuildDBEvent(tx.Builder, comment, query)
	defer func() {
		sender(err)
	}()
	stmt, err := tx.wtx.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &NamedStmt{wns: stmt, Builder: tx.Builder.Clone(), comment: comment, query: query}, nil
}

func (tx *Tx) Preparex(query string) (*Stmt, error) {
	return tx.PreparexContext(context.Background(), query)
}

func (tx *Tx) PreparexContext(ctx context.Context, query string) (*Stmt, error) {
	var err error
	comment, query := tx.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(tx.Builder, comment, query)
	defer func() {
		sender(err)
	}()
	stmt, err := tx.wtx.PreparexContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Stmt{wstmt: stmt, Builder: tx.Builder.Clone(), comment: comment, query: query}, nil
}

func (tx *Tx) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	return tx.QueryxContext(context.Background(), query, args...)
}

func (tx *Tx) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	var err error
	comment, query := tx.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(tx.Builder, comment, query, args...)
	defer func() {
		sender(err)
	}()
	rows, err := tx.wtx.QueryxContext(ctx, query, args...)
	return rows, err
}

func (tx *Tx) QueryRowx(query string, args ...interface{}) *sqlx.Row {
	return tx.QueryRowxContext(context.Background(), query, args...)
}

func (tx *Tx) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	comment, query := tx.cmt.Annotate(ctx, query)
	_, sender := internal.BuildDBEvent(tx.Builder, comment, query, args...)
	row := tx.wtx.QueryRowxContext(ctx, query, args...)
	sender(row.Err())
	return row
}

// Stmtx returns a version of stmt that runs inside this transaction.
func (tx *Tx) Stmtx(stmt *Stmt) *Stmt {
	return tx.StmtxContext(context.Background(), stmt)
}

func (tx *Tx) StmtxContext(ctx context.Context, stmt *Stmt) *Stmt {
	_, sender := internal.BuildDBEvent(tx.Builder, stmt.comment, stmt.query)
	defer sender(nil)
	return &Stmt{
		wstmt:   tx.wtx.StmtxContext(ctx, stmt.wstmt),
		Builder: tx.Builder.Clone(),
		comment: stmt.comment,
		query:   stmt.query,
	}
}
