package cmtpop

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"

	"github.com/gobuffalo/pop/v6"
	"github.com/jmoiron/sqlx"

	"github.com/honeycombio/sqlcomment-go/wrappers/cmtsqlx"
)

// ErrNoTransaction is returned by Commit and Rollback when no transaction has
// been started on the store.
var ErrNoTransaction = errors.New("cmtpop: no transaction in progress")

type DB struct {
	DB *cmtsqlx.DB
	tx *pop.Tx
}

// Wrap returns a pop store that runs its statements through db.
func Wrap(db *cmtsqlx.DB) *DB {
	return &DB{DB: db}
}

func (m *DB) Select(dest interface{}, query string, args ...interface{}) error {
	return m.DB.Select(dest, query, args...)
}
func (m *DB) Get(dest interface{}, query string, args ...interface{}) error {
	return m.DB.Get(dest, query, args...)
}
func (m *DB) NamedExec(query string, arg interface{}) (sql.Result, error) {
	return m.DB.NamedExec(query, arg)
}
func (m *DB) NamedQuery(query string, arg interface{}) (*sqlx.Rows, error) {
	return m.DB.NamedQuery(query, arg)
}
func (m *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.DB.Exec(query, args...)
}
func (m *DB) PrepareNamed(query string) (*sqlx.NamedStmt, error) {
	return m.PrepareNamedContext(context.Background(), query)
}
func (m *DB) Transaction() (*pop.Tx, error) {
	return m.TransactionContextOptions(context.Background(), nil)
}
func (m *DB) Rollback() error {
	if m.tx == nil {
		return ErrNoTransaction
	}
	return m.tx.Rollback()
}
func (m *DB) Commit() error {
	if m.tx == nil {
		return ErrNoTransaction
	}
	return m.tx.Commit()
}
func (m *DB) Close() error {
	return m.DB.Close()
}
func (m *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return m.DB.SelectContext(ctx, dest, query, args...)
}
func (m *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return m.DB.GetContext(ctx, dest, query, args...)
}
func (m *DB) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	return m.DB.NamedExecContext(ctx, query, arg)
}
func (m *DB) NamedQueryContext(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error) {
	return m.DB.NamedQueryContext(ctx, query, arg)
}
func (m *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return m.DB.ExecContext(ctx, query, args...)
}
func (m *DB) PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error) {
	p, err := m.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return p.GetWrappedNamedStmt(), nil
}
func (m *DB) TransactionContext(ctx context.Context) (*pop.Tx, error) {
	return m.TransactionContextOptions(ctx, nil)
}
func (m *DB) TransactionContextOptions(ctx context.Context, opts *sql.TxOptions) (*pop.Tx, error) {
	tx, err := m.DB.BeginTxx(ctx, opts)
	if err != nil {
		return nil, err
	}
	t := &pop.Tx{
		ID: rand.Int(),
		Tx: tx.GetWrappedTx(),
	}
	m.tx = t
	return t, nil
}
