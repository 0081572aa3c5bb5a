package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
	"github.com/FahmidKDAU/dcr-solution/internal/repository"
)

type txKey struct{}

type repositoryImpl struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (repository.Repository, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &repositoryImpl{pool: pool}, nil
}

func (r *repositoryImpl) Close() { r.pool.Close() }

func (r *repositoryImpl) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

// RunInTx runs fn in a transaction carried by the context. Nested calls
// join the outer transaction.
func (r *repositoryImpl) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func (r *repositoryImpl) getQuerier(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.pool
}

func (r *repositoryImpl) handleError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return domain.ErrConflict
		case pgerrcode.ForeignKeyViolation:
			return domain.ErrNotFound
		case pgerrcode.CheckViolation:
			return &domain.ValidationError{Message: "value rejected by " + pgErr.ConstraintName}
		}
	}
	return err
}

// execBatch sends the queued statements and reports the first failure.
func (r *repositoryImpl) execBatch(ctx context.Context, b *pgx.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	br := r.getQuerier(ctx).SendBatch(ctx, b)
	defer br.Close()
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return r.handleError(err)
		}
	}
	return nil
}

// personCols scans the three columns of a left-joined person.
type personCols struct {
	id    *int64
	name  *string
	email *string
}

func (p *personCols) targets() []any { return []any{&p.id, &p.name, &p.email} }

func (p *personCols) person() *domain.Person {
	if p.id == nil {
		return nil
	}
	out := &domain.Person{ID: *p.id}
	if p.name != nil {
		out.DisplayName = *p.name
	}
	if p.email != nil {
		out.Email = *p.email
	}
	return out
}

// lookupCols scans the two columns of a left-joined lookup or department.
type lookupCols struct {
	id    *int64
	title *string
}

func (l *lookupCols) targets() []any { return []any{&l.id, &l.title} }

func (l *lookupCols) item() *domain.LookupItem {
	if l.id == nil {
		return nil
	}
	out := &domain.LookupItem{ID: *l.id}
	if l.title != nil {
		out.Title = *l.title
	}
	return out
}

// nullID maps a zero id to NULL.
func nullID(id *int64) any {
	if id == nil || *id <= 0 {
		return nil
	}
	return *id
}
