package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jobcrew/auth_backend/internal/apperrors"
	portsrepo "github.com/jobcrew/auth_backend/internal/core/ports/repositories"
	_ "modernc.org/sqlite"
)

//go:embed schema/schema.sql
var schema string

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the single-file credential store used for local development and tests.
// It holds one connection so transactions are serialized.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens the database at path (":memory:" works) and applies the schema.
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := newStore(db)
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func newStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RepositoryProvider exposes the store through the repository ports.
func (s *Store) RepositoryProvider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		IdentityRepo:  &IdentityRepository{db: s.db, now: s.now},
		PrincipalRepo: &PrincipalRepository{db: s.db, now: s.now},
		TxManager:     s,
	}
}

var _ portsrepo.TxManager = (*Store)(nil)

// WithinTx runs fn in one transaction. A nil result commits.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow portsrepo.UnitOfWork) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if err = fn(ctx, &unitOfWork{tx: tx, now: s.now}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type unitOfWork struct {
	tx  *sql.Tx
	now func() time.Time
}

func (u *unitOfWork) Identities() portsrepo.IdentityRepositoryFacade {
	return &IdentityRepository{db: u.tx, now: u.now}
}

func (u *unitOfWork) Principals() portsrepo.PrincipalRepositoryFacade {
	return &PrincipalRepository{db: u.tx, now: u.now}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func nullMillis(t sql.NullTime) sql.NullInt64 {
	if !t.Valid {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(t.Time), Valid: true}
}

func fromNullMillis(v sql.NullInt64) sql.NullTime {
	if !v.Valid {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: fromMillis(v.Int64), Valid: true}
}

// translateWriteError maps UNIQUE failures to apperrors.ErrDuplicate.
func translateWriteError(op string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%s: %w", op, apperrors.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
