package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUserNotFound is returned when a cart write references an unknown user.
	ErrUserNotFound = errors.New("user not found")
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// Store groups the repositories that must share a transaction.
type Store interface {
	Users() UserRepository
	Carts() CartRepository
	Orders() OrderRepository
	// WithinTransaction runs fn against repositories bound to one database
	// transaction. It commits when fn returns nil and rolls back otherwise.
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository   { return NewGormUserRepository(s.db) }
func (s *GormStore) Carts() CartRepository   { return NewGormCartRepository(s.db) }
func (s *GormStore) Orders() OrderRepository { return NewGormOrderRepository(s.db) }

func (s *GormStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
