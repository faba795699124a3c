// Package account implements the user account repository using PostgreSQL.
package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/defarm/defarm-backend/internal/adapter/postgres"
	"github.com/defarm/defarm-backend/internal/domain"
)

// Repo provides user account persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new account repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a new account. A duplicate ID or email returns
// domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, account *domain.UserAccount) (*domain.UserAccount, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`INSERT INTO user_accounts (id, name, email, created_at) VALUES ($1, $2, $3, $4)`,
		account.ID, account.Name, account.Email, account.CreatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "account", account.ID.String())
	}

	out := *account
	return &out, nil
}

// Get returns an account by ID.
func (r *Repo) Get(ctx context.Context, id uuid.UUID) (*domain.UserAccount, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var account domain.UserAccount
	err := q.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM user_accounts WHERE id = $1`, id,
	).Scan(&account.ID, &account.Name, &account.Email, &account.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "account", id.String())
	}
	return &account, nil
}
