package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/dbx"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, username, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, token_version, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, user.Email, user.Username, user.PasswordHash).
		Scan(&user.ID, &user.TokenVersion, &user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT id, email, username, password_hash, token_version, created_at FROM users
		 WHERE id = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, username, password_hash, token_version, created_at FROM users
		 WHERE email = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) UpdateUsername(ctx context.Context, id int64, username string) (*models.User, error) {
	query :=
		`UPDATE users SET username = $2
		 WHERE id = $1
		 RETURNING id, email, username, password_hash, token_version, created_at
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, username))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error) {
	query :=
		`UPDATE users SET password_hash = $2, token_version = token_version + 1
		 WHERE id = $1
		 RETURNING token_version
		 `
	return r.scanVersion(r.db.QueryRowContext(ctx, query, id, passwordHash))
}

func (r *PostgresRepository) IncrementTokenVersion(ctx context.Context, id int64) (int64, error) {
	query :=
		`UPDATE users SET token_version = token_version + 1
		 WHERE id = $1
		 RETURNING token_version
		 `
	return r.scanVersion(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.TokenVersion, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) scanVersion(row *sql.Row) (int64, error) {
	var version int64
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}
