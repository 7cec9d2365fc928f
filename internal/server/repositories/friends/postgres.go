package friends

import (
	"context"
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

func (r *PostgresRepository) Add(ctx context.Context, userID, friendID int64) error {
	if userID == friendID {
		return common.ErrInvalidArgument
	}

	query :=
		`INSERT INTO friendships (user_id, friend_id)
		 VALUES ($1, $2), ($2, $1)
		 ON CONFLICT DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, friendID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int64) ([]*models.User, error) {
	query :=
		`SELECT u.id, u.username, u.created_at FROM users u
		 JOIN friendships f ON f.friend_id = u.id
		 WHERE f.user_id = $1
		 ORDER BY u.id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) IsFriend(ctx context.Context, userID, friendID int64) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, friendID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}
