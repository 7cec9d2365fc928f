package messages

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/groupchat/internal/dbx"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query :=
		`INSERT INTO messages (group_id, user_id, text)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	if err := r.db.QueryRowContext(ctx, query, msg.GroupID, msg.UserID, msg.Text).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return msg, nil
}

const (
	listDesc =
		`SELECT id, group_id, user_id, text, created_at FROM messages
		 WHERE group_id = $1
		   AND ($2::bigint IS NULL OR id < $2)
		   AND ($3::bigint IS NULL OR id > $3)
		 ORDER BY id DESC
		 LIMIT $4
		 `
	listAsc =
		`SELECT id, group_id, user_id, text, created_at FROM messages
		 WHERE group_id = $1
		   AND ($2::bigint IS NULL OR id < $2)
		   AND ($3::bigint IS NULL OR id > $3)
		 ORDER BY id ASC
		 LIMIT $4
		 `
)

func (r *PostgresRepository) List(ctx context.Context, q Query) ([]*models.Message, error) {
	query := listDesc
	if q.Ascending {
		query = listAsc
	}

	rows, err := r.db.QueryContext(ctx, query, q.GroupID, nullInt64(q.OlderThan), nullInt64(q.NewerThan), q.Limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanMessages(rows)
}

func (r *PostgresRepository) ExistsOlder(ctx context.Context, groupID, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM messages WHERE group_id = $1 AND id < $2)`, groupID, id)
}

func (r *PostgresRepository) ExistsNewer(ctx context.Context, groupID, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM messages WHERE group_id = $1 AND id > $2)`, groupID, id)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Message, error) {
	query :=
		`SELECT id, group_id, user_id, text, created_at FROM messages
		 WHERE user_id = $1
		 ORDER BY id DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanMessages(rows)
}

func (r *PostgresRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func scanMessages(rows *sql.Rows) ([]*models.Message, error) {
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
