package postgres

import (
	"context"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/model"
)

func (r *notificationRepository) Create(ctx context.Context, n model.Notification) (*model.Notification, error) {
	const query = `INSERT INTO notifications (user_id, notification_type, order_id, message)
                   VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	created := n
	if err := r.storage.pool.QueryRow(ctx, query, n.UserID, n.Type, n.OrderID, n.Message).
		Scan(&created.ID, &created.CreatedAt); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	const query = `SELECT id, user_id, notification_type, order_id, message, is_read, created_at
                   FROM notifications WHERE user_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.OrderID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id int64) error {
	const query = `UPDATE notifications SET is_read=TRUE WHERE id=$1 AND user_id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	const query = `UPDATE notifications SET is_read=TRUE WHERE user_id=$1 AND NOT is_read`
	tag, err := r.storage.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
