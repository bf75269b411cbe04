package repository

import (
	"context"

	"github.com/polkiloo/agristar/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n model.Notification) (*model.Notification, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}
