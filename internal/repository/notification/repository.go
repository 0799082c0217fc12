package notification

import (
	"context"
	"time"

	"pharmacy-pos/internal/domain"
)

// ListFilter narrows notification listings. Nil IsRead and empty Type match
// everything.
type ListFilter struct {
	IsRead *bool
	Type   domain.NotificationType
	Skip   int
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, n domain.Notification) (*domain.Notification, error)
	List(ctx context.Context, f ListFilter) ([]domain.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	SetRead(ctx context.Context, id int64, read bool) (*domain.Notification, error)
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
	// ExistsSince reports whether a notification of type t about entity id
	// was raised at or after since.
	ExistsSince(ctx context.Context, t domain.NotificationType, entityID int64, since time.Time) (bool, error)
}
