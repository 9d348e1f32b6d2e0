package notification

import "context"

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByPrincipal(ctx context.Context, principal string, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, principal string) (int, error)
	MarkRead(ctx context.Context, principal, id string) error
	MarkAllRead(ctx context.Context, principal string) error
}
