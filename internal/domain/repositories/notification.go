package repositories

import (
	"auction-marketplace/internal/domain"
	"context"
)

type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *domain.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

type WatchlistRepository interface {
	AddToWatchlist(ctx context.Context, entry *domain.WatchlistEntry) error
	RemoveFromWatchlist(ctx context.Context, userID, listingID string) error
	IsWatching(ctx context.Context, userID, listingID string) (bool, error)
	ListWatchedListings(ctx context.Context, userID string) ([]*domain.Listing, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *domain.Comment) error
	ListComments(ctx context.Context, listingID string) ([]*domain.Comment, error)
}
