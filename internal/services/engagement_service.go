package services

import (
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type WatchlistService struct {
	store repositories.Store
	now   func() time.Time
}

func NewWatchlistService(store repositories.Store) *WatchlistService {
	return &WatchlistService{store: store, now: time.Now}
}

// Add is idempotent.
func (s *WatchlistService) Add(ctx context.Context, userID, listingID string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	if _, err := s.store.Listings().GetListing(ctx, listingID); err != nil {
		return err
	}
	return s.store.Watchlist().AddToWatchlist(ctx, &domain.WatchlistEntry{
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: s.now().UTC(),
	})
}

func (s *WatchlistService) Remove(ctx context.Context, userID, listingID string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	return s.store.Watchlist().RemoveFromWatchlist(ctx, userID, listingID)
}

func (s *WatchlistService) List(ctx context.Context, userID string) ([]*domain.Listing, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.store.Watchlist().ListWatchedListings(ctx, userID)
}

type CommentService struct {
	store repositories.Store
	now   func() time.Time
	log   logger.Logger
}

func NewCommentService(store repositories.Store, log logger.Logger) *CommentService {
	return &CommentService{store: store, now: time.Now, log: log}
}

func (s *CommentService) AddComment(ctx context.Context, userID, listingID, body string) (*domain.Comment, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > domain.MaxCommentLength {
		return nil, domain.ErrInvalidComment
	}
	if _, err := s.store.Listings().GetListing(ctx, listingID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	comment := &domain.Comment{
		ID:        utils.GenerateID("cmt"),
		AuthorID:  userID,
		ListingID: listingID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Comments().CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("service: add comment: %w", err)
	}
	s.log.Info("Comment added", "listing_id", listingID, "user_id", userID, "comment_id", comment.ID)
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, listingID string) ([]*domain.Comment, error) {
	if _, err := s.store.Listings().GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	return s.store.Comments().ListComments(ctx, listingID)
}

type NotificationService struct {
	store repositories.Store
	log   logger.Logger
}

func NewNotificationService(store repositories.Store, log logger.Logger) *NotificationService {
	return &NotificationService{store: store, log: log}
}

// List returns the user's notifications, newest first, as they were before
// the call, then marks them all read.
func (s *NotificationService) List(ctx context.Context, userID string) ([]*domain.Notification, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	notifications, err := s.store.Notifications().ListNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: list notifications: %w", err)
	}
	if _, err := s.store.Notifications().MarkAllRead(ctx, userID); err != nil {
		return nil, fmt.Errorf("service: mark notifications read: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, domain.ErrUnauthenticated
	}
	return s.store.Notifications().CountUnread(ctx, userID)
}

// HistoryService reads the archived bid events, which outlive the bid rows
// purged on close.
type HistoryService struct {
	store  repositories.Store
	events repositories.BidEventRepository
}

func NewHistoryService(store repositories.Store, events repositories.BidEventRepository) *HistoryService {
	return &HistoryService{store: store, events: events}
}

func (s *HistoryService) BidHistory(ctx context.Context, listingID string) ([]*domain.BidEvent, error) {
	if _, err := s.store.Listings().GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	history, err := s.events.GetBidHistory(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: bid history: %w", err)
	}
	return history, nil
}
