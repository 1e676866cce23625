// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"rental_bot/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	ListingStore
	FavoriteStore
	NotificationStore
	UserStore

	Close() error
}

// ListingStore persists listings. Every mutation bumps the listings revision.
type ListingStore interface {
	ListListings(ctx context.Context) ([]model.Listing, error)
	ListListingsByOwner(ctx context.Context, ownerID string) ([]model.Listing, error)
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	CreateListing(ctx context.Context, l *model.Listing) error
	UpdateListing(ctx context.Context, l *model.Listing) error
	DeleteListing(ctx context.Context, id string) error
	ListingsRevision(ctx context.Context) (int64, error)
}

// FavoriteStore persists favorite marks.
type FavoriteStore interface {
	ListFavoriteIDs(ctx context.Context, tenantID string) ([]string, error)
	AddFavorite(ctx context.Context, tenantID, listingID string) error
	RemoveFavorite(ctx context.Context, tenantID, listingID string) error
}

// NotificationStore persists owner notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, ownerID string) ([]model.Notification, error)
	MarkNotificationsRead(ctx context.Context, ownerID string) error
	ListUndeliveredNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationDelivered(ctx context.Context, id string) error
}

// UserStore persists users.
type UserStore interface {
	UpsertUser(ctx context.Context, chatID int64, name string) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByChatID(ctx context.Context, chatID int64) (*model.User, error)
	SetUserRole(ctx context.Context, id string, role model.Role) error
	SetUserEmail(ctx context.Context, id, email string) error
}
