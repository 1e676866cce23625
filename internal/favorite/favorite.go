// Package favorite implements the like/unlike workflow for tenants.
package favorite

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"rental_bot/internal/model"
)

// Outcome is the result of flipping a tenant's favorite state.
// Notification is set only when the listing became a favorite.
type Outcome struct {
	NewState     bool
	Notification *model.Notification
}

// Toggle flips the favorite state of listing for tenant. Liking produces a
// notification for the listing's owner; unliking produces none.
func Toggle(tenant model.User, listing model.Listing, currentlyFavorited bool) Outcome {
	if currentlyFavorited {
		return Outcome{NewState: false}
	}
	return Outcome{
		NewState: true,
		Notification: &model.Notification{
			OwnerID: listing.OwnerID,
			Message: LikeMessage(tenant, listing),
			IsRead:  false,
		},
	}
}

// LikeMessage is the text an owner receives when a tenant likes a listing.
func LikeMessage(tenant model.User, listing model.Listing) string {
	return fmt.Sprintf("Tenant %s liked your property \"%s\"", tenant.Contact(), listing.Title)
}

// Store is the persistence the workflow needs.
type Store interface {
	ListFavoriteIDs(ctx context.Context, tenantID string) ([]string, error)
	AddFavorite(ctx context.Context, tenantID, listingID string) error
	RemoveFavorite(ctx context.Context, tenantID, listingID string) error
	CreateNotification(ctx context.Context, n *model.Notification) error
}

// Result reports a toggle and any failure of its two independent writes.
type Result struct {
	Outcome
	FavoriteErr error
	NotifyErr   error
}

// Failed reports whether either write failed.
func (r Result) Failed() bool {
	return r.FavoriteErr != nil || r.NotifyErr != nil
}

// Service runs Toggle against a store.
type Service struct {
	store Store
	log   *slog.Logger
}

// NewService creates a Service.
func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Toggle flips the tenant's favorite state for listing and persists the
// outcome. The favorite write and the notification insert are best-effort
// and independent: a failure in one neither blocks nor reverts the other.
// Only a failure to read the current favorite set aborts the toggle.
func (s *Service) Toggle(ctx context.Context, tenant model.User, listing model.Listing) (Result, error) {
	ids, err := s.store.ListFavoriteIDs(ctx, tenant.ID)
	if err != nil {
		return Result{}, fmt.Errorf("list favorites: %w", err)
	}

	res := Result{Outcome: Toggle(tenant, listing, slices.Contains(ids, listing.ID))}

	if res.NewState {
		res.FavoriteErr = s.store.AddFavorite(ctx, tenant.ID, listing.ID)
	} else {
		res.FavoriteErr = s.store.RemoveFavorite(ctx, tenant.ID, listing.ID)
	}
	if res.FavoriteErr != nil {
		s.log.Warn("persist favorite",
			"tenant_id", tenant.ID, "listing_id", listing.ID, "favorited", res.NewState, "error", res.FavoriteErr)
	}

	if res.Notification != nil {
		res.NotifyErr = s.store.CreateNotification(ctx, res.Notification)
		if res.NotifyErr != nil {
			s.log.Warn("create notification",
				"owner_id", listing.OwnerID, "listing_id", listing.ID, "error", res.NotifyErr)
		}
	}

	s.log.Debug("favorite toggled", "tenant_id", tenant.ID, "listing_id", listing.ID, "favorited", res.NewState)
	return res, nil
}

// IDs returns the IDs of the tenant's favorite listings.
func (s *Service) IDs(ctx context.Context, tenantID string) ([]string, error) {
	ids, err := s.store.ListFavoriteIDs(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return ids, nil
}
