package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rental_bot/internal/bot"
	"rental_bot/internal/catalog"
	"rental_bot/internal/model"
	"rental_bot/internal/storage"
)

// Sender is the interface for sending Telegram messages.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Scheduler keeps the listing catalog in step with the store and pushes
// owner notifications to Telegram.
type Scheduler struct {
	store   storage.Storage
	catalog *catalog.Catalog
	sender  Sender
	log     *slog.Logger
	tick    time.Duration
}

// New creates a Scheduler that checks every 30 seconds.
func New(store storage.Storage, cat *catalog.Catalog, sender Sender, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:   store,
		catalog: cat,
		sender:  sender,
		log:     log,
		tick:    30 * time.Second,
	}
}

// SetTickInterval overrides the default check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.checkAll(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAll(ctx)
		}
	}
}

func (s *Scheduler) checkAll(ctx context.Context) {
	s.refreshCatalog(ctx)
	if ctx.Err() != nil {
		return
	}
	s.deliverNotifications(ctx)
}

func (s *Scheduler) refreshCatalog(ctx context.Context) {
	stale, err := s.catalog.Stale(ctx)
	if err != nil {
		s.log.Error("check catalog", "error", err)
		return
	}
	if !stale {
		return
	}
	if err := s.catalog.Refresh(ctx); err != nil {
		s.log.Error("refresh catalog", "error", err)
		return
	}
	s.log.Debug("catalog refreshed", "revision", s.catalog.Revision())
}

func (s *Scheduler) deliverNotifications(ctx context.Context) {
	pending, err := s.store.ListUndeliveredNotifications(ctx)
	if err != nil {
		s.log.Error("list undelivered notifications", "error", err)
		return
	}

	sent := 0
	for _, n := range pending {
		if ctx.Err() != nil {
			return
		}
		if s.deliver(ctx, n) {
			sent++
		}

		// Rate limit: ~20 messages/sec max for Telegram
		time.Sleep(50 * time.Millisecond)
	}

	if sent > 0 {
		s.log.Info("sent notifications", "count", sent)
	}
}

// deliver pushes one notification and reports whether it was sent.
// Failed sends stay undelivered and are retried on the next tick.
func (s *Scheduler) deliver(ctx context.Context, n model.Notification) bool {
	owner, err := s.store.GetUser(ctx, n.OwnerID)
	if errors.Is(err, storage.ErrNotFound) {
		s.log.Warn("notification owner gone", "notification_id", n.ID, "owner_id", n.OwnerID)
		s.markDelivered(ctx, n)
		return false
	}
	if err != nil {
		s.log.Error("get owner", "notification_id", n.ID, "owner_id", n.OwnerID, "error", err)
		return false
	}

	if err := s.sender.SendMessage(owner.ChatID, bot.FormatNotification(n)); err != nil {
		s.log.Error("send notification", "notification_id", n.ID, "chat_id", owner.ChatID, "error", err)
		return false
	}
	s.markDelivered(ctx, n)
	return true
}

func (s *Scheduler) markDelivered(ctx context.Context, n model.Notification) {
	if err := s.store.MarkNotificationDelivered(ctx, n.ID); err != nil {
		s.log.Error("mark notification delivered", "notification_id", n.ID, "error", err)
	}
}
