package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rental_bot/internal/model"
)

const (
	cmdShow  = "show"
	cmdLike  = "like"
	cbDelete = "delete"
	cbNoop   = "noop"

	cbDeleteConfirm = "delete_confirm"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	action, id, ok := strings.Cut(data, ":")
	if !ok || id == "" || action == cbNoop {
		return
	}

	b.log.Info("callback", "action", action, "listing_id", id, "chat_id", chatID)

	user, err := b.resolveUser(ctx, chatID, cb.From)
	if err != nil {
		b.log.Error("resolve user", "chat_id", chatID, "error", err)
		return
	}

	switch action {
	case cmdShow:
		b.handleShow(ctx, user, id)
	case cmdLike:
		b.handleLike(ctx, user, id)
	case cbDeleteConfirm:
		if !b.requireRole(user, model.RoleOwner) {
			return
		}
		l := b.ownedListing(ctx, user, id)
		if l == nil {
			return
		}
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Delete #%s \"%s\"? This cannot be undone.", ShortID(l.ID), l.Title))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Yes, delete", cbDelete+":"+l.ID),
				tgbotapi.NewInlineKeyboardButtonData("Cancel", cbNoop+":0"),
			),
		)
		if err := b.send(msg); err != nil {
			b.log.Error("send delete confirmation", "error", err)
		}
	case cbDelete:
		b.handleRemove(ctx, user, id)
	}
}
