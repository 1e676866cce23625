package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rental_bot/internal/catalog"
	"rental_bot/internal/config"
	"rental_bot/internal/favorite"
	"rental_bot/internal/fetcher"
	"rental_bot/internal/model"
	"rental_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram front end of the rental marketplace.
type Bot struct {
	api       telegramAPI
	store     storage.Storage
	catalog   *catalog.Catalog
	favorites *favorite.Service
	cfg       *config.Config
	fetcher   *fetcher.Fetcher
	log       *slog.Logger
}

// New creates a Bot with the given Telegram token, storage, catalog and config.
func New(token string, store storage.Storage, cat *catalog.Catalog, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:       api,
		store:     store,
		catalog:   cat,
		favorites: favorite.NewService(store, log),
		cfg:       cfg,
		fetcher:   fetcher.New(http.DefaultClient),
		log:       log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				if update.CallbackQuery.From != nil && !b.cfg.IsUserAllowed(update.CallbackQuery.From.ID) {
					continue
				}
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if update.Message.From != nil && !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	return b.send(msg)
}

func (b *Bot) send(msg tgbotapi.MessageConfig) error {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", msg.ChatID, "error", err)
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) {
	_ = b.SendMessage(chatID, text)
}

// resolveUser returns the account of the chat, registering it on first contact.
func (b *Bot) resolveUser(ctx context.Context, chatID int64, from *tgbotapi.User) (*model.User, error) {
	u, err := b.store.UpsertUser(ctx, chatID, displayName(from))
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return u, nil
}

func displayName(from *tgbotapi.User) string {
	if from == nil {
		return ""
	}
	if from.UserName != "" {
		return "@" + from.UserName
	}
	return strings.TrimSpace(from.FirstName + " " + from.LastName)
}

// requireRole replies with a hint and returns false when u lacks role.
func (b *Bot) requireRole(u *model.User, role model.Role) bool {
	if u.Role == role {
		return true
	}
	b.reply(u.ChatID, fmt.Sprintf("This command is for %ss. Switch with /role %s.", role, role))
	return false
}

// refreshCatalog reloads the listing snapshot after a successful write.
func (b *Bot) refreshCatalog(ctx context.Context) {
	if err := b.catalog.Refresh(ctx); err != nil {
		b.log.Error("refresh catalog", "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	user, err := b.resolveUser(ctx, chatID, msg.From)
	if err != nil {
		b.log.Error("resolve user", "chat_id", chatID, "error", err)
		b.reply(chatID, "Something went wrong, please try again later.")
		return
	}

	switch cmd {
	case "start":
		b.handleStart(user)
	case "help":
		b.handleHelp(user)
	case "role":
		b.handleRole(ctx, user, args)
	case "email":
		b.handleEmail(ctx, user, args)
	case cmdShow:
		b.handleShow(ctx, user, args)
	case "find":
		b.handleFind(user, args)
	case "picks":
		b.handlePicks(ctx, user, args)
	case cmdLike:
		b.handleLike(ctx, user, args)
	case "favorites":
		b.handleFavorites(ctx, user)
	case "add":
		b.handleAdd(ctx, user, args)
	case "edit":
		b.handleEdit(ctx, user, args)
	case "remove":
		b.handleRemove(ctx, user, args)
	case "mine":
		b.handleMine(ctx, user)
	case "notifications":
		b.handleNotifications(ctx, user)
	case "import":
		b.handleImport(ctx, user, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
