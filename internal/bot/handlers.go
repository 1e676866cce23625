package bot

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rental_bot/internal/catalog"
	"rental_bot/internal/fetcher"
	"rental_bot/internal/filter"
	"rental_bot/internal/model"
	"rental_bot/internal/ranker"
	"rental_bot/internal/storage"
)

const (
	emptySearch    = "No listings match your criteria."
	emptyFavorites = "You have no favorites yet. Use /like <id> to save a listing."
	emptyMine      = "You have no listings yet. Use /add to create one."
)

func (b *Bot) handleStart(u *model.User) {
	b.reply(u.ChatID, fmt.Sprintf(`Welcome to Rental Bot!

Find a place to rent, or list your own property.
You are registered as a %s.

Tenants: /find city=Pune; max_rent=20000
Owners: /role owner, then /add

Use /help for the full command reference.`, u.Role))
}

func (b *Bot) handleHelp(u *model.User) {
	b.reply(u.ChatID, `Account:
/role tenant|owner - switch your role
/email <address> - set the email owners and tenants see
/show <id> - listing details

Tenants:
/find [criteria] - search listings
/picks [criteria] - search ranked by your favorites
/like <id> - add or remove a favorite
/favorites - your saved listings

Owners:
/add <fields> - create a listing
/edit <id> <fields> - change a listing
/remove <id> - delete a listing
/mine - your listings
/notifications - likes on your listings
/import <url> - import listings from an RSS feed

Criteria: min_rent, max_rent, city, furnishing, type, min_rating
Fields: title, description, city, type, furnishing, rent, rating, image, video, lat, lon
Write them as key=value pairs separated by ";".
Types: ` + joinTypes() + `
Furnishing: ` + joinFurnishings())
}

func (b *Bot) handleRole(ctx context.Context, u *model.User, args string) {
	role, ok := model.ParseRole(args)
	if !ok {
		b.reply(u.ChatID, "Usage: /role tenant|owner")
		return
	}
	if err := b.store.SetUserRole(ctx, u.ID, role); err != nil {
		b.reply(u.ChatID, fmt.Sprintf("Error: %v", err))
		return
	}
	u.Role = role
	b.reply(u.ChatID, fmt.Sprintf("Role set to %s.\n\n%s", role, FormatProfile(u)))
}

func (b *Bot) handleEmail(ctx context.Context, u *model.User, args string) {
	if args == "" {
		b.reply(u.ChatID, "Usage: /email <address>\n\n"+FormatProfile(u))
		return
	}
	addr, err := mail.ParseAddress(args)
	if err != nil {
		b.reply(u.ChatID, fmt.Sprintf("Invalid email address %q.", args))
		return
	}
	if err := b.store.SetUserEmail(ctx, u.ID, addr.Address); err != nil {
		b.reply(u.ChatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(u.ChatID, fmt.Sprintf("Email set to %s.", addr.Address))
}

// lookupListing resolves a listing reference against the catalog and
// replies with the reason when it cannot.
func (b *Bot) lookupListing(chatID int64, ref string) (model.Listing, bool) {
	l, err := b.catalog.Lookup(ref)
	switch {
	case err == nil:
		return l, true
	case errors.Is(err, catalog.ErrAmbiguousRef):
		b.reply(chatID, fmt.Sprintf("Several listings start with %q, use more characters.", ref))
	case errors.Is(err, catalog.ErrRefTooShort):
		b.reply(chatID, fmt.Sprintf("Listing IDs need at least %d characters.", catalog.MinRefLength))
	default:
		b.reply(chatID, fmt.Sprintf("Listing #%s not found.", strings.TrimPrefix(ref, "#")))
	}
	return model.Listing{}, false
}

func (b *Bot) handleShow(ctx context.Context, u *model.User, args string) {
	ref, err := ParseRefArg(args)
	if err != nil {
		b.reply(u.ChatID, "Usage: /show <id>")
		return
	}
	l, ok := b.lookupListing(u.ChatID, ref)
	if !ok {
		return
	}

	favorited := false
	if u.Role == model.RoleTenant {
		ids, err := b.favorites.IDs(ctx, u.ID)
		if err != nil {
			b.log.Error("list favorites", "user_id", u.ID, "error", err)
		}
		favorited = slices.Contains(ids, l.ID)
	}

	msg := tgbotapi.NewMessage(u.ChatID, FormatListingDetails(l, favorited))
	msg.DisableWebPagePreview = true
	switch {
	case u.Role == model.RoleTenant:
		label := "Like"
		if favorited {
			label = "Unlike"
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, cmdLike+":"+l.ID),
			),
		)
	case l.OwnerID == u.ID:
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Delete", cbDeleteConfirm+":"+l.ID),
			),
		)
	}
	_ = b.send(msg)
}

// search applies the tenant's criteria to the current catalog snapshot.
func (b *Bot) search(chatID int64, args string) ([]model.Listing, bool) {
	form, err := ParseCriteriaArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return nil, false
	}
	return filter.Apply(b.catalog.Listings(), filter.ParseCriteria(form)), true
}

func (b *Bot) handleFind(u *model.User, args string) {
	if !b.requireRole(u, model.RoleTenant) {
		return
	}
	matched, ok := b.search(u.ChatID, args)
	if !ok {
		return
	}
	b.reply(u.ChatID, FormatListingList("Matching listings", emptySearch, matched))
}

func (b *Bot) handlePicks(ctx context.Context, u *model.User, args string) {
	if !b.requireRole(u, model.RoleTenant) {
		return
	}
	matched, ok := b.search(u.ChatID, args)
	if !ok {
		return
	}
	ids, err := b.favorites.IDs(ctx, u.ID)
	if err != nil {
		b.reply(u.ChatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(u.ChatID, FormatRankedList(ranker.RankScored(matched, b.catalog.ByIDs(ids))))
}

func (b *Bot) handleLike(ctx context.Context, u *model.User, args string) {
	if !b.requireRole(u, model.RoleTenant) {
		return
	}
	ref, err := ParseRefArg(args)
	if err != nil {
		b.reply(u.ChatID, "Usage: /like <id>")
		return
	}
	l, ok := b.lookupListing(u.ChatID, ref)
	if !ok {
		return
	}
	b.toggleLike(ctx, u, l)
}

func (b *Bot) toggleLike(ctx context.Context, u *model.User, l model.Listing) {
	res, err := b.favorites.Toggle(ctx, *u, l)
	if err != nil {
		b.log.Error("toggle favorite", "user_id", u.ID, "listing_id", l.ID, "error", err)
		b.reply(u.ChatID, "Could not read your favorites, please try again.")
		return
	}
	if res.FavoriteErr != nil {
		b.reply(u.ChatID, fmt.Sprintf("Could not update your favorites for #%s, please try again.", ShortID(l.ID)))
		return
	}
	if res.NewState {
		b.reply(u.ChatID, fmt.Sprintf("Added #%s \"%s\" to your favorites.", ShortID(l.ID), l.Title))
		return
	}
	b.reply(u.ChatID, fmt.Sprintf("Removed #%s \"%s\" from your favorites.", ShortID(l.ID), l.Title))
}

func (b *Bot) handleFavorites(ctx context.Context, u *model.User) {
	if !b.requireRole(u, model.RoleTenant) {
		return
	}
	ids, err := b.favorites.IDs(ctx, u.ID)
	if err != nil {
		b.reply(u.ChatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(u.ChatID, FormatListingList("Your favorites", emptyFavorites, b.catalog.ByIDs(ids)))
}

func (b *Bot) handleAdd(ctx context.Context, u *model.User, args string) {
	if !b.requireRole(u, model.RoleOwner) {
		return
	}
	if args == "" {
		b.reply(u.ChatID, "Usage: /add title=...; city=...; type=...; furnishing=...; rent=...")
		return
	}
	fields, err := ParseListingFields(args)
	if err != nil {
		b.reply(u.ChatID, err.Error())
		return
	}
	for _, key := range []string{fieldTitle, fieldType, fieldFurnishing, fieldRent} {
		if _, ok := fields[key]; !ok {
			b.reply(u.ChatID, fmt.Sprintf("Field %q is required.", key))
			return
		}
	}

	l := &model.Listing{OwnerID: u.ID, OwnerEmail: u.Contact()}
	if err := ApplyListingFields(l, fields); err != nil {
		b.reply(u.ChatID, err.Error())
		return
	}
	if err := b.store.CreateListing(ctx, l); err != nil {
		b.log.Error("create listing", "owner_id", u.ID, "error", err)
		b.reply(u.ChatID, fmt.Sprintf("Failed to save listing: %v", err))
		return
	}
	b.refreshCatalog(ctx)

	b.log.Info("listing created", "listing_id", l.ID, "owner_id", u.ID)
	b.reply(u.ChatID, fmt.Sprintf("Listing added!\n\n%s", FormatListingCard(*l)))
}

// ownedListing loads a listing the owner u may change. It replies with the
// reason and returns nil when there is none.
func (b *Bot) ownedListing(ctx context.Context, u *model.User, ref string) *model.Listing {
	found, ok := b.lookupListing(u.ChatID, ref)
	if !ok {
		return nil
	}
	l, err := b.store.GetListing(ctx, found.ID)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(u.ChatID, fmt.Sprintf("Listing #%s not found.", ShortID(found.ID)))
		return nil
	}
	if err != nil {
		b.reply(u.ChatID, fmt.Sprintf("Error: %v", err))
		return nil
	}
	if l.OwnerID != u.ID {
		b.reply(u.ChatID, fmt.Sprintf("Listing #%s belongs to another owner.", ShortID(l.ID)))
		return nil
	}
	return l
}

func (b *Bot) handleEdit(ctx context.Context, u *model.User, args string) {
	if !b.requireRole(u, model.RoleOwner) {
		return
	}
	ref, fields, err := ParseEditArgs(args)
	if err != nil {
		b.reply(u.ChatID, err.Error())
		return
	}
	l := b.ownedListing(ctx, u, ref)
	if l == nil {
		return
	}

	if err := ApplyListingFields(l, fields); err != nil {
		b.reply(u.ChatID, err.Error())
		return
	}
	if err := b.store.UpdateListing(ctx, l); err != nil {
		b.log.Error("update listing", "listing_id", l.ID, "error", err)
		b.reply(u.ChatID, fmt.Sprintf("Failed to update listing: %v", err))
		return
	}
	b.refreshCatalog(ctx)
	b.reply(u.ChatID, fmt.Sprintf("Listing updated.\n\n%s", FormatListingCard(*l)))
}

func (b *Bot) handleRemove(ctx context.Context, u *model.User, args string) {
	if !b.requireRole(u, model.RoleOwner) {
		return
	}
	ref, err := ParseRefArg(args)
	if err != nil {
		b.reply(u.ChatID, "Usage: /remove <id>")
		return
	}
	l := b.ownedListing(ctx, u, ref)
	if l == nil {
		return
	}
	if err := b.store.DeleteListing(ctx, l.ID); err != nil {
		b.log.Error("delete listing", "listing_id", l.ID, "error", err)
		b.reply(u.ChatID, fmt.Sprintf("Error deleting listing: %v", err))
		return
	}
	b.refreshCatalog(ctx)
	b.reply(u.ChatID, fmt.Sprintf("Listing #%s \"%s\" deleted.", ShortID(l.ID), l.Title))
}

func (b *Bot) handleMine(ctx context.Context, u *model.User) {
	if !b.requireRole(u, model.RoleOwner) {
		return
	}
	listings, err := b.store.ListListingsByOwner(ctx, u.ID)
	if err != nil {
		b.reply(u.ChatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(u.ChatID, FormatListingList("Your listings", emptyMine, listings))
}

func (b *Bot) handleNotifications(ctx context.Context, u *model.User) {
	if !b.requireRole(u, model.RoleOwner) {
		return
	}
	ns, err := b.store.ListNotifications(ctx, u.ID)
	if err != nil {
		b.reply(u.ChatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(u.ChatID, FormatNotificationList(ns))
	if err := b.store.MarkNotificationsRead(ctx, u.ID); err != nil {
		b.log.Error("mark notifications read", "owner_id", u.ID, "error", err)
	}
}

func (b *Bot) handleImport(ctx context.Context, u *model.User, args string) {
	if !b.requireRole(u, model.RoleOwner) {
		return
	}
	if args == "" {
		b.reply(u.ChatID, "Usage: /import <url>")
		return
	}

	feed, err := b.fetcher.Fetch(ctx, args)
	if err != nil {
		b.reply(u.ChatID, fmt.Sprintf("Failed to fetch feed: %v", err))
		return
	}

	listings, skipped := fetcher.ImportListings(feed, *u)
	created := 0
	for i := range listings {
		if err := b.store.CreateListing(ctx, &listings[i]); err != nil {
			b.log.Error("create imported listing", "owner_id", u.ID, "title", listings[i].Title, "error", err)
			skipped = append(skipped, fetcher.SkippedItem{Title: listings[i].Title, Err: err})
			continue
		}
		created++
	}
	if created > 0 {
		b.refreshCatalog(ctx)
	}

	b.log.Info("listings imported", "owner_id", u.ID, "url", args, "created", created, "skipped", len(skipped))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Imported %d listing(s) from %s.", created, args)
	if len(skipped) > 0 {
		fmt.Fprintf(&sb, "\n\nSkipped %d item(s):", len(skipped))
		for _, s := range skipped {
			fmt.Fprintf(&sb, "\n- %s: %v", s.Title, s.Err)
		}
	}
	b.reply(u.ChatID, sb.String())
}
