package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"rental_bot/internal/model"
	"rental_bot/internal/ranker"
)

// shortIDLen is how many ID characters are shown to users.
const shortIDLen = 8

var youtubeID = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// ShortID returns the user-facing prefix of a listing ID.
func ShortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// EmbedVideoURL converts a YouTube link into its embeddable form.
// It returns false for links that do not carry an 11-character video ID.
func EmbedVideoURL(raw string) (string, bool) {
	m := youtubeID.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil || len(m[2]) != 11 {
		return "", false
	}
	return "https://www.youtube.com/embed/" + m[2], true
}

// MapURL returns a Google Maps link centred on the listing.
// It returns false when the listing has no coordinates.
func MapURL(l model.Listing) (string, bool) {
	if l.Latitude == 0 && l.Longitude == 0 {
		return "", false
	}
	return fmt.Sprintf("https://maps.google.com/maps?q=%s,%s&z=15&output=embed",
		formatNumber(l.Latitude), formatNumber(l.Longitude)), true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatNotification formats an owner notification as a Telegram message.
func FormatNotification(n model.Notification) string {
	return "[New like]\n\n" + n.Message
}

// FormatListingCard formats the short form of a listing used in lists.
func FormatListingCard(l model.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%s %s\n", ShortID(l.ID), l.Title)
	fmt.Fprintf(&b, "   %s | %s | %s\n", cityLabel(l.City), l.PropertyType, l.Furnishing)
	fmt.Fprintf(&b, "   Rent %s | Rating %s", formatNumber(l.Rent), formatNumber(l.Rating))
	return b.String()
}

// FormatListingList formats listings under a header, or empty when there are none.
func FormatListingList(header, empty string, listings []model.Listing) string {
	if len(listings) == 0 {
		return empty
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):\n", header, len(listings))
	for _, l := range listings {
		b.WriteString("\n")
		b.WriteString(FormatListingCard(l))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatRankedList formats ranked listings with their scores.
func FormatRankedList(scored []ranker.Scored) string {
	if len(scored) == 0 {
		return "No listings match your criteria."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Top picks for you (%d):\n", len(scored))
	for i, s := range scored {
		fmt.Fprintf(&b, "\n%d. [score %s] ", i+1, formatNumber(s.Score))
		b.WriteString(FormatListingCard(s.Listing))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatListingDetails formats everything known about a listing.
func FormatListingDetails(l model.Listing, favorited bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%s %s\n", ShortID(l.ID), l.Title)
	if favorited {
		b.WriteString("In your favorites\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "City: %s\n", cityLabel(l.City))
	fmt.Fprintf(&b, "Type: %s\n", l.PropertyType)
	fmt.Fprintf(&b, "Furnishing: %s\n", l.Furnishing)
	fmt.Fprintf(&b, "Rent: %s\n", formatNumber(l.Rent))
	fmt.Fprintf(&b, "Rating: %s\n", formatNumber(l.Rating))
	if l.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", l.Description)
	}
	if l.ImageURL != "" {
		fmt.Fprintf(&b, "\nPhoto: %s\n", l.ImageURL)
	}
	if l.VideoURL != "" {
		video := l.VideoURL
		if embed, ok := EmbedVideoURL(video); ok {
			video = embed
		}
		fmt.Fprintf(&b, "Video: %s\n", video)
	}
	if u, ok := MapURL(l); ok {
		fmt.Fprintf(&b, "Map: %s\n", u)
	}
	if l.OwnerEmail != "" {
		fmt.Fprintf(&b, "\nContact: %s\n", l.OwnerEmail)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatNotificationList formats an owner's notifications, marking unread ones.
func FormatNotificationList(ns []model.Notification) string {
	if len(ns) == 0 {
		return "No notifications yet."
	}
	var b strings.Builder
	b.WriteString("Your notifications:\n")
	for _, n := range ns {
		marker := " "
		if !n.IsRead {
			marker = "*"
		}
		fmt.Fprintf(&b, "\n%s %s  %s", marker, n.CreatedAt.Format("2006-01-02 15:04 UTC"), n.Message)
	}
	return b.String()
}

// FormatProfile formats a user's own account details.
func FormatProfile(u *model.User) string {
	email := u.Email
	if email == "" {
		email = "not set (use /email <address>)"
	}
	return fmt.Sprintf("Role: %s\nEmail: %s", u.Role, email)
}

func cityLabel(city string) string {
	if city == "" {
		return "city not set"
	}
	return city
}
