// Package fetcher downloads listing feeds and converts their items into listings.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"rental_bot/internal/model"
)

// ListingNamespace is the XML prefix carrying listing attributes in a feed item,
// e.g. <listing:city>Pune</listing:city>.
const ListingNamespace = "listing"

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and parses RSS/Atom feeds.
type Fetcher struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:  client,
		timeout: 30 * time.Second,
	}
}

// Fetch downloads and parses a feed from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "RentalBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// SkippedItem describes a feed item that could not be imported.
type SkippedItem struct {
	Title string
	Err   error
}

// ImportListings converts feed items into listings owned by owner.
// Items that do not describe a valid listing are returned as skipped.
func ImportListings(feed *gofeed.Feed, owner model.User) ([]model.Listing, []SkippedItem) {
	var listings []model.Listing
	var skipped []SkippedItem
	for _, item := range feed.Items {
		l, err := listingFromItem(item, owner)
		if err != nil {
			skipped = append(skipped, SkippedItem{Title: item.Title, Err: err})
			continue
		}
		listings = append(listings, l)
	}
	return listings, skipped
}

func listingFromItem(item *gofeed.Item, owner model.User) (model.Listing, error) {
	fields := listingFields(item.Extensions)

	l := model.Listing{
		OwnerID:     owner.ID,
		OwnerEmail:  owner.Contact(),
		Title:       strings.TrimSpace(item.Title),
		Description: strings.TrimSpace(item.Description),
		City:        fields["city"],
		ImageURL:    imageURL(item),
		VideoURL:    fields["video"],
	}

	pt, ok := model.ParsePropertyType(fields["type"])
	if !ok || pt == model.PropertyAny {
		return l, fmt.Errorf("%w: unknown property type %q", model.ErrInvalidListing, fields["type"])
	}
	l.PropertyType = pt

	furnishing, ok := model.ParseFurnishing(fields["furnishing"])
	if !ok || furnishing == model.FurnishingAny {
		return l, fmt.Errorf("%w: unknown furnishing %q", model.ErrInvalidListing, fields["furnishing"])
	}
	l.Furnishing = furnishing

	var err error
	if l.Rent, err = parseNumber(fields, "rent", true); err != nil {
		return l, err
	}
	if l.Rating, err = parseNumber(fields, "rating", false); err != nil {
		return l, err
	}
	if l.Latitude, err = parseNumber(fields, "lat", false); err != nil {
		return l, err
	}
	if l.Longitude, err = parseNumber(fields, "lon", false); err != nil {
		return l, err
	}

	return l, l.Validate()
}

func listingFields(exts ext.Extensions) map[string]string {
	fields := make(map[string]string)
	for name, values := range exts[ListingNamespace] {
		if len(values) > 0 {
			fields[name] = strings.TrimSpace(values[0].Value)
		}
	}
	return fields
}

func parseNumber(fields map[string]string, key string, required bool) (float64, error) {
	raw, ok := fields[key]
	if !ok || raw == "" {
		if required {
			return 0, fmt.Errorf("%w: %s is required", model.ErrInvalidListing, key)
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", model.ErrInvalidListing, key, raw)
	}
	return v, nil
}

func imageURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
