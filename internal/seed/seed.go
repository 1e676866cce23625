// Package seed loads demo owners and listings from a YAML file.
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"rental_bot/internal/model"
	"rental_bot/internal/storage"
)

// File is the seed document.
type File struct {
	Owners   []Owner   `yaml:"owners"`
	Listings []Listing `yaml:"listings"`
}

// Owner is a seeded owner account, keyed by Telegram chat ID.
type Owner struct {
	ChatID int64  `yaml:"chat_id"`
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
}

// Listing is a seeded listing. Owner refers to an Owner's chat ID.
type Listing struct {
	Owner        int64   `yaml:"owner"`
	Title        string  `yaml:"title"`
	Description  string  `yaml:"description"`
	City         string  `yaml:"city"`
	PropertyType string  `yaml:"type"`
	Furnishing   string  `yaml:"furnishing"`
	Rent         float64 `yaml:"rent"`
	Rating       float64 `yaml:"rating"`
	ImageURL     string  `yaml:"image"`
	VideoURL     string  `yaml:"video"`
	Latitude     float64 `yaml:"lat"`
	Longitude    float64 `yaml:"lon"`
}

// Load reads and decodes a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

// Store is the persistence Apply writes to.
type Store interface {
	UpsertUser(ctx context.Context, chatID int64, name string) (*model.User, error)
	SetUserRole(ctx context.Context, id string, role model.Role) error
	SetUserEmail(ctx context.Context, id, email string) error
	CreateListing(ctx context.Context, l *model.Listing) error
}

var _ Store = (storage.Storage)(nil)

// Apply creates the owners and listings in f. It stops at the first
// failure and reports how many listings were created before it.
func Apply(ctx context.Context, store Store, f *File) (int, error) {
	owners := make(map[int64]model.User, len(f.Owners))
	for _, o := range f.Owners {
		u, err := store.UpsertUser(ctx, o.ChatID, o.Name)
		if err != nil {
			return 0, fmt.Errorf("upsert owner %d: %w", o.ChatID, err)
		}
		if err := store.SetUserRole(ctx, u.ID, model.RoleOwner); err != nil {
			return 0, fmt.Errorf("set owner role %d: %w", o.ChatID, err)
		}
		if o.Email != "" {
			if err := store.SetUserEmail(ctx, u.ID, o.Email); err != nil {
				return 0, fmt.Errorf("set owner email %d: %w", o.ChatID, err)
			}
			u.Email = o.Email
		}
		u.Role = model.RoleOwner
		owners[o.ChatID] = *u
	}

	created := 0
	for i, sl := range f.Listings {
		owner, ok := owners[sl.Owner]
		if !ok {
			return created, fmt.Errorf("listing %d %q: unknown owner %d", i, sl.Title, sl.Owner)
		}
		l, err := sl.toListing(owner)
		if err != nil {
			return created, fmt.Errorf("listing %d %q: %w", i, sl.Title, err)
		}
		if err := store.CreateListing(ctx, &l); err != nil {
			return created, fmt.Errorf("create listing %q: %w", sl.Title, err)
		}
		created++
	}
	return created, nil
}

func (sl Listing) toListing(owner model.User) (model.Listing, error) {
	pt, ok := model.ParsePropertyType(sl.PropertyType)
	if !ok {
		return model.Listing{}, fmt.Errorf("%w: unknown property type %q", model.ErrInvalidListing, sl.PropertyType)
	}
	furnishing, ok := model.ParseFurnishing(sl.Furnishing)
	if !ok {
		return model.Listing{}, fmt.Errorf("%w: unknown furnishing %q", model.ErrInvalidListing, sl.Furnishing)
	}
	l := model.Listing{
		OwnerID:      owner.ID,
		OwnerEmail:   owner.Contact(),
		Title:        sl.Title,
		Description:  sl.Description,
		City:         sl.City,
		PropertyType: pt,
		Furnishing:   furnishing,
		Rent:         sl.Rent,
		Rating:       sl.Rating,
		ImageURL:     sl.ImageURL,
		VideoURL:     sl.VideoURL,
		Latitude:     sl.Latitude,
		Longitude:    sl.Longitude,
	}
	return l, l.Validate()
}
