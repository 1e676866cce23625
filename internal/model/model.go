// Package model defines the domain types used across the application.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidListing is returned when a listing violates its invariants.
var ErrInvalidListing = errors.New("invalid listing")

// Role is the marketplace role a user acts in.
type Role string

// Supported roles.
const (
	RoleTenant Role = "tenant"
	RoleOwner  Role = "owner"
)

// ParseRole converts user input into a Role.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RoleTenant):
		return RoleTenant, true
	case string(RoleOwner):
		return RoleOwner, true
	}
	return "", false
}

// User is a marketplace participant identified by their Telegram chat.
type User struct {
	ID        string
	ChatID    int64
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// Contact returns the string other users see for this user.
func (u User) Contact() string {
	if u.Email != "" {
		return u.Email
	}
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}

// PropertyType is the category of a rentable property.
type PropertyType string

// Supported property types. PropertyAny only appears in filter criteria.
const (
	PropertyAny       PropertyType = "Any"
	PropertyApartment PropertyType = "Apartment"
	PropertyHouse     PropertyType = "Individual House"
	Property2BHK      PropertyType = "2BHK"
	Property3BHK      PropertyType = "3BHK"
	PropertyStudio    PropertyType = "Studio"
)

// PropertyTypes lists every concrete property type in display order.
var PropertyTypes = []PropertyType{
	PropertyApartment, PropertyHouse, Property2BHK, Property3BHK, PropertyStudio,
}

// ParsePropertyType matches s case-insensitively against the concrete
// property types. "any" yields PropertyAny.
func ParsePropertyType(s string) (PropertyType, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(PropertyAny)) {
		return PropertyAny, true
	}
	for _, t := range PropertyTypes {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

// Furnishing is the furnishing level of a property.
type Furnishing string

// Supported furnishing levels. FurnishingAny only appears in filter criteria.
const (
	FurnishingAny         Furnishing = "Any"
	FurnishingFull        Furnishing = "Fully Furnished"
	FurnishingSemi        Furnishing = "Semi Furnished"
	FurnishingUnfurnished Furnishing = "Unfurnished"
)

// Furnishings lists every concrete furnishing level in display order.
var Furnishings = []Furnishing{FurnishingFull, FurnishingSemi, FurnishingUnfurnished}

// ParseFurnishing matches s case-insensitively against the concrete
// furnishing levels. "any" yields FurnishingAny.
func ParseFurnishing(s string) (Furnishing, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(FurnishingAny)) {
		return FurnishingAny, true
	}
	for _, f := range Furnishings {
		if strings.EqualFold(s, string(f)) {
			return f, true
		}
	}
	return "", false
}

// Listing is a rentable property owned by a single owner.
type Listing struct {
	ID           string
	OwnerID      string
	OwnerEmail   string
	Title        string
	Description  string
	City         string
	PropertyType PropertyType
	Furnishing   Furnishing
	Rating       float64
	Rent         float64
	ImageURL     string
	VideoURL     string
	Latitude     float64
	Longitude    float64
	CreatedAt    time.Time
}

// Validate checks the listing invariants.
func (l *Listing) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidListing)
	}
	if l.Rent < 0 {
		return fmt.Errorf("%w: rent must not be negative", ErrInvalidListing)
	}
	if l.Rating < 0 || l.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidListing)
	}
	if t, ok := ParsePropertyType(string(l.PropertyType)); !ok || t == PropertyAny {
		return fmt.Errorf("%w: unknown property type %q", ErrInvalidListing, l.PropertyType)
	}
	if f, ok := ParseFurnishing(string(l.Furnishing)); !ok || f == FurnishingAny {
		return fmt.Errorf("%w: unknown furnishing %q", ErrInvalidListing, l.Furnishing)
	}
	return nil
}

// FavoriteMark records that a tenant saved a listing.
type FavoriteMark struct {
	TenantID  string
	ListingID string
	CreatedAt time.Time
}

// Notification tells an owner that a tenant liked one of their listings.
type Notification struct {
	ID          string
	OwnerID     string
	Message     string
	CreatedAt   time.Time
	IsRead      bool
	DeliveredAt *time.Time
}

// FilterCriteria constrains a listing search. The zero value matches
// every listing; nil bounds, an empty city and the Any sentinels impose
// no constraint.
type FilterCriteria struct {
	MinRent      *float64
	MaxRent      *float64
	City         string
	Furnishing   Furnishing
	PropertyType PropertyType
	MinRating    *float64
}
