// Package filter implements the listing matching engine.
package filter

import (
	"strconv"
	"strings"

	"rental_bot/internal/model"
)

// Form holds raw, possibly partial search input as typed by a tenant.
type Form struct {
	MinRent      string
	MaxRent      string
	City         string
	Furnishing   string
	PropertyType string
	MinRating    string
}

// ParseCriteria converts form input into criteria.
// Blank or non-numeric bounds are treated as unset rather than rejected,
// and unrecognised categories fall back to Any.
func ParseCriteria(f Form) model.FilterCriteria {
	c := model.FilterCriteria{
		MinRent:      parseBound(f.MinRent),
		MaxRent:      parseBound(f.MaxRent),
		City:         strings.TrimSpace(f.City),
		Furnishing:   model.FurnishingAny,
		PropertyType: model.PropertyAny,
		MinRating:    parseBound(f.MinRating),
	}
	if v, ok := model.ParseFurnishing(f.Furnishing); ok {
		c.Furnishing = v
	}
	if v, ok := model.ParsePropertyType(f.PropertyType); ok {
		c.PropertyType = v
	}
	return c
}

func parseBound(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Apply returns the listings that satisfy c, in their original order.
func Apply(listings []model.Listing, c model.FilterCriteria) []model.Listing {
	matched := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if Match(l, c) {
			matched = append(matched, l)
		}
	}
	return matched
}

// Match reports whether a listing satisfies every constraint set in c.
// Rent and rating bounds are inclusive; city is a case-insensitive
// substring match; categories must match exactly unless set to Any.
func Match(l model.Listing, c model.FilterCriteria) bool {
	if c.MinRent != nil && l.Rent < *c.MinRent {
		return false
	}
	if c.MaxRent != nil && l.Rent > *c.MaxRent {
		return false
	}
	if c.City != "" && !strings.Contains(strings.ToLower(l.City), strings.ToLower(c.City)) {
		return false
	}
	if !anyFurnishing(c.Furnishing) && l.Furnishing != c.Furnishing {
		return false
	}
	if !anyPropertyType(c.PropertyType) && l.PropertyType != c.PropertyType {
		return false
	}
	if c.MinRating != nil && l.Rating < *c.MinRating {
		return false
	}
	return true
}

func anyFurnishing(f model.Furnishing) bool {
	return f == "" || f == model.FurnishingAny
}

func anyPropertyType(t model.PropertyType) bool {
	return t == "" || t == model.PropertyAny
}
