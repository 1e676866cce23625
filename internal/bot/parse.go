package bot

import (
	"fmt"
	"strconv"
	"strings"

	"rental_bot/internal/filter"
	"rental_bot/internal/model"
)

// Criteria keys accepted by /find and /picks.
const (
	keyMinRent    = "min_rent"
	keyMaxRent    = "max_rent"
	keyCity       = "city"
	keyFurnishing = "furnishing"
	keyType       = "type"
	keyMinRating  = "min_rating"
)

// Listing field keys accepted by /add and /edit.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldCity        = "city"
	fieldType        = "type"
	fieldFurnishing  = "furnishing"
	fieldRent        = "rent"
	fieldRating      = "rating"
	fieldImage       = "image"
	fieldVideo       = "video"
	fieldLat         = "lat"
	fieldLon         = "lon"
)

var listingFieldKeys = []string{
	fieldTitle, fieldDescription, fieldCity, fieldType, fieldFurnishing,
	fieldRent, fieldRating, fieldImage, fieldVideo, fieldLat, fieldLon,
}

// ParsePairs splits "key=value; key=value" into a map. Keys are lowercased
// and values trimmed. Empty segments are ignored.
func ParsePairs(args string) (map[string]string, error) {
	pairs := make(map[string]string)
	for _, seg := range strings.Split(args, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		key, value, ok := strings.Cut(seg, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", seg)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return nil, fmt.Errorf("missing key in %q", seg)
		}
		pairs[key] = strings.TrimSpace(value)
	}
	return pairs, nil
}

// ParseCriteriaArgs parses the arguments of /find and /picks into a filter
// form. Unknown keys are rejected; values are left for the filter engine
// to interpret.
func ParseCriteriaArgs(args string) (filter.Form, error) {
	pairs, err := ParsePairs(args)
	if err != nil {
		return filter.Form{}, err
	}
	var form filter.Form
	for key, value := range pairs {
		switch key {
		case keyMinRent:
			form.MinRent = value
		case keyMaxRent:
			form.MaxRent = value
		case keyCity:
			form.City = value
		case keyFurnishing:
			form.Furnishing = value
		case keyType:
			form.PropertyType = value
		case keyMinRating:
			form.MinRating = value
		default:
			return filter.Form{}, fmt.Errorf("unknown criterion %q, use: %s", key,
				strings.Join([]string{keyMinRent, keyMaxRent, keyCity, keyFurnishing, keyType, keyMinRating}, ", "))
		}
	}
	return form, nil
}

// ParseListingFields parses the arguments of /add and /edit.
func ParseListingFields(args string) (map[string]string, error) {
	pairs, err := ParsePairs(args)
	if err != nil {
		return nil, err
	}
	for key := range pairs {
		if !isListingField(key) {
			return nil, fmt.Errorf("unknown field %q, use: %s", key, strings.Join(listingFieldKeys, ", "))
		}
	}
	return pairs, nil
}

func isListingField(key string) bool {
	for _, k := range listingFieldKeys {
		if k == key {
			return true
		}
	}
	return false
}

// ApplyListingFields writes the given fields onto l and validates the result.
// Owner-entered values are checked strictly: categories must be known and
// numbers must parse.
func ApplyListingFields(l *model.Listing, fields map[string]string) error {
	for key, value := range fields {
		switch key {
		case fieldTitle:
			l.Title = value
		case fieldDescription:
			l.Description = value
		case fieldCity:
			l.City = value
		case fieldImage:
			l.ImageURL = value
		case fieldVideo:
			l.VideoURL = value
		case fieldType:
			pt, ok := model.ParsePropertyType(value)
			if !ok || pt == model.PropertyAny {
				return fmt.Errorf("unknown type %q, use one of: %s", value, joinTypes())
			}
			l.PropertyType = pt
		case fieldFurnishing:
			f, ok := model.ParseFurnishing(value)
			if !ok || f == model.FurnishingAny {
				return fmt.Errorf("unknown furnishing %q, use one of: %s", value, joinFurnishings())
			}
			l.Furnishing = f
		case fieldRent, fieldRating, fieldLat, fieldLon:
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("%s must be a number, got %q", key, value)
			}
			switch key {
			case fieldRent:
				l.Rent = v
			case fieldRating:
				l.Rating = v
			case fieldLat:
				l.Latitude = v
			case fieldLon:
				l.Longitude = v
			}
		default:
			return fmt.Errorf("unknown field %q", key)
		}
	}
	return l.Validate()
}

// ParseEditArgs splits "/edit <id> <fields>" into the listing reference and
// its fields.
func ParseEditArgs(args string) (string, map[string]string, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return "", nil, fmt.Errorf("usage: /edit <id> key=value; key=value")
	}
	fields, err := ParseListingFields(parts[1])
	if err != nil {
		return "", nil, err
	}
	return parts[0], fields, nil
}

// ParseRefArg extracts a listing reference from a command argument string.
func ParseRefArg(args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", fmt.Errorf("listing ID is required")
	}
	return fields[0], nil
}

func joinTypes() string {
	names := make([]string, len(model.PropertyTypes))
	for i, t := range model.PropertyTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func joinFurnishings() string {
	names := make([]string, len(model.Furnishings))
	for i, f := range model.Furnishings {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
