package bot

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"rental_bot/internal/filter"
	"rental_bot/internal/model"
	"rental_bot/internal/ranker"
)

func TestParsePairs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "empty",
			args: "",
			want: map[string]string{},
		},
		{
			name: "single pair",
			args: "city=Pune",
			want: map[string]string{"city": "Pune"},
		},
		{
			name: "trims and lowercases keys",
			args: " City = New Delhi ;MAX_RENT=20000; ",
			want: map[string]string{"city": "New Delhi", "max_rent": "20000"},
		},
		{
			name: "value may contain equals sign",
			args: "video=https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: map[string]string{"video": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		},
		{
			name: "empty value kept",
			args: "city=",
			want: map[string]string{"city": ""},
		},
		{
			name:    "missing equals",
			args:    "city Pune",
			wantErr: true,
		},
		{
			name:    "missing key",
			args:    "=Pune",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePairs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCriteriaArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    filter.Form
		wantErr bool
	}{
		{
			name: "no criteria",
			args: "",
			want: filter.Form{},
		},
		{
			name: "all keys",
			args: "min_rent=1000; max_rent=20000; city=pune; furnishing=semi furnished; type=2bhk; min_rating=3.5",
			want: filter.Form{
				MinRent:      "1000",
				MaxRent:      "20000",
				City:         "pune",
				Furnishing:   "semi furnished",
				PropertyType: "2bhk",
				MinRating:    "3.5",
			},
		},
		{
			name: "malformed numbers pass through",
			args: "max_rent=abc",
			want: filter.Form{MaxRent: "abc"},
		},
		{
			name:    "unknown key",
			args:    "bedrooms=2",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCriteriaArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseListingFields(t *testing.T) {
	got, err := ParseListingFields("title=Sunny flat; rent=18000; lat=18.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"title": "Sunny flat", "rent": "18000", "lat": "18.5"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseListingFields("title=x; bedrooms=2"); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestApplyListingFields(t *testing.T) {
	base := model.Listing{
		ID:           "l1",
		OwnerID:      "o1",
		Title:        "Sunny flat",
		City:         "Pune",
		PropertyType: model.PropertyApartment,
		Furnishing:   model.FurnishingFull,
		Rent:         15000,
		Rating:       4,
	}

	tests := []struct {
		name    string
		fields  map[string]string
		want    model.Listing
		wantErr bool
	}{
		{
			name:   "no changes",
			fields: map[string]string{},
			want:   base,
		},
		{
			name: "updates every kind of field",
			fields: map[string]string{
				"title":       "Sunny 2BHK",
				"description": "Near the park",
				"city":        "Mumbai",
				"type":        "2bhk",
				"furnishing":  "unfurnished",
				"rent":        "21000",
				"rating":      "4.5",
				"image":       "https://img.example.com/1.jpg",
				"video":       "https://youtu.be/dQw4w9WgXcQ",
				"lat":         "19.07",
				"lon":         "72.87",
			},
			want: model.Listing{
				ID:           "l1",
				OwnerID:      "o1",
				Title:        "Sunny 2BHK",
				Description:  "Near the park",
				City:         "Mumbai",
				PropertyType: model.Property2BHK,
				Furnishing:   model.FurnishingUnfurnished,
				Rent:         21000,
				Rating:       4.5,
				ImageURL:     "https://img.example.com/1.jpg",
				VideoURL:     "https://youtu.be/dQw4w9WgXcQ",
				Latitude:     19.07,
				Longitude:    72.87,
			},
		},
		{name: "unknown type", fields: map[string]string{"type": "Castle"}, wantErr: true},
		{name: "any type rejected", fields: map[string]string{"type": "any"}, wantErr: true},
		{name: "any furnishing rejected", fields: map[string]string{"furnishing": "Any"}, wantErr: true},
		{name: "rent not a number", fields: map[string]string{"rent": "cheap"}, wantErr: true},
		{name: "negative rent", fields: map[string]string{"rent": "-1"}, wantErr: true},
		{name: "rating above five", fields: map[string]string{"rating": "5.5"}, wantErr: true},
		{name: "blank title", fields: map[string]string{"title": ""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base
			err := ApplyListingFields(&got, tt.fields)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyListingFieldsValidationError(t *testing.T) {
	l := model.Listing{Title: "x", PropertyType: model.PropertyStudio, Furnishing: model.FurnishingFull}
	err := ApplyListingFields(&l, map[string]string{"rating": "9"})
	if !errors.Is(err, model.ErrInvalidListing) {
		t.Fatalf("expected ErrInvalidListing, got %v", err)
	}
}

func TestParseEditArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       string
		wantRef    string
		wantFields map[string]string
		wantErr    bool
	}{
		{
			name:       "valid",
			args:       "3f2b0c1d rent=21000; title=Bigger flat",
			wantRef:    "3f2b0c1d",
			wantFields: map[string]string{"rent": "21000", "title": "Bigger flat"},
		},
		{name: "missing fields", args: "3f2b0c1d", wantErr: true},
		{name: "empty", args: "", wantErr: true},
		{name: "unknown field", args: "3f2b0c1d colour=blue", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, fields, err := ParseEditArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.wantRef, ref); diff != "" {
				t.Errorf("ref mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantFields, fields); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRefArg(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    string
		wantErr bool
	}{
		{name: "valid", args: "3f2b0c1d", want: "3f2b0c1d"},
		{name: "with whitespace and extra words", args: "  #3f2b  please ", want: "#3f2b"},
		{name: "empty", args: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRefArg(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEmbedVideoURL(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "short link", raw: "https://youtu.be/dQw4w9WgXcQ", want: "https://www.youtube.com/embed/dQw4w9WgXcQ", wantOK: true},
		{name: "watch link with extra params", raw: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", want: "https://www.youtube.com/embed/dQw4w9WgXcQ", wantOK: true},
		{name: "already embedded", raw: "https://www.youtube.com/embed/dQw4w9WgXcQ", want: "https://www.youtube.com/embed/dQw4w9WgXcQ", wantOK: true},
		{name: "id too short", raw: "https://youtu.be/abc123"},
		{name: "not youtube", raw: "https://example.com/tour.mp4"},
		{name: "empty", raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EmbedVideoURL(tt.raw)
			if diff := cmp.Diff(tt.wantOK, ok); diff != "" {
				t.Errorf("ok mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("url mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMapURL(t *testing.T) {
	got, ok := MapURL(model.Listing{Latitude: 18.52, Longitude: 73.85})
	if !ok {
		t.Fatal("expected a map link")
	}
	want := "https://maps.google.com/maps?q=18.52,73.85&z=15&output=embed"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if _, ok := MapURL(model.Listing{}); ok {
		t.Error("expected no map link without coordinates")
	}
}

func TestShortID(t *testing.T) {
	if diff := cmp.Diff("3f2b0c1d", ShortID("3f2b0c1d-9a7e-4c4e-8f43-0d5c9b1e2a10")); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("abc", ShortID("abc")); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

var sampleListing = model.Listing{
	ID:           "3f2b0c1d-9a7e-4c4e-8f43-0d5c9b1e2a10",
	OwnerEmail:   "owner@example.com",
	Title:        "Sunny 2BHK",
	Description:  "Two bedrooms.",
	City:         "Pune",
	PropertyType: model.Property2BHK,
	Furnishing:   model.FurnishingSemi,
	Rent:         18000,
	Rating:       4.5,
	ImageURL:     "https://img.example.com/1.jpg",
	VideoURL:     "https://youtu.be/dQw4w9WgXcQ",
	Latitude:     18.52,
	Longitude:    73.85,
}

func TestFormatListingCard(t *testing.T) {
	want := "#3f2b0c1d Sunny 2BHK\n   Pune | 2BHK | Semi Furnished\n   Rent 18000 | Rating 4.5"
	if diff := cmp.Diff(want, FormatListingCard(sampleListing)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatListingList(t *testing.T) {
	if diff := cmp.Diff("nothing here", FormatListingList("Results", "nothing here", nil)); diff != "" {
		t.Errorf("empty mismatch (-want +got):\n%s", diff)
	}

	got := FormatListingList("Results", "nothing here", []model.Listing{sampleListing})
	want := "Results (1):\n\n" + FormatListingCard(sampleListing) + "\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatRankedList(t *testing.T) {
	if diff := cmp.Diff(emptySearch, FormatRankedList(nil)); diff != "" {
		t.Errorf("empty mismatch (-want +got):\n%s", diff)
	}

	got := FormatRankedList([]ranker.Scored{{Listing: sampleListing, Score: 17}})
	want := "Top picks for you (1):\n\n1. [score 17] " + FormatListingCard(sampleListing) + "\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatListingDetails(t *testing.T) {
	tests := []struct {
		name      string
		listing   model.Listing
		favorited bool
		want      string
	}{
		{
			name:      "everything set",
			listing:   sampleListing,
			favorited: true,
			want: "#3f2b0c1d Sunny 2BHK\nIn your favorites\n\n" +
				"City: Pune\nType: 2BHK\nFurnishing: Semi Furnished\nRent: 18000\nRating: 4.5\n\n" +
				"Two bedrooms.\n\n" +
				"Photo: https://img.example.com/1.jpg\n" +
				"Video: https://www.youtube.com/embed/dQw4w9WgXcQ\n" +
				"Map: https://maps.google.com/maps?q=18.52,73.85&z=15&output=embed\n\n" +
				"Contact: owner@example.com",
		},
		{
			name: "bare listing",
			listing: model.Listing{
				ID:           "abcd",
				Title:        "Box room",
				PropertyType: model.PropertyStudio,
				Furnishing:   model.FurnishingUnfurnished,
			},
			want: "#abcd Box room\n\nCity: city not set\nType: Studio\nFurnishing: Unfurnished\nRent: 0\nRating: 0",
		},
		{
			name: "non-youtube video kept as is",
			listing: model.Listing{
				ID:           "abcd",
				Title:        "Box room",
				PropertyType: model.PropertyStudio,
				Furnishing:   model.FurnishingUnfurnished,
				VideoURL:     "https://example.com/tour.mp4",
			},
			want: "#abcd Box room\n\nCity: city not set\nType: Studio\nFurnishing: Unfurnished\nRent: 0\nRating: 0\n" +
				"Video: https://example.com/tour.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatListingDetails(tt.listing, tt.favorited)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatNotification(t *testing.T) {
	n := model.Notification{Message: `Tenant asha@example.com liked your property "Sunny 2BHK"`}
	want := "[New like]\n\nTenant asha@example.com liked your property \"Sunny 2BHK\""
	if diff := cmp.Diff(want, FormatNotification(n)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatNotificationList(t *testing.T) {
	if diff := cmp.Diff("No notifications yet.", FormatNotificationList(nil)); diff != "" {
		t.Errorf("empty mismatch (-want +got):\n%s", diff)
	}

	ns := []model.Notification{
		{Message: "second", CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		{Message: "first", CreatedAt: time.Date(2026, 2, 28, 18, 5, 0, 0, time.UTC), IsRead: true},
	}
	want := "Your notifications:\n\n* 2026-03-01 09:30 UTC  second\n  2026-02-28 18:05 UTC  first"
	if diff := cmp.Diff(want, FormatNotificationList(ns)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatProfile(t *testing.T) {
	tests := []struct {
		name string
		user model.User
		want string
	}{
		{
			name: "with email",
			user: model.User{Role: model.RoleOwner, Email: "meera@example.com"},
			want: "Role: owner\nEmail: meera@example.com",
		},
		{
			name: "without email",
			user: model.User{Role: model.RoleTenant},
			want: "Role: tenant\nEmail: not set (use /email <address>)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatProfile(&tt.user)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
