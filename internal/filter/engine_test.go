package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"rental_bot/internal/model"
)

func ptr(v float64) *float64 { return &v }

func ids(listings []model.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

var sample = []model.Listing{
	{ID: "a", City: "Pune", Rent: 8000, Rating: 3.5, PropertyType: model.Property2BHK, Furnishing: model.FurnishingSemi},
	{ID: "b", City: "Pune", Rent: 15000, Rating: 4.5, PropertyType: model.PropertyStudio, Furnishing: model.FurnishingFull},
	{ID: "c", City: "Mumbai", Rent: 20000, Rating: 4.0, PropertyType: model.Property2BHK, Furnishing: model.FurnishingUnfurnished},
	{ID: "d", City: "Navi Mumbai", Rent: 10000, Rating: 2.0, PropertyType: model.PropertyHouse, Furnishing: model.FurnishingFull},
}

func TestMatch(t *testing.T) {
	l := model.Listing{City: "Pune", Rent: 10000, Rating: 4.0, PropertyType: model.Property2BHK, Furnishing: model.FurnishingSemi}

	tests := []struct {
		name     string
		criteria model.FilterCriteria
		want     bool
	}{
		{name: "zero criteria passes", criteria: model.FilterCriteria{}, want: true},
		{name: "any sentinels pass", criteria: model.FilterCriteria{Furnishing: model.FurnishingAny, PropertyType: model.PropertyAny}, want: true},
		{name: "min rent equal passes", criteria: model.FilterCriteria{MinRent: ptr(10000)}, want: true},
		{name: "min rent above fails", criteria: model.FilterCriteria{MinRent: ptr(10001)}, want: false},
		{name: "max rent equal passes", criteria: model.FilterCriteria{MaxRent: ptr(10000)}, want: true},
		{name: "max rent below fails", criteria: model.FilterCriteria{MaxRent: ptr(9999)}, want: false},
		{name: "zero min rent applies", criteria: model.FilterCriteria{MinRent: ptr(0)}, want: true},
		{name: "city substring case insensitive", criteria: model.FilterCriteria{City: "PU"}, want: true},
		{name: "city mismatch", criteria: model.FilterCriteria{City: "delhi"}, want: false},
		{name: "furnishing exact", criteria: model.FilterCriteria{Furnishing: model.FurnishingSemi}, want: true},
		{name: "furnishing mismatch", criteria: model.FilterCriteria{Furnishing: model.FurnishingFull}, want: false},
		{name: "type exact", criteria: model.FilterCriteria{PropertyType: model.Property2BHK}, want: true},
		{name: "type mismatch", criteria: model.FilterCriteria{PropertyType: model.Property3BHK}, want: false},
		{name: "min rating equal passes", criteria: model.FilterCriteria{MinRating: ptr(4.0)}, want: true},
		{name: "min rating above fails", criteria: model.FilterCriteria{MinRating: ptr(4.1)}, want: false},
		{
			name: "all constraints satisfied",
			criteria: model.FilterCriteria{
				MinRent: ptr(5000), MaxRent: ptr(12000), City: "pune",
				Furnishing: model.FurnishingSemi, PropertyType: model.Property2BHK, MinRating: ptr(3),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(l, tt.criteria)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Match() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		criteria model.FilterCriteria
		want     []string
	}{
		{
			name:     "neutral criteria keeps order",
			criteria: model.FilterCriteria{},
			want:     []string{"a", "b", "c", "d"},
		},
		{
			name:     "min rent and city",
			criteria: model.FilterCriteria{MinRent: ptr(10000), City: "pune"},
			want:     []string{"b"},
		},
		{
			name:     "city substring matches both mumbais",
			criteria: model.FilterCriteria{City: "mumbai"},
			want:     []string{"c", "d"},
		},
		{
			name:     "type filter preserves order",
			criteria: model.FilterCriteria{PropertyType: model.Property2BHK},
			want:     []string{"a", "c"},
		},
		{
			name:     "nothing matches",
			criteria: model.FilterCriteria{MinRating: ptr(5)},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(sample, tt.criteria))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyRentScenario(t *testing.T) {
	listings := []model.Listing{
		{ID: "pune-8k", City: "Pune", Rent: 8000},
		{ID: "pune-15k", City: "Pune", Rent: 15000},
		{ID: "mumbai-20k", City: "Mumbai", Rent: 20000},
	}
	got := ids(Apply(listings, ParseCriteria(Form{MinRent: "10000", City: "pune"})))
	if diff := cmp.Diff([]string{"pune-15k"}, got); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyMonotonic(t *testing.T) {
	steps := []model.FilterCriteria{
		{},
		{City: "mumbai"},
		{City: "mumbai", MinRent: ptr(12000)},
		{City: "mumbai", MinRent: ptr(12000), MinRating: ptr(4.5)},
	}
	prev := len(sample)
	for i, c := range steps {
		got := Apply(sample, c)
		if len(got) > prev {
			t.Fatalf("step %d: result grew from %d to %d", i, prev, len(got))
		}
		for _, l := range got {
			if !Match(l, c) {
				t.Errorf("step %d: %s returned but does not match", i, l.ID)
			}
		}
		prev = len(got)
	}
}

func TestParseCriteria(t *testing.T) {
	tests := []struct {
		name string
		form Form
		want model.FilterCriteria
	}{
		{
			name: "empty form",
			form: Form{},
			want: model.FilterCriteria{Furnishing: model.FurnishingAny, PropertyType: model.PropertyAny},
		},
		{
			name: "all fields",
			form: Form{
				MinRent: "5000", MaxRent: " 20000 ", City: " Pune ",
				Furnishing: "semi furnished", PropertyType: "2bhk", MinRating: "3.5",
			},
			want: model.FilterCriteria{
				MinRent: ptr(5000), MaxRent: ptr(20000), City: "Pune",
				Furnishing: model.FurnishingSemi, PropertyType: model.Property2BHK, MinRating: ptr(3.5),
			},
		},
		{
			name: "non-numeric bounds are unset",
			form: Form{MinRent: "cheap", MaxRent: "10k", MinRating: "good"},
			want: model.FilterCriteria{Furnishing: model.FurnishingAny, PropertyType: model.PropertyAny},
		},
		{
			name: "unknown categories fall back to any",
			form: Form{Furnishing: "luxury", PropertyType: "villa"},
			want: model.FilterCriteria{Furnishing: model.FurnishingAny, PropertyType: model.PropertyAny},
		},
		{
			name: "explicit any",
			form: Form{Furnishing: "ANY", PropertyType: "any"},
			want: model.FilterCriteria{Furnishing: model.FurnishingAny, PropertyType: model.PropertyAny},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCriteria(tt.form)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseCriteria() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
