// Package ranker orders candidate listings by relevance to a tenant.
package ranker

import (
	"cmp"
	"slices"

	"rental_bot/internal/model"
)

// Score weights.
const (
	ratingWeight = 2
	cityBonus    = 5
	typeBonus    = 3
)

// Scored pairs a listing with its relevance score.
type Scored struct {
	Listing model.Listing
	Score   float64
}

// Score computes the relevance of l for a tenant whose favorites are given.
// Formula: 2*rating, plus 5 if any favorite is in the same city and 3 if
// any favorite has the same property type. A favorite listing scored
// against itself earns both bonuses.
func Score(l model.Listing, favorites []model.Listing) float64 {
	score := l.Rating * ratingWeight
	if len(favorites) == 0 {
		return score
	}

	var cityMatch, typeMatch bool
	for _, f := range favorites {
		if f.City == l.City {
			cityMatch = true
		}
		if f.PropertyType == l.PropertyType {
			typeMatch = true
		}
	}
	if cityMatch {
		score += cityBonus
	}
	if typeMatch {
		score += typeBonus
	}
	return score
}

// RankScored scores every candidate and sorts them by descending score.
// Candidates with equal scores keep their input order. The input slice is
// not modified.
func RankScored(candidates, favorites []model.Listing) []Scored {
	scored := make([]Scored, len(candidates))
	for i, l := range candidates {
		scored[i] = Scored{Listing: l, Score: Score(l, favorites)}
	}
	slices.SortStableFunc(scored, func(a, b Scored) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return scored
}

// Rank returns candidates ordered by descending relevance.
func Rank(candidates, favorites []model.Listing) []model.Listing {
	scored := RankScored(candidates, favorites)
	out := make([]model.Listing, len(scored))
	for i, s := range scored {
		out[i] = s.Listing
	}
	return out
}
