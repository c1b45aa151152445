package places

import (
	"sort"

	"github.com/ryuhosoy/mobile-gym-app/internal/domain"
)

// SortBy selects the ordering of a gym result list.
type SortBy string

const (
	SortByDistance SortBy = "distance"
	SortByRating   SortBy = "rating"
	SortByReviews  SortBy = "reviews"
)

// Filter narrows a gym result list. Zero values disable a criterion.
// Thresholds match the original search screen: "highly rated" means a
// rating of 4.0 or better, "well reviewed" means 30 or more reviews.
type Filter struct {
	OpenNow    bool
	MinRating  float64
	MinReviews int
}

// FilterHighRating and FilterWellReviewed are the canned thresholds the
// search surface exposes.
const (
	FilterHighRating   = 4.0
	FilterWellReviewed = 30
)

// Apply returns the places that pass every enabled criterion.
func (f Filter) Apply(in []domain.Place) []domain.Place {
	out := make([]domain.Place, 0, len(in))
	for _, p := range in {
		if f.OpenNow && (p.OpeningHours == nil || !p.OpeningHours.OpenNow) {
			continue
		}
		if f.MinRating > 0 && p.Rating < f.MinRating {
			continue
		}
		if f.MinReviews > 0 && p.UserRatingsTotal < f.MinReviews {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sort orders places in-place. Distance sorting needs an origin; places
// without coordinates sink to the end.
func Sort(places []domain.Place, by SortBy, origin domain.LatLng) {
	switch by {
	case SortByDistance:
		sort.Slice(places, func(i, j int) bool {
			return distanceOrInf(places[i], origin) < distanceOrInf(places[j], origin)
		})
	case SortByRating:
		sort.Slice(places, func(i, j int) bool {
			return places[i].Rating > places[j].Rating
		})
	case SortByReviews:
		sort.Slice(places, func(i, j int) bool {
			return places[i].UserRatingsTotal > places[j].UserRatingsTotal
		})
	}
}

func distanceOrInf(p domain.Place, origin domain.LatLng) float64 {
	if p.Geometry == nil {
		return earthRadiusKm * 10
	}
	return Haversine(origin, p.Geometry.Location)
}
