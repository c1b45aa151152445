package places

import (
	"testing"

	"github.com/ryuhosoy/mobile-gym-app/internal/domain"
)

func samplePlaces() []domain.Place {
	return []domain.Place{
		{
			PlaceID:          "near-low",
			Name:             "Cheap Gym",
			Rating:           3.2,
			UserRatingsTotal: 12,
			OpeningHours:     &domain.OpeningHours{OpenNow: true},
			Geometry:         &domain.Geometry{Location: domain.LatLng{Lat: 35.659, Lng: 139.745}},
		},
		{
			PlaceID:          "far-high",
			Name:             "Premium Gym",
			Rating:           4.8,
			UserRatingsTotal: 210,
			OpeningHours:     &domain.OpeningHours{OpenNow: false},
			Geometry:         &domain.Geometry{Location: domain.LatLng{Lat: 35.70, Lng: 139.80}},
		},
		{
			PlaceID:          "mid",
			Name:             "Okay Gym",
			Rating:           4.1,
			UserRatingsTotal: 45,
			OpeningHours:     &domain.OpeningHours{OpenNow: true},
			Geometry:         &domain.Geometry{Location: domain.LatLng{Lat: 35.67, Lng: 139.76}},
		},
		{
			PlaceID: "no-geo",
			Name:    "Mystery Gym",
			Rating:  5.0,
		},
	}
}

func ids(places []domain.Place) []string {
	out := make([]string, len(places))
	for i, p := range places {
		out[i] = p.PlaceID
	}
	return out
}

func TestFilterOpenNow(t *testing.T) {
	got := Filter{OpenNow: true}.Apply(samplePlaces())
	want := []string{"near-low", "mid"}
	if len(got) != len(want) {
		t.Fatalf("got %v", ids(got))
	}
	for i, id := range want {
		if got[i].PlaceID != id {
			t.Fatalf("got %v, want %v", ids(got), want)
		}
	}
}

func TestFilterHighRatingThreshold(t *testing.T) {
	got := Filter{MinRating: FilterHighRating}.Apply(samplePlaces())
	for _, p := range got {
		if p.Rating < FilterHighRating {
			t.Fatalf("%s rated %f passed the high-rating filter", p.PlaceID, p.Rating)
		}
	}
	if len(got) != 3 {
		t.Fatalf("got %v", ids(got))
	}
}

func TestFilterWellReviewedThreshold(t *testing.T) {
	got := Filter{MinReviews: FilterWellReviewed}.Apply(samplePlaces())
	want := []string{"far-high", "mid"}
	if len(got) != len(want) || got[0].PlaceID != want[0] || got[1].PlaceID != want[1] {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
}

func TestFilterZeroValuePassesAll(t *testing.T) {
	in := samplePlaces()
	if got := (Filter{}).Apply(in); len(got) != len(in) {
		t.Fatalf("zero filter dropped places: %v", ids(got))
	}
}

func TestSortByDistance(t *testing.T) {
	origin := domain.LatLng{Lat: 35.6586, Lng: 139.7454}
	in := samplePlaces()
	Sort(in, SortByDistance, origin)

	want := []string{"near-low", "mid", "far-high", "no-geo"}
	for i, id := range want {
		if in[i].PlaceID != id {
			t.Fatalf("got %v, want %v", ids(in), want)
		}
	}
}

func TestSortByRating(t *testing.T) {
	in := samplePlaces()
	Sort(in, SortByRating, domain.LatLng{})
	if in[0].PlaceID != "no-geo" || in[1].PlaceID != "far-high" {
		t.Fatalf("got %v", ids(in))
	}
}

func TestSortByReviews(t *testing.T) {
	in := samplePlaces()
	Sort(in, SortByReviews, domain.LatLng{})
	if in[0].PlaceID != "far-high" || in[1].PlaceID != "mid" {
		t.Fatalf("got %v", ids(in))
	}
}
