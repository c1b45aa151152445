package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ryuhosoy/mobile-gym-app/internal/domain"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Language: "ja"})
	return c, srv
}

func TestNearbySearch(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/place/nearbysearch/json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("key") != "test-key" || q.Get("language") != "ja" {
			t.Errorf("missing key/language params: %v", q)
		}
		if q.Get("type") != "gym" || q.Get("radius") != "1500" {
			t.Errorf("search params: %v", q)
		}
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"place_id": "p1", "name": "Gold Gym", "rating": 4.5,
				 "geometry": {"location": {"lat": 35.66, "lng": 139.75}}}
			]
		}`))
	})
	defer srv.Close()

	got, err := c.NearbySearch(context.Background(), domain.LatLng{Lat: 35.6586, Lng: 139.7454}, 1500, "")
	if err != nil {
		t.Fatalf("nearby search: %v", err)
	}
	if len(got) != 1 || got[0].PlaceID != "p1" || got[0].Name != "Gold Gym" {
		t.Fatalf("results = %+v", got)
	}
	if got[0].Geometry == nil || got[0].Geometry.Location.Lat != 35.66 {
		t.Fatalf("geometry = %+v", got[0].Geometry)
	}
}

func TestTextSearchZeroResults(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})
	defer srv.Close()

	got, err := c.TextSearch(context.Background(), "no such gym")
	if err != nil {
		t.Fatalf("zero results must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("results = %+v", got)
	}
}

func TestSearchUpstreamStatusError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "REQUEST_DENIED"}`))
	})
	defer srv.Close()

	if _, err := c.TextSearch(context.Background(), "gym"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("got %v, want ErrUpstream", err)
	}
}

func TestSearchHTTPError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	if _, err := c.TextSearch(context.Background(), "gym"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("got %v, want ErrUpstream", err)
	}
}

func TestDetails(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/place/details/json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("place_id") != "p1" {
			t.Errorf("place_id = %s", r.URL.Query().Get("place_id"))
		}
		w.Write([]byte(`{
			"status": "OK",
			"result": {
				"name": "Gold Gym",
				"formatted_address": "Tokyo",
				"formatted_phone_number": "03-0000-0000",
				"website": "https://example.com",
				"rating": 4.5,
				"user_ratings_total": 120,
				"opening_hours": {"open_now": true, "weekday_text": ["Monday: 24h"]}
			}
		}`))
	})
	defer srv.Close()

	got, err := c.Details(context.Background(), "p1")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if got.Name != "Gold Gym" || got.FormattedPhoneNumber != "03-0000-0000" {
		t.Fatalf("details = %+v", got)
	}
	if got.OpeningHours == nil || !got.OpeningHours.OpenNow {
		t.Fatalf("opening hours = %+v", got.OpeningHours)
	}
}

func TestWalkingDistance(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/distancematrix/json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("mode") != "walking" {
			t.Errorf("mode = %s", r.URL.Query().Get("mode"))
		}
		w.Write([]byte(`{
			"status": "OK",
			"rows": [{"elements": [{
				"status": "OK",
				"distance": {"text": "1.2 km", "value": 1200},
				"duration": {"text": "15分", "value": 900}
			}]}]
		}`))
	})
	defer srv.Close()

	got, err := c.WalkingDistance(context.Background(),
		domain.LatLng{Lat: 35.65, Lng: 139.74}, domain.LatLng{Lat: 35.66, Lng: 139.75})
	if err != nil {
		t.Fatalf("walking distance: %v", err)
	}
	if got.Distance.Value != 1200 || got.Duration.Text != "15分" {
		t.Fatalf("distance = %+v", got)
	}
}

func TestWalkingDistanceNoRoute(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "OK", "rows": [{"elements": [{"status": "ZERO_RESULTS"}]}]}`))
	})
	defer srv.Close()

	if _, err := c.WalkingDistance(context.Background(), domain.LatLng{}, domain.LatLng{}); !errors.Is(err, ErrUpstream) {
		t.Fatalf("got %v, want ErrUpstream", err)
	}
}
