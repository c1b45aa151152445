package domain

// Place is one result from the upstream places search API. Field names
// follow the upstream JSON wire format.
type Place struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	FormattedAddress string        `json:"formatted_address,omitempty"`
	Vicinity         string        `json:"vicinity,omitempty"`
	Rating           float64       `json:"rating,omitempty"`
	UserRatingsTotal int           `json:"user_ratings_total,omitempty"`
	OpeningHours     *OpeningHours `json:"opening_hours,omitempty"`
	Geometry         *Geometry     `json:"geometry,omitempty"`
}

// PlaceDetails is the detail record for a single place.
type PlaceDetails struct {
	Name                 string        `json:"name"`
	FormattedAddress     string        `json:"formatted_address,omitempty"`
	FormattedPhoneNumber string        `json:"formatted_phone_number,omitempty"`
	Website              string        `json:"website,omitempty"`
	Rating               float64       `json:"rating,omitempty"`
	UserRatingsTotal     int           `json:"user_ratings_total,omitempty"`
	OpeningHours         *OpeningHours `json:"opening_hours,omitempty"`
	Geometry             *Geometry     `json:"geometry,omitempty"`
}

// OpeningHours holds the open-now flag and the weekly schedule text.
type OpeningHours struct {
	OpenNow     bool     `json:"open_now"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// Geometry wraps the place coordinates.
type Geometry struct {
	Location LatLng `json:"location"`
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceInfo is one element of a distance-matrix response.
type DistanceInfo struct {
	Distance TextValue `json:"distance"`
	Duration TextValue `json:"duration"`
}

// TextValue is the upstream pair of human-readable text and raw value
// (meters for distances, seconds for durations).
type TextValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}
