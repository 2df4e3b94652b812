package models

type University struct {
	ID         string  `json:"_id,omitempty"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distance_km,omitempty"`
}

// NearbyGroup is one campus of the nearest_with_events response.
type NearbyGroup struct {
	University University `json:"university"`
	Events     []Event    `json:"events"`
}

type SessionIdentity struct {
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	University string   `json:"university"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

// HasHome reports whether the session carries home-campus coordinates.
func (s *SessionIdentity) HasHome() bool {
	return s != nil && s.Latitude != nil && s.Longitude != nil
}
