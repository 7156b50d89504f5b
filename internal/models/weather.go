package models

import (
	"encoding/json"
	"time"
)

// PlaceWeather is one cached weather snapshot for a place. Current and
// Forecast are the provider payloads forwarded verbatim; the service never
// looks inside them beyond checking they are non-empty.
type PlaceWeather struct {
	Place     string          `json:"place"`
	PlaceID   string          `json:"placeId"`
	Current   json.RawMessage `json:"current"`
	Forecast  json.RawMessage `json:"forecast"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Age returns how long ago the snapshot was fetched.
func (w *PlaceWeather) Age() time.Duration {
	return time.Since(w.FetchedAt)
}

// FavoriteWeather is one row of the favorites-with-weather view. Weather is
// nil and Unavailable true when the place could not be served.
type FavoriteWeather struct {
	Place       string        `json:"place"`
	Weather     *PlaceWeather `json:"weather,omitempty"`
	Source      string        `json:"source,omitempty"`
	Unavailable bool          `json:"unavailable,omitempty"`
}
