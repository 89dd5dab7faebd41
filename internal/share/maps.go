package share

import (
	"errors"
	"net/url"
	"strings"
)

// ErrMissingLocation is returned when a restaurant search has no location.
var ErrMissingLocation = errors.New("location is required")

const mapsSearchBase = "https://www.google.com/maps/search/"

// MapsSearchURL returns a Google Maps search for restaurants serving dish
// near location.
func MapsSearchURL(dish, location string) (string, error) {
	dish = strings.TrimSpace(dish)
	location = strings.TrimSpace(location)
	if location == "" {
		return "", ErrMissingLocation
	}
	return mapsSearchBase + url.PathEscape(dish+" restaurants near "+location), nil
}
