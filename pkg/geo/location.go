package geo

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// Location is a WGS84 fix. It is stored as "lat,long" text and only turned
// into strings when a message or column is written.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// String renders "lat,long" with the shortest exact decimal form.
func (l Location) String() string {
	return formatCoord(l.Latitude) + "," + formatCoord(l.Longitude)
}

func (l Location) MapURL() string {
	return "https://maps.google.com/?q=" + l.String()
}

// Parse reads the "lat,long" form produced by String.
func Parse(s string) (Location, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return Location{}, fmt.Errorf("location %q: expected \"lat,long\"", s)
	}
	var (
		l   Location
		err error
	)
	if l.Latitude, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return Location{}, fmt.Errorf("location %q: %w", s, err)
	}
	if l.Longitude, err = strconv.ParseFloat(strings.TrimSpace(lng), 64); err != nil {
		return Location{}, fmt.Errorf("location %q: %w", s, err)
	}
	return l, nil
}

func (l Location) Value() (driver.Value, error) {
	return l.String(), nil
}

func (l *Location) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*l = Location{}
		return nil
	default:
		return fmt.Errorf("geo: cannot scan %T into Location", src)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
