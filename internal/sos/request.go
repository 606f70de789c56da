package sos

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"HerShield/pkg/geo"
)

// LocationInput keeps pointers so a missing coordinate is distinguishable from 0.
type LocationInput struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Timestamp accepts the client's fix time as a string or epoch milliseconds.
type Timestamp struct {
	Raw string
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Raw = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		t.Raw = strings.TrimSpace(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	t.Raw = n.String()
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000",
	"1/2/2006, 3:04:05 PM",
}

const minEpochMillisDigits = 12

// Time parses Raw, falling back to now when it is not a recognised format.
func (t Timestamp) Time(now time.Time) time.Time {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, t.Raw); err == nil {
			return ts
		}
	}
	// epoch milliseconds; shorter digit runs such as a bare year are not a time
	if len(t.Raw) >= minEpochMillisDigits {
		if ms, err := strconv.ParseInt(t.Raw, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms)
		}
	}
	return now
}

type TriggerRequest struct {
	Location  *LocationInput `json:"location"`
	Timestamp Timestamp      `json:"timestamp"`
	// Emergency defaults to true; only an explicit false lowers the priority.
	Emergency *bool `json:"emergency"`
}

type LocationUpdateRequest struct {
	Location  *LocationInput `json:"location"`
	Timestamp Timestamp      `json:"timestamp"`
}

func parseFix(in *LocationInput, ts Timestamp) (geo.Location, error) {
	if in == nil || in.Latitude == nil || in.Longitude == nil || ts.Raw == "" {
		return geo.Location{}, ErrMissingLocation
	}
	loc := geo.Location{Latitude: *in.Latitude, Longitude: *in.Longitude}
	if err := loc.Validate(); err != nil {
		return geo.Location{}, invalidLocation(err)
	}
	return loc, nil
}
