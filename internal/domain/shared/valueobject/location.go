package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Location is a pickup or delivery point. It is immutable; the With* methods
// return new values.
type Location struct {
	city    string
	state   string
	zipCode string
}

// NewLocation creates a Location. The state is normalized to upper case and
// must be a two-letter code when given.
func NewLocation(city, state, zipCode string) (Location, error) {
	city = strings.TrimSpace(city)
	state = strings.ToUpper(strings.TrimSpace(state))
	zipCode = strings.TrimSpace(zipCode)

	if len(city) > 100 {
		return Location{}, fmt.Errorf("city cannot exceed 100 characters")
	}
	if state != "" && len(state) != 2 {
		return Location{}, fmt.Errorf("state must be a two-letter code, got %q", state)
	}
	if len(zipCode) > 10 {
		return Location{}, fmt.Errorf("zip code cannot exceed 10 characters")
	}
	return Location{city: city, state: state, zipCode: zipCode}, nil
}

// MustNewLocation creates a Location and panics on invalid input
func MustNewLocation(city, state, zipCode string) Location {
	loc, err := NewLocation(city, state, zipCode)
	if err != nil {
		panic(err)
	}
	return loc
}

// City returns the city
func (l Location) City() string { return l.city }

// State returns the two-letter state code
func (l Location) State() string { return l.state }

// ZipCode returns the zip code
func (l Location) ZipCode() string { return l.zipCode }

// IsEmpty reports whether no part of the location is set
func (l Location) IsEmpty() bool {
	return l.city == "" && l.state == "" && l.zipCode == ""
}

// String renders "City, ST"
func (l Location) String() string {
	switch {
	case l.city != "" && l.state != "":
		return l.city + ", " + l.state
	case l.city != "":
		return l.city
	default:
		return l.state
	}
}

// Equals compares two locations case-insensitively on city
func (l Location) Equals(other Location) bool {
	return strings.EqualFold(l.city, other.city) && l.state == other.state && l.zipCode == other.zipCode
}

type locationJSON struct {
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(locationJSON{City: l.city, State: l.state, ZipCode: l.zipCode})
}

// UnmarshalJSON implements json.Unmarshaler, applying NewLocation's rules
func (l *Location) UnmarshalJSON(data []byte) error {
	var v locationJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	loc, err := NewLocation(v.City, v.State, v.ZipCode)
	if err != nil {
		return err
	}
	*l = loc
	return nil
}

// Value implements driver.Valuer; locations are stored as JSON
func (l Location) Value() (driver.Value, error) {
	if l.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *Location) Scan(value any) error {
	if value == nil {
		*l = Location{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Location", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*l = Location{}
		return nil
	}
	return json.Unmarshal(data, l)
}
