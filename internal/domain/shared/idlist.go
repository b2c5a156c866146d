package shared

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// IDList is an ordered set of entity IDs stored as a JSON array
type IDList []uuid.UUID

// Contains reports whether id is in the list
func (l IDList) Contains(id uuid.UUID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// With returns a copy of the list with id appended if not yet present
func (l IDList) With(id uuid.UUID) IDList {
	if l.Contains(id) {
		return l.Clone()
	}
	return append(l.Clone(), id)
}

// Without returns a copy of the list with id removed
func (l IDList) Without(id uuid.UUID) IDList {
	out := make(IDList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Clone returns an independent copy
func (l IDList) Clone() IDList {
	if l == nil {
		return nil
	}
	out := make(IDList, len(l))
	copy(out, l)
	return out
}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (l *IDList) Scan(value interface{}) error {
	if value == nil {
		*l = IDList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan IDList: unsupported type")
	}

	if len(bytes) == 0 {
		*l = IDList{}
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// CloneID copies an optional reference so clones never share pointees
func CloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// SameID compares two optional references
func SameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// RefersTo reports whether the optional reference points at id
func RefersTo(ref *uuid.UUID, id uuid.UUID) bool {
	return ref != nil && *ref == id
}
