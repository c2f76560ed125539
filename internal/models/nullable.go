// Package models holds request value types shared by handlers.
package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
)

var (
	_ binding.BindUnmarshaler = (*NullableString)(nil)
	_ binding.BindUnmarshaler = (*NullableTime)(nil)
)

// NullableString represents a string field that can distinguish between:
// - Field absent: Set=false, Valid=false, Value=""
// - Field present with null or blank: Set=true, Valid=false, Value=""
// - Field present with value: Set=true, Valid=true, Value="the value"
//
// Blank input (empty or whitespace only) is treated as null, both in JSON
// bodies and in query/form parameters.
type NullableString struct {
	Value string
	Valid bool // true if Value is not null
	Set   bool // true if field was present
}

// UnmarshalJSON implements custom JSON unmarshaling for NullableString.
func (ns *NullableString) UnmarshalJSON(data []byte) error {
	ns.Set = true // Field was present in JSON

	if string(data) == "null" {
		ns.Valid = false
		ns.Value = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ns.assign(s)
	return nil
}

// UnmarshalParam binds a query or form parameter.
func (ns *NullableString) UnmarshalParam(param string) error {
	ns.Set = true
	ns.assign(param)
	return nil
}

func (ns *NullableString) assign(s string) {
	if strings.TrimSpace(s) == "" {
		ns.Valid = false
		ns.Value = ""
		return
	}
	ns.Value = s
	ns.Valid = true
}

// MarshalJSON implements custom JSON marshaling for NullableString.
func (ns NullableString) MarshalJSON() ([]byte, error) {
	if !ns.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(ns.Value)
}

// ToPtr converts NullableString to *string.
// Returns nil if Valid is false, otherwise returns pointer to Value.
func (ns NullableString) ToPtr() *string {
	if !ns.Valid {
		return nil
	}
	return &ns.Value
}

// OrElse returns Value, or def when the string is null.
func (ns NullableString) OrElse(def string) string {
	if !ns.Valid {
		return def
	}
	return ns.Value
}

// NullableTime represents a time field that can distinguish between:
// - Field absent: Set=false, Valid=false
// - Field present with null or blank: Set=true, Valid=false
// - Field present with value: Set=true, Valid=true, Value=time
type NullableTime struct {
	Value time.Time
	Valid bool
	Set   bool
}

// UnmarshalJSON implements custom JSON unmarshaling for NullableTime.
func (nt *NullableTime) UnmarshalJSON(data []byte) error {
	nt.Set = true

	if string(data) == "null" {
		nt.Valid = false
		nt.Value = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return nt.parse(s)
}

// UnmarshalParam binds an RFC 3339 query or form parameter.
func (nt *NullableTime) UnmarshalParam(param string) error {
	nt.Set = true
	return nt.parse(param)
}

func (nt *NullableTime) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		nt.Valid = false
		nt.Value = time.Time{}
		return nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	nt.Value = t
	nt.Valid = true
	return nil
}

// MarshalJSON implements custom JSON marshaling for NullableTime.
func (nt NullableTime) MarshalJSON() ([]byte, error) {
	if !nt.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(nt.Value)
}

// ToPtr converts NullableTime to *time.Time.
func (nt NullableTime) ToPtr() *time.Time {
	if !nt.Valid {
		return nil
	}
	return &nt.Value
}
