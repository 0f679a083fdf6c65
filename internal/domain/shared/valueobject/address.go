package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ShippingAddress is the delivery address a customer order is shipped to.
// It is stored as a JSON column and replayed into the source platform's
// checkout form during fulfillment.
type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// AddressField is a single named form value of an address
type AddressField struct {
	Key   string
	Value string
}

// Address field keys, in the order a checkout form is usually filled
const (
	FieldFullName   = "full_name"
	FieldPhone      = "phone"
	FieldLine1      = "line1"
	FieldLine2      = "line2"
	FieldCity       = "city"
	FieldState      = "state"
	FieldPostalCode = "postal_code"
	FieldCountry    = "country"
)

// Normalize trims whitespace from every field
func (a ShippingAddress) Normalize() ShippingAddress {
	return ShippingAddress{
		FullName:   strings.TrimSpace(a.FullName),
		Phone:      strings.TrimSpace(a.Phone),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
}

// Validate checks that the fields required by a checkout form are present
func (a ShippingAddress) Validate() error {
	var missing []string
	if a.FullName == "" {
		missing = append(missing, FieldFullName)
	}
	if a.Line1 == "" {
		missing = append(missing, FieldLine1)
	}
	if a.City == "" {
		missing = append(missing, FieldCity)
	}
	if a.PostalCode == "" {
		missing = append(missing, FieldPostalCode)
	}
	if a.Country == "" {
		missing = append(missing, FieldCountry)
	}
	if len(missing) > 0 {
		return fmt.Errorf("shipping address missing required fields: %s", strings.Join(missing, ", "))
	}
	if len(a.Country) > 100 {
		return errors.New("country cannot exceed 100 characters")
	}
	return nil
}

// IsEmpty returns true if no field is set
func (a ShippingAddress) IsEmpty() bool {
	return a == ShippingAddress{}
}

// Fields returns the non-empty fields in form-fill order
func (a ShippingAddress) Fields() []AddressField {
	all := []AddressField{
		{FieldFullName, a.FullName},
		{FieldPhone, a.Phone},
		{FieldLine1, a.Line1},
		{FieldLine2, a.Line2},
		{FieldCity, a.City},
		{FieldState, a.State},
		{FieldPostalCode, a.PostalCode},
		{FieldCountry, a.Country},
	}
	fields := make([]AddressField, 0, len(all))
	for _, f := range all {
		if f.Value != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// String returns a single-line representation of the address
func (a ShippingAddress) String() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Value implements driver.Valuer for JSON column storage
func (a ShippingAddress) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSON column storage
func (a *ShippingAddress) Scan(value any) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ShippingAddress", value)
	}
	if len(data) == 0 {
		*a = ShippingAddress{}
		return nil
	}
	return json.Unmarshal(data, a)
}
