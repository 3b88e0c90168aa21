package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Number is a decimal number carried as its exact string representation.
// DynamoDB stores numbers as arbitrary-precision decimals; keeping the
// string form avoids float rounding until the formatter boundary.
type Number string

// Float64 converts the number to a float64. This is the single place
// where float imprecision may be introduced.
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// Item is a raw store record. Values are one of: string, bool, Number,
// or []string (string lists such as itineraries).
type Item map[string]any

// String returns the string value of the named attribute, if present.
func (i Item) String(name string) (string, bool) {
	v, ok := i[name].(string)
	return v, ok
}

// Bool returns the boolean value of the named attribute, if present.
func (i Item) Bool(name string) (bool, bool) {
	v, ok := i[name].(bool)
	return v, ok
}

// Number returns the numeric value of the named attribute, if present.
func (i Item) Number(name string) (Number, bool) {
	v, ok := i[name].(Number)
	return v, ok
}

// Coordinate returns the named attribute parsed as a decimal-degree
// coordinate. Accepts Number values and string values, including
// strings wrapped in stray quotes as found in imported demo data.
func (i Item) Coordinate(name string) (float64, bool) {
	switch v := i[name].(type) {
	case Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.Trim(v, `"`), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// IdentifierType selects the lookup strategy for a customer lookup.
type IdentifierType string

const (
	IdentifierBookingRef   IdentifierType = "booking_ref"
	IdentifierContactPhone IdentifierType = "contact_phone"
	IdentifierVehicleReg   IdentifierType = "vehicle_reg"
	IdentifierCustomerID   IdentifierType = "customer_id"
)

// Valid reports whether t is a recognized identifier type.
func (t IdentifierType) Valid() bool {
	switch t {
	case IdentifierBookingRef, IdentifierContactPhone, IdentifierVehicleReg, IdentifierCustomerID:
		return true
	default:
		return false
	}
}

// Key is a primary-key (or index-key) condition: attribute equals value.
type Key struct {
	Name  string
	Value string
}

// String returns a string representation of the Key.
func (k Key) String() string {
	return fmt.Sprintf("%s=%s", k.Name, k.Value)
}

// ConditionOp is a comparison operator for scan predicates.
type ConditionOp int

const (
	// OpEqual matches attributes equal to the condition value.
	OpEqual ConditionOp = iota
	// OpContains matches string attributes containing the condition value.
	OpContains
	// OpGreaterThan matches numeric attributes greater than the condition value.
	OpGreaterThan
)

// Condition is a single attribute predicate.
type Condition struct {
	Attr  string
	Op    ConditionOp
	Value any
}

// Predicate is an AND-combined set of conditions applied by a scan.
// An empty predicate matches every item.
type Predicate []Condition

// Matches evaluates the predicate against an item. Store backends that
// cannot push predicates down to the server use this directly.
func (p Predicate) Matches(item Item) bool {
	for _, c := range p {
		if !c.matches(item) {
			return false
		}
	}
	return true
}

func (c Condition) matches(item Item) bool {
	v, ok := item[c.Attr]
	if !ok {
		return false
	}
	switch c.Op {
	case OpEqual:
		return v == c.Value
	case OpContains:
		// Case-sensitive, matching the remote store's contains().
		s, ok := v.(string)
		want, _ := c.Value.(string)
		return ok && strings.Contains(s, want)
	case OpGreaterThan:
		n, ok := v.(Number)
		if !ok {
			return false
		}
		f, err := n.Float64()
		if err != nil {
			return false
		}
		want, ok := toFloat(c.Value)
		return ok && f > want
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	case Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// SearchFilter is the set of optional accommodation predicates. Each
// field is tri-state: nil means the predicate is not applied at all.
type SearchFilter struct {
	FamilyFriendly *bool
	PetFriendly    *bool
	PoweredSite    *bool
}

// Matches evaluates the active predicates against an accommodation item.
// PoweredSite, when set and true, requires powered_sites_available > 0;
// a false value imposes no constraint (same shape as the scan predicate).
func (f SearchFilter) Matches(item Item) bool {
	if f.FamilyFriendly != nil {
		if v, ok := item.Bool("family_friendly"); !ok || v != *f.FamilyFriendly {
			return false
		}
	}
	if f.PetFriendly != nil {
		if v, ok := item.Bool("pet_friendly"); !ok || v != *f.PetFriendly {
			return false
		}
	}
	if f.PoweredSite != nil && *f.PoweredSite {
		n, ok := item.Number("powered_sites_available")
		if !ok {
			return false
		}
		v, err := n.Float64()
		if err != nil || v <= 0 {
			return false
		}
	}
	return true
}

// Conditions returns the filter as scan conditions for server-side
// evaluation during the exact-match phase.
func (f SearchFilter) Conditions() Predicate {
	var p Predicate
	if f.FamilyFriendly != nil {
		p = append(p, Condition{Attr: "family_friendly", Op: OpEqual, Value: *f.FamilyFriendly})
	}
	if f.PetFriendly != nil {
		p = append(p, Condition{Attr: "pet_friendly", Op: OpEqual, Value: *f.PetFriendly})
	}
	if f.PoweredSite != nil && *f.PoweredSite {
		p = append(p, Condition{Attr: "powered_sites_available", Op: OpGreaterThan, Value: 0})
	}
	return p
}

// Bool is a convenience for building tri-state filter fields.
func Bool(v bool) *bool { return &v }
