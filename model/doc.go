// Package model defines the data types shared across travelgo.
//
// # Identity Types
//
//   - IdentifierType: strategy selector for customer lookups
//     (booking_ref, contact_phone, vehicle_reg, customer_id)
//   - Key: an attribute-equals-value key condition
//
// # Data Types
//
//   - Item: a raw store record (string, bool, Number, or []string values)
//   - Number: an exact decimal carried as a string until the formatter
//     converts it to float64 at the output boundary
//   - Predicate / Condition: AND-combined scan predicates
//   - SearchFilter: tri-state accommodation filters; a nil field means
//     the predicate is skipped entirely
package model
