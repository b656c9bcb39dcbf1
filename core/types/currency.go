package types

import "strings"

// CurrencyID identifies a fungible asset tracked by the ledger. Pool tokens and
// the LP tokens minted against them share the same namespace.
type CurrencyID string

// String returns the identifier as stored.
func (c CurrencyID) String() string { return string(c) }

// Normalize trims surrounding whitespace and upper-cases the identifier.
func (c CurrencyID) Normalize() CurrencyID {
	return CurrencyID(strings.ToUpper(strings.TrimSpace(string(c))))
}
