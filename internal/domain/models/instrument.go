package models

import (
	"fmt"
	"time"
)

const symbolPrefix = "TW"

// Instrument is one index constituent with its membership window.
type Instrument struct {
	Symbol    string    `json:"symbol"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// ChangeType marks a constituent entering or leaving an index.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeRemove ChangeType = "remove"
)

// Change records a single constituent change detected between collections.
type Change struct {
	Symbol string     `json:"symbol"`
	Date   time.Time  `json:"date"`
	Type   ChangeType `json:"type"`
}

// NormalizeSymbol converts a raw exchange code to the TW-prefixed form.
// An existing TW prefix is stripped first; the remainder must be all digits.
func NormalizeSymbol(symbol string) (string, error) {
	s := symbol
	for len(s) > 0 && (s[0] == ' ' || s[0] == '"') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '"') {
		s = s[:len(s)-1]
	}
	if len(s) >= len(symbolPrefix) && s[:len(symbolPrefix)] == symbolPrefix {
		s = s[len(symbolPrefix):]
	}
	if !isDigits(s) {
		return "", fmt.Errorf("invalid Taiwan stock symbol: %q", symbol)
	}
	return symbolPrefix + s, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
