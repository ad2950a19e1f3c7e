package domain

import (
	"strconv"
	"strings"
)

// DeckSeparator joins an owner id and a deck number in an encoded deck id.
const DeckSeparator = "-"

// DeckID addresses one of an owner's decks.
//
// Deck 1 is encoded as the bare owner id: historical data had no suffix for
// the first deck. Every other deck is encoded as "<owner>-<n>".
type DeckID struct {
	OwnerID string
	Number  int
}

// NewDeckID returns the deck id for owner and deck number n.
// Numbers below 1 are clamped to 1.
func NewDeckID(owner string, n int) DeckID {
	if n < 1 {
		n = 1
	}
	return DeckID{OwnerID: owner, Number: n}
}

// Encode returns the storage form of the deck id.
func (d DeckID) Encode() string {
	if d.Number <= 1 {
		return d.OwnerID
	}
	return d.OwnerID + DeckSeparator + strconv.Itoa(d.Number)
}

func (d DeckID) String() string { return d.Encode() }

// Label is the display name used by the dashboard and the bot.
func (d DeckID) Label() string {
	if d.Number <= 1 {
		return "Main Deck"
	}
	return "Deck " + strconv.Itoa(d.Number)
}

// DecodeDeckID parses an encoded deck id. It never fails: input that does not
// end in "-<n>" with n >= 1 resolves to deck 1 of the literal string.
func DecodeDeckID(s string) DeckID {
	i := strings.LastIndex(s, DeckSeparator)
	if i < 0 {
		return DeckID{OwnerID: s, Number: 1}
	}
	owner, suffix := s[:i], s[i+len(DeckSeparator):]
	if !isDigits(suffix) {
		return DeckID{OwnerID: s, Number: 1}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 1 {
		return DeckID{OwnerID: s, Number: 1}
	}
	return DeckID{OwnerID: owner, Number: n}
}

// IsLegacyNumericDeck reports whether s is a pre-migration global deck id:
// a non-empty string of ASCII digits with no owner prefix. The identifier
// scheme does not resolve ownership for these; callers reassign them.
func IsLegacyNumericDeck(s string) bool {
	return isDigits(s)
}

// LegacyDeckFor maps a legacy numeric deck id "N" to deck N of legacyOwner.
// It returns false for anything that is not a legacy numeric id.
func LegacyDeckFor(s, legacyOwner string) (DeckID, bool) {
	if !IsLegacyNumericDeck(s) {
		return DeckID{}, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return DeckID{}, false
	}
	return NewDeckID(legacyOwner, n), true
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
