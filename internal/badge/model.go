// Package badge holds the achievement catalog and the pure rules that decide
// when a badge is earned. Nothing in this package performs I/O; callers own
// persistence and must serialize per-user writes so a badge is stored once.
package badge

import (
	"errors"
	"time"
)

// Rarity is a display-only ordinal classification.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Valid reports whether r is one of the four known rarities.
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	default:
		return false
	}
}

// CriteriaKind identifies how a badge is earned.
type CriteriaKind string

const (
	CriteriaTicketsPurchased CriteriaKind = "tickets_purchased"
	CriteriaEventsAttended   CriteriaKind = "events_attended"
	CriteriaSpecial          CriteriaKind = "special"
)

// Criteria is a closed sum over the supported award conditions. Build it with
// TicketsPurchased, EventsAttended or Special; Threshold is zero for Special.
type Criteria struct {
	Kind      CriteriaKind `json:"type"`
	Threshold int          `json:"threshold,omitempty"`
}

// TicketsPurchased is earned once the cumulative ticket count reaches n.
func TicketsPurchased(n int) Criteria {
	return Criteria{Kind: CriteriaTicketsPurchased, Threshold: n}
}

// EventsAttended is earned once the distinct-event count reaches n.
func EventsAttended(n int) Criteria {
	return Criteria{Kind: CriteriaEventsAttended, Threshold: n}
}

// Special is only ever granted through AwardSpecial.
func Special() Criteria {
	return Criteria{Kind: CriteriaSpecial}
}

// Definition is a static catalog entry.
type Definition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Emoji       string   `json:"emoji"`
	Rarity      Rarity   `json:"rarity"`
	Criteria    Criteria `json:"criteria"`
}

// EarnedRecord is the per-user copy of a badge persisted at award time.
// Presentation fields are denormalized so later catalog edits do not alter history.
type EarnedRecord struct {
	ID          string    `json:"id" firestore:"id"`
	Name        string    `json:"name" firestore:"name"`
	Description string    `json:"description" firestore:"description"`
	ImageURL    string    `json:"imageUrl" firestore:"image_url"`
	EarnedAt    time.Time `json:"earnedAt" firestore:"earned_at"`
	Rarity      Rarity    `json:"rarity" firestore:"rarity"`
}

// NewEarnedRecord snapshots def as earned at the given instant.
func NewEarnedRecord(def Definition, at time.Time) EarnedRecord {
	return EarnedRecord{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		ImageURL:    def.Emoji,
		EarnedAt:    at,
		Rarity:      def.Rarity,
	}
}

// Status is one catalog entry decorated with a user's state.
type Status struct {
	Definition
	Color    string     `json:"color"`
	Earned   bool       `json:"earned"`
	Progress int        `json:"progress"`
	EarnedAt *time.Time `json:"earnedAt"`
}

// IDSet is a set of badge identifiers.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership; a nil set is empty.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

var (
	// ErrNotFound indicates the badge id is not in the catalog.
	ErrNotFound = errors.New("badge not found")
	// ErrAlreadyEarned indicates the user already holds the badge.
	ErrAlreadyEarned = errors.New("badge already earned")
)
