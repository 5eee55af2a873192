package account

import (
	"context"
	"errors"
	"time"

	"github.com/ticketnest/ticketnest/internal/badge"
)

// Account is the per-wallet user document.
type Account struct {
	AccountID        string               `json:"accountId" firestore:"-"`
	WalletAddress    string               `json:"walletAddress" firestore:"wallet_address"`
	TicketsPurchased int                  `json:"ticketsPurchased" firestore:"tickets_purchased"`
	EventsAttended   int                  `json:"eventsAttended" firestore:"events_attended"`
	AttendedEventIDs []string             `json:"attendedEvents" firestore:"attended_event_ids"`
	Badges           []badge.EarnedRecord `json:"badges" firestore:"badges"`
	AttendeeLevel    badge.Level          `json:"attendeeLevel" firestore:"attendee_level"`
	TotalSpent       float64              `json:"totalSpent" firestore:"total_spent"`
	CreatedAt        time.Time            `json:"createdAt" firestore:"created_at"`
	UpdatedAt        time.Time            `json:"updatedAt" firestore:"updated_at"`
	LastActive       time.Time            `json:"lastActive" firestore:"last_active"`
}

// BadgeIDs returns the set of persisted badge ids.
func (a *Account) BadgeIDs() badge.IDSet {
	ids := make([]string, 0, len(a.Badges))
	for _, b := range a.Badges {
		ids = append(ids, b.ID)
	}
	return badge.NewIDSet(ids...)
}

// addBadge appends rec unless the account already holds that id.
func (a *Account) addBadge(rec badge.EarnedRecord) bool {
	for _, b := range a.Badges {
		if b.ID == rec.ID {
			return false
		}
	}
	a.Badges = append(a.Badges, rec)
	return true
}

func (a *Account) hasAttended(eventID string) bool {
	for _, id := range a.AttendedEventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}

func (a *Account) clone() Account {
	out := *a
	out.AttendedEventIDs = append([]string(nil), a.AttendedEventIDs...)
	out.Badges = append([]badge.EarnedRecord(nil), a.Badges...)
	return out
}

func defaultAccount(accountID string) *Account {
	return &Account{AccountID: accountID, AttendeeLevel: badge.LevelNewcomer}
}

// PurchaseInput describes one purchase applied to an account's counters.
type PurchaseInput struct {
	AccountID     string
	EventID       string
	Quantity      int
	WalletAddress string
	Spent         float64
}

// PurchaseStats is the post-purchase snapshot returned to callers.
type PurchaseStats struct {
	TicketsPurchased int         `json:"ticketsPurchased"`
	EventsAttended   int         `json:"eventsAttended"`
	TotalBadges      int         `json:"totalBadges"`
	AttendeeLevel    badge.Level `json:"attendeeLevel"`
}

// PurchaseResult lists the badges awarded by a purchase.
type PurchaseResult struct {
	NewBadges []badge.EarnedRecord `json:"newBadges"`
	Stats     PurchaseStats        `json:"stats"`
}

// StatusStats summarizes an account for the badge status view.
type StatusStats struct {
	TotalBadges    int         `json:"totalBadges"`
	EarnedCount    int         `json:"earnedCount"`
	TicketCount    int         `json:"ticketCount"`
	EventsAttended int         `json:"eventsAttended"`
	AttendeeLevel  badge.Level `json:"attendeeLevel"`
	LevelColor     string      `json:"levelColor"`
}

// StatusResponse is returned by GET /v1/badges.
type StatusResponse struct {
	Badges       []badge.Status `json:"badges"`
	EarnedBadges []badge.Status `json:"earnedBadges"`
	LockedBadges []badge.Status `json:"lockedBadges"`
	Stats        StatusStats    `json:"stats"`
}

// Repository persists accounts.
type Repository interface {
	// Get returns the stored account, or a zero-value account when none exists.
	Get(ctx context.Context, accountID string) (*Account, error)
	// Update runs mutate against the current account inside a single-writer
	// read-modify-write and stores the result. mutate may run more than once
	// under contention and must derive everything from its argument.
	Update(ctx context.Context, accountID string, mutate func(*Account) error) (*Account, error)
}

// Service exposes account statistics and badge awards.
type Service interface {
	Get(ctx context.Context, accountID string) (*Account, error)
	Status(ctx context.Context, accountID string) (*StatusResponse, error)
	RecordPurchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error)
	AwardSpecial(ctx context.Context, accountID, badgeID string) (*badge.EarnedRecord, error)
}

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

var (
	// ErrMissingAccountID indicates a required account id was absent.
	ErrMissingAccountID = errors.New("account id is required")
	// ErrMissingBadgeID indicates a required badge id was absent.
	ErrMissingBadgeID = errors.New("badge id is required")
	// ErrInvalidQuantity indicates a non-positive purchase quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)
