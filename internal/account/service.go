package account

import (
	"context"
	"strings"
	"time"

	"github.com/ticketnest/ticketnest/internal/badge"
)

type service struct {
	repo  Repository
	clock Clock
}

// NewService wires the account service. A nil clock falls back to wall time.
func NewService(repo Repository, clock Clock) Service {
	if clock == nil {
		clock = systemClock{}
	}
	return &service{repo: repo, clock: clock}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (s *service) Get(ctx context.Context, accountID string) (*Account, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, ErrMissingAccountID
	}
	return s.repo.Get(ctx, accountID)
}

func (s *service) Status(ctx context.Context, accountID string) (*StatusResponse, error) {
	acct, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	earned := make(map[string]time.Time, len(acct.Badges))
	for _, b := range acct.Badges {
		earned[b.ID] = b.EarnedAt
	}

	all := badge.Statuses(acct.TicketsPurchased, acct.EventsAttended, earned)
	resp := &StatusResponse{
		Badges:       all,
		EarnedBadges: make([]badge.Status, 0, len(all)),
		LockedBadges: make([]badge.Status, 0, len(all)),
	}
	for _, st := range all {
		if st.Earned {
			resp.EarnedBadges = append(resp.EarnedBadges, st)
		} else {
			resp.LockedBadges = append(resp.LockedBadges, st)
		}
	}

	level := badge.AttendeeLevel(acct.TicketsPurchased)
	resp.Stats = StatusStats{
		TotalBadges:    len(all),
		EarnedCount:    len(resp.EarnedBadges),
		TicketCount:    acct.TicketsPurchased,
		EventsAttended: acct.EventsAttended,
		AttendeeLevel:  level,
		LevelColor:     level.Color(),
	}
	return resp, nil
}

func (s *service) RecordPurchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" {
		return nil, ErrMissingAccountID
	}
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	now := s.clock.Now().UTC()
	var awarded []badge.EarnedRecord

	acct, err := s.repo.Update(ctx, accountID, func(a *Account) error {
		awarded = nil

		before := a.TicketsPurchased
		after := before + input.Quantity
		if input.EventID != "" && !a.hasAttended(input.EventID) {
			a.AttendedEventIDs = append(a.AttendedEventIDs, input.EventID)
			a.EventsAttended++
		}

		for _, def := range badge.EvaluateNewlyEarned(before, after, a.EventsAttended, a.BadgeIDs()) {
			rec := badge.NewEarnedRecord(def, now)
			if a.addBadge(rec) {
				awarded = append(awarded, rec)
			}
		}

		a.TicketsPurchased = after
		a.AttendeeLevel = badge.AttendeeLevel(after)
		a.TotalSpent += input.Spent
		if a.WalletAddress == "" {
			a.WalletAddress = strings.TrimSpace(input.WalletAddress)
		}
		touch(a, now)
		a.LastActive = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	if awarded == nil {
		awarded = []badge.EarnedRecord{}
	}
	return &PurchaseResult{
		NewBadges: awarded,
		Stats: PurchaseStats{
			TicketsPurchased: acct.TicketsPurchased,
			EventsAttended:   acct.EventsAttended,
			TotalBadges:      len(acct.Badges),
			AttendeeLevel:    acct.AttendeeLevel,
		},
	}, nil
}

func (s *service) AwardSpecial(ctx context.Context, accountID, badgeID string) (*badge.EarnedRecord, error) {
	accountID = strings.TrimSpace(accountID)
	badgeID = strings.TrimSpace(badgeID)
	if accountID == "" {
		return nil, ErrMissingAccountID
	}
	if badgeID == "" {
		return nil, ErrMissingBadgeID
	}

	now := s.clock.Now().UTC()
	var rec badge.EarnedRecord
	_, err := s.repo.Update(ctx, accountID, func(a *Account) error {
		def, err := badge.AwardSpecial(badgeID, a.BadgeIDs())
		if err != nil {
			return err
		}
		rec = badge.NewEarnedRecord(def, now)
		a.addBadge(rec)
		touch(a, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func touch(a *Account, now time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
}
