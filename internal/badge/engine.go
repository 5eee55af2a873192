package badge

import (
	"math"
	"time"
)

// EvaluateNewlyEarned returns the badges crossed by a single purchase that
// moved the ticket count from before to after, in catalog order.
//
// Ticket badges require a strict crossing (before < threshold <= after), so a
// user who already passed a threshold is never re-suggested it. Attendance
// badges only see the post-update total: repeated calls with a stale existing
// set can suggest the same attendance badge again, and the caller must dedupe
// against its persisted set before writing. Special badges are never returned.
func EvaluateNewlyEarned(before, after, eventsAttended int, existing IDSet) []Definition {
	var earned []Definition
	for _, def := range catalog {
		if existing.Has(def.ID) {
			continue
		}

		switch def.Criteria.Kind {
		case CriteriaTicketsPurchased:
			t := def.Criteria.Threshold
			if after >= t && before < t {
				earned = append(earned, def)
			}
		case CriteriaEventsAttended:
			if eventsAttended >= def.Criteria.Threshold {
				earned = append(earned, def)
			}
		case CriteriaSpecial:
			// manual award only
		}
	}
	return earned
}

// EarnedBadges recomputes every badge satisfied by the raw totals plus any
// special badges listed in special. It ignores what has been persisted.
func EarnedBadges(tickets, eventsAttended int, special IDSet) []Definition {
	var earned []Definition
	for _, def := range catalog {
		if satisfied(def, tickets, eventsAttended, special) {
			earned = append(earned, def)
		}
	}
	return earned
}

func satisfied(def Definition, tickets, eventsAttended int, special IDSet) bool {
	switch def.Criteria.Kind {
	case CriteriaTicketsPurchased:
		return tickets >= def.Criteria.Threshold
	case CriteriaEventsAttended:
		return eventsAttended >= def.Criteria.Threshold
	case CriteriaSpecial:
		return special.Has(def.ID)
	default:
		return false
	}
}

// Progress returns completion toward def as an integer percentage in [0,100].
// Special badges have no measurable progress: 100 when earned, otherwise 0.
func Progress(tickets, eventsAttended int, def Definition, earned bool) int {
	var current int
	switch def.Criteria.Kind {
	case CriteriaTicketsPurchased:
		current = tickets
	case CriteriaEventsAttended:
		current = eventsAttended
	case CriteriaSpecial:
		if earned {
			return 100
		}
		return 0
	default:
		return 0
	}

	ratio := math.Min(float64(current)/float64(def.Criteria.Threshold), 1)
	pct := int(math.Round(ratio * 100))
	if pct < 0 {
		return 0
	}
	return pct
}

// Statuses decorates the full catalog with a user's earned state. earned maps
// persisted badge ids to their award time.
func Statuses(tickets, eventsAttended int, earned map[string]time.Time) []Status {
	out := make([]Status, 0, len(catalog))
	for _, def := range catalog {
		at, ok := earned[def.ID]
		st := Status{
			Definition: def,
			Color:      RarityColor(def.Rarity),
			Earned:     ok,
			Progress:   Progress(tickets, eventsAttended, def, ok),
		}
		if ok {
			earnedAt := at
			st.EarnedAt = &earnedAt
		}
		out = append(out, st)
	}
	return out
}

// AwardSpecial validates a manual grant. It performs no threshold checks so it
// also serves administrative overrides of threshold badges.
func AwardSpecial(id string, existing IDSet) (Definition, error) {
	def, ok := Lookup(id)
	if !ok {
		return Definition{}, ErrNotFound
	}
	if existing.Has(id) {
		return Definition{}, ErrAlreadyEarned
	}
	return def, nil
}

// RarityColor maps a rarity to its display color. Unknown values yield "".
func RarityColor(r Rarity) string {
	switch r {
	case RarityCommon:
		return "#94a3b8"
	case RarityRare:
		return "#3b82f6"
	case RarityEpic:
		return "#a855f7"
	case RarityLegendary:
		return "#f59e0b"
	default:
		return ""
	}
}
