package badge

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestCatalog_UniqueIDsAndPositiveThresholds(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range Catalog() {
		if seen[def.ID] {
			t.Fatalf("duplicate badge id %q", def.ID)
		}
		seen[def.ID] = true

		if !def.Rarity.Valid() {
			t.Errorf("%s: invalid rarity %q", def.ID, def.Rarity)
		}
		switch def.Criteria.Kind {
		case CriteriaTicketsPurchased, CriteriaEventsAttended:
			if def.Criteria.Threshold <= 0 {
				t.Errorf("%s: threshold must be positive, got %d", def.ID, def.Criteria.Threshold)
			}
		case CriteriaSpecial:
			if def.Criteria.Threshold != 0 {
				t.Errorf("%s: special badges carry no threshold", def.ID)
			}
		default:
			t.Errorf("%s: unknown criteria kind %q", def.ID, def.Criteria.Kind)
		}
	}
}

func TestCatalog_ReturnsCopy(t *testing.T) {
	defs := Catalog()
	defs[0].Name = "mutated"
	if Catalog()[0].Name == "mutated" {
		t.Fatal("Catalog must not expose the shared table")
	}
}

func TestEvaluateNewlyEarned_FirstPurchase(t *testing.T) {
	got := EvaluateNewlyEarned(0, 1, 0, nil)
	if !hasBadge(got, "first_ticket") {
		t.Error("should earn first_ticket crossing 0 -> 1")
	}
	if hasBadge(got, "bronze_collector") {
		t.Error("should not earn bronze_collector at 1 ticket")
	}
	if len(got) != 1 {
		t.Errorf("expected exactly one badge, got %d", len(got))
	}
}

func TestEvaluateNewlyEarned_NoReawardAfterThresholdPassed(t *testing.T) {
	got := EvaluateNewlyEarned(5, 6, 0, NewIDSet())
	if hasBadge(got, "first_ticket") || hasBadge(got, "bronze_collector") {
		t.Errorf("thresholds already passed before the call must not be returned, got %v", ids(got))
	}
}

func TestEvaluateNewlyEarned_MultiTicketPurchaseCrossesSeveral(t *testing.T) {
	got := EvaluateNewlyEarned(2, 12, 0, nil)
	want := []string{"bronze_collector", "silver_collector"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}
}

func TestEvaluateNewlyEarned_ExactThreshold(t *testing.T) {
	got := EvaluateNewlyEarned(24, 25, 0, nil)
	if !hasBadge(got, "gold_collector") {
		t.Error("reaching exactly 25 should earn gold_collector")
	}
}

func TestEvaluateNewlyEarned_SkipsExisting(t *testing.T) {
	got := EvaluateNewlyEarned(0, 1, 0, NewIDSet("first_ticket"))
	if len(got) != 0 {
		t.Fatalf("expected nothing new, got %v", ids(got))
	}
}

func TestEvaluateNewlyEarned_EventsUseTotalOnly(t *testing.T) {
	got := EvaluateNewlyEarned(10, 11, 5, nil)
	if !hasBadge(got, "event_explorer") {
		t.Error("5 attended events should yield event_explorer")
	}

	// No "before" attendance value: a stale existing set re-suggests the badge.
	again := EvaluateNewlyEarned(11, 12, 5, nil)
	if !hasBadge(again, "event_explorer") {
		t.Error("attendance badges are re-suggested until the caller records them")
	}

	deduped := EvaluateNewlyEarned(11, 12, 5, NewIDSet("event_explorer"))
	if hasBadge(deduped, "event_explorer") {
		t.Error("existing set must suppress the attendance badge")
	}
}

func TestEvaluateNewlyEarned_NeverReturnsSpecial(t *testing.T) {
	got := EvaluateNewlyEarned(0, 1000, 1000, nil)
	if hasBadge(got, "early_adopter") {
		t.Fatal("special badges are manual-award only")
	}
}

func TestEvaluateNewlyEarned_CatalogOrder(t *testing.T) {
	got := EvaluateNewlyEarned(0, 50, 10, nil)
	want := []string{
		"first_ticket", "bronze_collector", "silver_collector", "gold_collector",
		"platinum_member", "event_explorer", "social_butterfly",
	}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}
}

func TestEarnedBadges_Idempotent(t *testing.T) {
	special := NewIDSet("early_adopter")
	first := EarnedBadges(12, 6, special)
	second := EarnedBadges(12, 6, special)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated calls differ: %v vs %v", ids(first), ids(second))
	}
	if !hasBadge(first, "early_adopter") {
		t.Error("special ids should be reported as earned")
	}
}

func TestEarnedBadges_Monotonic(t *testing.T) {
	for tickets := 0; tickets <= 60; tickets += 3 {
		for events := 0; events <= 12; events += 2 {
			lower := EarnedBadges(tickets, events, nil)
			higher := EarnedBadges(tickets+4, events+1, nil)
			for _, b := range lower {
				if !hasBadge(higher, b.ID) {
					t.Fatalf("%s earned at (%d,%d) but lost at (%d,%d)", b.ID, tickets, events, tickets+4, events+1)
				}
			}
		}
	}
}

func TestEarnedBadges_SpecialRequiresGrant(t *testing.T) {
	if hasBadge(EarnedBadges(1000, 1000, nil), "early_adopter") {
		t.Fatal("special badge must not be derived from totals")
	}
}

func TestProgress(t *testing.T) {
	gold, _ := Lookup("gold_collector")
	explorer, _ := Lookup("event_explorer")
	early, _ := Lookup("early_adopter")

	tests := []struct {
		name    string
		tickets int
		events  int
		def     Definition
		earned  bool
		want    int
	}{
		{"at threshold", 25, 0, gold, false, 100},
		{"one short", 24, 0, gold, false, 96},
		{"beyond threshold clamps", 80, 0, gold, false, 100},
		{"zero", 0, 0, gold, false, 0},
		{"no attendance", 0, 0, explorer, false, 0},
		{"events use attendance", 100, 2, explorer, false, 40},
		{"special locked", 10, 10, early, false, 0},
		{"special earned", 0, 0, early, true, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Progress(tt.tickets, tt.events, tt.def, tt.earned); got != tt.want {
				t.Fatalf("Progress = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProgress_Rounding(t *testing.T) {
	bronze, _ := Lookup("bronze_collector")
	if got := Progress(1, 0, bronze, false); got != 33 {
		t.Fatalf("1/3 should round to 33, got %d", got)
	}
	if got := Progress(2, 0, bronze, false); got != 67 {
		t.Fatalf("2/3 should round to 67, got %d", got)
	}
}

func TestAwardSpecial(t *testing.T) {
	def, err := AwardSpecial("early_adopter", NewIDSet())
	if err != nil {
		t.Fatalf("first award failed: %v", err)
	}
	if def.ID != "early_adopter" {
		t.Fatalf("unexpected badge %q", def.ID)
	}

	if _, err := AwardSpecial("early_adopter", NewIDSet("early_adopter")); !errors.Is(err, ErrAlreadyEarned) {
		t.Fatalf("expected ErrAlreadyEarned, got %v", err)
	}
	if _, err := AwardSpecial("not_a_real_id", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAwardSpecial_AllowsThresholdOverride(t *testing.T) {
	if _, err := AwardSpecial("gold_collector", nil); err != nil {
		t.Fatalf("admin override of a threshold badge should succeed: %v", err)
	}
}

func TestRarityColor_Total(t *testing.T) {
	for _, r := range []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
		if RarityColor(r) == "" {
			t.Errorf("%s has no color", r)
		}
	}
	if Rarity("mythic").Valid() {
		t.Error("unknown rarity must not be valid")
	}
	if RarityColor("mythic") != "" {
		t.Error("unknown rarity must have no color")
	}
}

func TestStatuses(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := Statuses(2, 0, map[string]time.Time{"first_ticket": at})

	if len(got) != len(Catalog()) {
		t.Fatalf("expected one status per badge, got %d", len(got))
	}
	first := got[0]
	if !first.Earned || first.EarnedAt == nil || !first.EarnedAt.Equal(at) {
		t.Fatalf("first_ticket should be earned at %v: %+v", at, first)
	}
	if first.Color != "#94a3b8" {
		t.Fatalf("unexpected color %q", first.Color)
	}
	bronze := got[1]
	if bronze.Earned || bronze.EarnedAt != nil {
		t.Fatalf("bronze_collector should be locked: %+v", bronze)
	}
	if bronze.Progress != 67 {
		t.Fatalf("expected 67%% progress, got %d", bronze.Progress)
	}
}

func TestNewEarnedRecord(t *testing.T) {
	def, _ := Lookup("silver_collector")
	at := time.Unix(1700000000, 0).UTC()
	rec := NewEarnedRecord(def, at)
	if rec.ID != def.ID || rec.ImageURL != def.Emoji || rec.Rarity != def.Rarity || !rec.EarnedAt.Equal(at) {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func hasBadge(badges []Definition, id string) bool {
	for _, b := range badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

func ids(badges []Definition) []string {
	out := make([]string, 0, len(badges))
	for _, b := range badges {
		out = append(out, b.ID)
	}
	return out
}
