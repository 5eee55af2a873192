package badge

// catalog is the canonical badge list. IDs are persisted on user records, keep them stable.
var catalog = []Definition{
	{
		ID:          "first_ticket",
		Name:        "First Timer",
		Description: "Purchased your first NFT ticket",
		Emoji:       "🎫",
		Rarity:      RarityCommon,
		Criteria:    TicketsPurchased(1),
	},
	{
		ID:          "bronze_collector",
		Name:        "Bronze Collector",
		Description: "Own 3 or more tickets",
		Emoji:       "🥉",
		Rarity:      RarityCommon,
		Criteria:    TicketsPurchased(3),
	},
	{
		ID:          "silver_collector",
		Name:        "Silver Collector",
		Description: "Own 10 or more tickets",
		Emoji:       "🥈",
		Rarity:      RarityRare,
		Criteria:    TicketsPurchased(10),
	},
	{
		ID:          "gold_collector",
		Name:        "Gold Collector",
		Description: "Own 25 or more tickets",
		Emoji:       "🥇",
		Rarity:      RarityEpic,
		Criteria:    TicketsPurchased(25),
	},
	{
		ID:          "platinum_member",
		Name:        "Platinum Member",
		Description: "Own 50 or more tickets",
		Emoji:       "💎",
		Rarity:      RarityLegendary,
		Criteria:    TicketsPurchased(50),
	},
	{
		ID:          "event_explorer",
		Name:        "Event Explorer",
		Description: "Attended 5 different events",
		Emoji:       "🗺️",
		Rarity:      RarityRare,
		Criteria:    EventsAttended(5),
	},
	{
		ID:          "social_butterfly",
		Name:        "Social Butterfly",
		Description: "Attended 10 different events",
		Emoji:       "🦋",
		Rarity:      RarityEpic,
		Criteria:    EventsAttended(10),
	},
	{
		// Signup order is not tracked anywhere; this badge is granted by an admin only.
		ID:          "early_adopter",
		Name:        "Early Adopter",
		Description: "One of the first 100 users",
		Emoji:       "🌟",
		Rarity:      RarityLegendary,
		Criteria:    Special(),
	},
}

// Catalog returns a copy of every badge definition in display order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a definition by id.
func Lookup(id string) (Definition, bool) {
	for _, def := range catalog {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}
