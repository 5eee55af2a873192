package badge

// Level is the attendee tier derived from lifetime ticket purchases.
type Level string

const (
	LevelNewcomer Level = "Newcomer"
	LevelBronze   Level = "Bronze"
	LevelSilver   Level = "Silver"
	LevelGold     Level = "Gold"
	LevelPlatinum Level = "Platinum"
)

// AttendeeLevel returns the tier for a ticket count.
func AttendeeLevel(tickets int) Level {
	switch {
	case tickets >= 50:
		return LevelPlatinum
	case tickets >= 25:
		return LevelGold
	case tickets >= 10:
		return LevelSilver
	case tickets >= 3:
		return LevelBronze
	default:
		return LevelNewcomer
	}
}

// Color is the display color of the tier.
func (l Level) Color() string {
	switch l {
	case LevelBronze:
		return "#cd7f32"
	case LevelSilver:
		return "#c0c0c0"
	case LevelGold:
		return "#ffd700"
	case LevelPlatinum:
		return "#e5e4e2"
	default:
		return "#94a3b8"
	}
}
