package model

import "strings"

// Tier is an ordered subscription level.
type Tier string

const (
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// tierRanks задаёт порядок уровней; неизвестный уровень имеет ранг 0
var tierRanks = map[Tier]int{
	TierSilver:   1,
	TierGold:     2,
	TierPlatinum: 3,
}

// ParseTier normalizes a stored or client-supplied tier identifier.
func ParseTier(s string) Tier {
	return Tier(strings.ToLower(strings.TrimSpace(s)))
}

// Rank returns the numeric rank of the tier. Unknown tiers rank as 0.
func (t Tier) Rank() int {
	return tierRanks[ParseTier(string(t))]
}

// Meets reports whether t is at least the required tier.
func (t Tier) Meets(required Tier) bool {
	return t.Rank() >= required.Rank()
}

// IsKnown reports whether the tier is part of the hierarchy.
func (t Tier) IsKnown() bool {
	return t.Rank() > 0
}

// MaxTier returns the higher-ranked of two tiers.
func MaxTier(a, b Tier) Tier {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
