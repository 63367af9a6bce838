// Package leveling contains the pure leveling calculator: XP thresholds per
// level, progress percentages, and title/rank derivation. Everything here is
// deterministic and side-effect free; the engine owns all state changes.
package leveling

// XPThreshold returns the XP required to advance from level to level+1.
//
// The curve is piecewise linear with a steeper multiplier at each tier.
// The breakpoints and multipliers are load-bearing: persisted records were
// written against this exact curve.
func XPThreshold(level int) int {
	if level < 1 {
		level = 1
	}
	switch {
	case level < 10:
		return level * 100
	case level < 20:
		return level * 120
	case level < 30:
		return level * 150
	case level < 40:
		return level * 200
	default:
		return level * 250
	}
}

// LevelProgressPercent returns the percentage of the way from level to
// level+1 that xp represents, floored and clamped to [0, 100].
func LevelProgressPercent(xp, level int) int {
	if xp <= 0 {
		return 0
	}
	pct := xp * 100 / XPThreshold(level)
	if pct > 100 {
		return 100
	}
	return pct
}

// TotalXPForLevel returns the cumulative XP required to reach the target
// level from level 1, i.e. the sum of XPThreshold(i) for i in [1, target).
func TotalXPForLevel(target int) int {
	total := 0
	for i := 1; i < target; i++ {
		total += XPThreshold(i)
	}
	return total
}

// tier is one row of the rank/title table. Tiers are ordered by MinLevel;
// TitleForLevel and RankForLevel are monotone in level by construction.
type tier struct {
	MinLevel int
	Code     string
	Title    string
	Color    string
}

var tiers = []tier{
	{1, "F", "Novice Hunter", "#9CA3AF"},
	{5, "E", "E-Rank Hunter", "#A3E635"},
	{10, "D", "D-Rank Hunter", "#4ADE80"},
	{15, "C", "C-Rank Hunter", "#22D3EE"},
	{20, "B", "B-Rank Hunter", "#60A5FA"},
	{25, "A", "A-Rank Hunter", "#818CF8"},
	{30, "S", "S-Rank Hunter", "#C084FC"},
	{40, "National", "National Level Hunter", "#F472B6"},
	{50, "Monarch", "Shadow Monarch", "#FB923C"},
	{75, "Ruler", "Ruler", "#FACC15"},
	{100, "God", "God of Destruction", "#F87171"},
}

// Rank describes the tier a level falls into plus the distance to the next one.
type Rank struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	Color string `json:"color"`

	// NextCode is the letter code of the next tier, empty at the top tier.
	NextCode string `json:"next_code,omitempty"`

	// XPToNextRank is the cumulative XP between the start of the current
	// level and the first level of the next tier. Zero at the top tier.
	XPToNextRank int `json:"xp_to_next_rank"`
}

// tierIndex returns the index into tiers for the given level.
func tierIndex(level int) int {
	if level < 1 {
		level = 1
	}
	idx := 0
	for i, t := range tiers {
		if level >= t.MinLevel {
			idx = i
		}
	}
	return idx
}

// TitleForLevel maps a level to its tier title. Higher levels never map to
// an earlier-tier title.
func TitleForLevel(level int) string {
	return tiers[tierIndex(level)].Title
}

// TitleTierIndex returns the ordinal of the tier the title belongs to, or -1
// for titles outside the tier table. Used to compare title seniority.
func TitleTierIndex(title string) int {
	for i, t := range tiers {
		if t.Title == title {
			return i
		}
	}
	return -1
}

// RankForLevel derives the letter rank for a level, including the cumulative
// XP distance to the first level of the next tier.
func RankForLevel(level int) Rank {
	if level < 1 {
		level = 1
	}
	idx := tierIndex(level)
	r := Rank{
		Code:  tiers[idx].Code,
		Title: tiers[idx].Title,
		Color: tiers[idx].Color,
	}
	if idx+1 < len(tiers) {
		next := tiers[idx+1]
		r.NextCode = next.Code
		r.XPToNextRank = TotalXPForLevel(next.MinLevel) - TotalXPForLevel(level)
	}
	return r
}
