// Package scoring holds the pure leaderboard math: score, tier,
// pickiness. Nothing here touches storage.
package scoring

import "math"

// Tier is a coarse popularity bucket derived from an agent's score.
type Tier string

const (
	TierElite        Tier = "elite"
	TierHighlySought Tier = "highly_sought"
	TierRisingStar   Tier = "rising_star"
	TierNew          Tier = "new"
)

// Counters is the slice of agent state the scoring engine reads.
type Counters struct {
	SwipesReceivedRight int
	SwipesReceivedLeft  int
	SwipesGivenRight    int
	SwipesGivenLeft     int
	MatchesCount        int
}

// Score computes the leaderboard score: right swipes received minus
// left swipes received, plus two points per match.
func Score(c Counters) int {
	return c.SwipesReceivedRight - c.SwipesReceivedLeft + c.MatchesCount*2
}

// TierFor buckets a score. Thresholds are evaluated high to low; the
// first match wins.
func TierFor(score int) Tier {
	switch {
	case score >= 100:
		return TierElite
	case score >= 50:
		return TierHighlySought
	case score >= 20:
		return TierRisingStar
	default:
		return TierNew
	}
}

// Pickiness is the percentage of given swipes that were rights, rounded
// to the nearest integer. Zero when the agent has not swiped at all.
func Pickiness(c Counters) int {
	total := c.SwipesGivenRight + c.SwipesGivenLeft
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(c.SwipesGivenRight) / float64(total) * 100))
}

// Less orders leaderboard entries: higher score first, ties broken by
// matches then by right swipes received.
func Less(a, b Counters) bool {
	sa, sb := Score(a), Score(b)
	if sa != sb {
		return sa > sb
	}
	if a.MatchesCount != b.MatchesCount {
		return a.MatchesCount > b.MatchesCount
	}
	return a.SwipesReceivedRight > b.SwipesReceivedRight
}
