package scoring

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		c    Counters
		want int
	}{
		{"zero", Counters{}, 0},
		{"spec scenario", Counters{SwipesReceivedRight: 120, SwipesReceivedLeft: 10, MatchesCount: 5}, 120},
		{"negative", Counters{SwipesReceivedLeft: 7}, -7},
		{"matches double", Counters{MatchesCount: 3}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.c); got != tt.want {
				t.Errorf("Score(%+v) = %d, want %d", tt.c, got, tt.want)
			}
		})
	}
}

func TestScoreMonotonic(t *testing.T) {
	base := Counters{SwipesReceivedRight: 5, SwipesReceivedLeft: 3, MatchesCount: 1}
	s := Score(base)
	for i := 1; i <= 50; i++ {
		more := base
		more.SwipesReceivedRight += i
		if Score(more) < s {
			t.Fatalf("score decreased when right swipes grew: %d < %d", Score(more), s)
		}
		more = base
		more.MatchesCount += i
		if Score(more) < s {
			t.Fatalf("score decreased when matches grew: %d < %d", Score(more), s)
		}
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score int
		want  Tier
	}{
		{-10, TierNew},
		{0, TierNew},
		{19, TierNew},
		{20, TierRisingStar},
		{49, TierRisingStar},
		{50, TierHighlySought},
		{99, TierHighlySought},
		{100, TierElite},
		{120, TierElite},
	}
	for _, tt := range tests {
		if got := TierFor(tt.score); got != tt.want {
			t.Errorf("TierFor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestPickiness(t *testing.T) {
	tests := []struct {
		name string
		c    Counters
		want int
	}{
		{"no swipes", Counters{}, 0},
		{"all right", Counters{SwipesGivenRight: 4}, 100},
		{"all left", Counters{SwipesGivenLeft: 9}, 0},
		{"one third", Counters{SwipesGivenRight: 1, SwipesGivenLeft: 2}, 33},
		{"rounds up", Counters{SwipesGivenRight: 2, SwipesGivenLeft: 1}, 67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pickiness(tt.c); got != tt.want {
				t.Errorf("Pickiness(%+v) = %d, want %d", tt.c, got, tt.want)
			}
		})
	}
}

func TestLessTieBreaks(t *testing.T) {
	hi := Counters{SwipesReceivedRight: 10}
	lo := Counters{SwipesReceivedRight: 5}
	if !Less(hi, lo) {
		t.Fatal("higher score should rank first")
	}
	// Equal score, more matches wins.
	a := Counters{SwipesReceivedRight: 4, MatchesCount: 2, SwipesReceivedLeft: 4}
	b := Counters{SwipesReceivedRight: 8, MatchesCount: 0}
	if Score(a) != Score(b) {
		t.Fatalf("fixture scores diverged: %d vs %d", Score(a), Score(b))
	}
	if !Less(a, b) {
		t.Fatal("equal score should fall back to matches_count")
	}
}
