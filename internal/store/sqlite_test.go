package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Rahat-ch/moltymingle/internal/identity"
	"github.com/Rahat-ch/moltymingle/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func createTestAgent(t *testing.T, s *SQLiteStore, name string) *models.Agent {
	t.Helper()
	key, err := identity.GenerateAPIKey()
	if err != nil {
		t.Fatal(err)
	}
	agent, err := s.CreateAgent(context.Background(), CreateAgentParams{
		ID:            uuid.New(),
		APIKeyHash:    identity.HashAPIKey(key),
		Name:          name,
		Slug:          identity.Slugify(name),
		Description:   "An agent used in tests, at least ten chars.",
		PersonaBio:    "Test persona bio.",
		PersonaTraits: []string{"friendly", "curious"},
	})
	if err != nil {
		t.Fatalf("create agent %q: %v", name, err)
	}
	return agent
}

func TestCreateAndLookupAgent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	key, _ := identity.GenerateAPIKey()
	hash := identity.HashAPIKey(key)
	created, err := s.CreateAgent(ctx, CreateAgentParams{
		ID:            uuid.New(),
		APIKeyHash:    hash,
		Name:          "Aria",
		Slug:          "aria",
		Description:   "I sort things",
		PersonaTraits: []string{"tidy", "driven"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !created.IsActive {
		t.Error("new agents should be active")
	}
	if len(created.PersonaTraits) != 2 || created.PersonaTraits[0] != "tidy" {
		t.Errorf("traits round-trip failed: %v", created.PersonaTraits)
	}

	byHash, err := s.GetAgentByAPIKeyHash(ctx, hash)
	if err != nil {
		t.Fatal(err)
	}
	if byHash == nil || byHash.ID != created.ID {
		t.Fatal("hash lookup should return the created agent")
	}

	missing, err := s.GetAgentByAPIKeyHash(ctx, identity.HashAPIKey("mm_live_wrong"))
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatal("unknown hash should return nil agent")
	}

	bySlug, err := s.GetAgentBySlug(ctx, "aria")
	if err != nil {
		t.Fatal(err)
	}
	if bySlug == nil || bySlug.ID != created.ID {
		t.Fatal("slug lookup should return the created agent")
	}
}

func TestCreateAgentSlugCollision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestAgent(t, s, "Aria")
	key, _ := identity.GenerateAPIKey()
	_, err := s.CreateAgent(ctx, CreateAgentParams{
		ID:          uuid.New(),
		APIKeyHash:  identity.HashAPIKey(key),
		Name:        "Aria",
		Slug:        "aria",
		Description: "Another Aria entirely.",
	})
	if !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}

	taken, err := s.SlugExists(ctx, "aria")
	if err != nil {
		t.Fatal(err)
	}
	if !taken {
		t.Fatal("SlugExists should report the taken slug")
	}
}

func TestRecordSwipeValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTestAgent(t, s, "Alpha")
	b := createTestAgent(t, s, "Beta")

	if _, _, err := s.RecordSwipe(ctx, a.ID, a.ID, models.SwipeRight, nil); !errors.Is(err, ErrSelfSwipe) {
		t.Fatalf("self swipe: expected ErrSelfSwipe, got %v", err)
	}
	if _, _, err := s.RecordSwipe(ctx, a.ID, uuid.New(), models.SwipeRight, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown target: expected ErrNotFound, got %v", err)
	}

	if _, _, err := s.RecordSwipe(ctx, a.ID, b.ID, models.SwipeLeft, nil); err != nil {
		t.Fatal(err)
	}
	// A repeat swipe on the same target is an error, not a no-op.
	_, _, err := s.RecordSwipe(ctx, a.ID, b.ID, models.SwipeRight, nil)
	if !errors.Is(err, ErrDuplicateSwipe) {
		t.Fatalf("expected ErrDuplicateSwipe, got %v", err)
	}
}

func TestRecordSwipeUpdatesCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTestAgent(t, s, "Alpha")
	b := createTestAgent(t, s, "Beta")

	caption := "nice vector embeddings"
	swipe, match, err := s.RecordSwipe(ctx, a.ID, b.ID, models.SwipeRight, &caption)
	if err != nil {
		t.Fatal(err)
	}
	if match != nil {
		t.Fatal("one-sided right swipe must not match")
	}
	if swipe.Caption == nil || *swipe.Caption != caption {
		t.Error("caption not recorded")
	}

	a2, _ := s.GetAgentByID(ctx, a.ID)
	b2, _ := s.GetAgentByID(ctx, b.ID)
	if a2.SwipesGivenRight != 1 || a2.SwipesGivenLeft != 0 {
		t.Errorf("swiper counters wrong: %+v", a2)
	}
	if b2.SwipesReceivedRight != 1 || b2.SwipesReceivedLeft != 0 {
		t.Errorf("swiped counters wrong: %+v", b2)
	}

	if _, _, err := s.RecordSwipe(ctx, b.ID, a.ID, models.SwipeLeft, nil); err != nil {
		t.Fatal(err)
	}
	a3, _ := s.GetAgentByID(ctx, a.ID)
	if a3.SwipesReceivedLeft != 1 {
		t.Errorf("left swipe not counted: %+v", a3)
	}
}

func TestMutualRightSwipesCreateExactlyOneMatch(t *testing.T) {
	for _, order := range []string{"a-first", "b-first"} {
		t.Run(order, func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()
			a := createTestAgent(t, s, "Alpha")
			b := createTestAgent(t, s, "Beta")

			base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
			s.now = func() time.Time { return base }

			first, second := a, b
			if order == "b-first" {
				first, second = b, a
			}

			_, m1, err := s.RecordSwipe(ctx, first.ID, second.ID, models.SwipeRight, nil)
			if err != nil {
				t.Fatal(err)
			}
			if m1 != nil {
				t.Fatal("first swipe must not match")
			}

			s.now = func() time.Time { return base.Add(time.Minute) }
			_, m2, err := s.RecordSwipe(ctx, second.ID, first.ID, models.SwipeRight, nil)
			if err != nil {
				t.Fatal(err)
			}
			if m2 == nil {
				t.Fatal("reciprocal right swipe must match")
			}
			if !m2.SwipedFirst(first.ID) {
				t.Error("the earlier swiper should be recorded as having swiped first")
			}
			if m2.SwipedFirst(second.ID) {
				t.Error("the later swiper must not be recorded as first")
			}

			for _, ag := range []*models.Agent{a, b} {
				got, _ := s.GetAgentByID(ctx, ag.ID)
				if got.MatchesCount != 1 {
					t.Errorf("agent %s matches_count = %d, want 1", got.Name, got.MatchesCount)
				}
				matches, err := s.ListMatches(ctx, ag.ID, nil)
				if err != nil {
					t.Fatal(err)
				}
				if len(matches) != 1 {
					t.Fatalf("agent %s sees %d matches, want 1", got.Name, len(matches))
				}
			}
		})
	}
}

func TestMatchPairIsNormalized(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTestAgent(t, s, "Alpha")
	b := createTestAgent(t, s, "Beta")

	s.RecordSwipe(ctx, a.ID, b.ID, models.SwipeRight, nil)
	_, m, err := s.RecordSwipe(ctx, b.ID, a.ID, models.SwipeRight, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.Agent1ID.String() >= m.Agent2ID.String() {
		t.Errorf("pair not normalized: %s >= %s", m.Agent1ID, m.Agent2ID)
	}
}

func TestLeftSwipeNeverMatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTestAgent(t, s, "Alpha")
	b := createTestAgent(t, s, "Beta")

	s.RecordSwipe(ctx, a.ID, b.ID, models.SwipeRight, nil)
	_, m, err := s.RecordSwipe(ctx, b.ID, a.ID, models.SwipeLeft, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Fatal("left swipe should not create a match")
	}
}

func TestCheckAndConsumeCeilingAndReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTestAgent(t, s, "Alpha")

	base := time.Date(2026, 8, 28, 18, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	const ceiling = 3
	for i := 0; i < ceiling; i++ {
		res, err := s.CheckAndConsume(ctx, a.ID, models.LimitTypeSwipesDaily, ceiling)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
		if want := ceiling - i - 1; res.Remaining != want {
			t.Errorf("attempt %d remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}

	// The (ceiling+1)-th attempt in the same window is refused.
	res, err := s.CheckAndConsume(ctx, a.ID, models.LimitTypeSwipesDaily, ceiling)
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("over-ceiling attempt should be refused")
	}
	if res.Remaining != 0 {
		t.Errorf("refused attempt remaining = %d, want 0", res.Remaining)
	}
	wantReset := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	if !res.ResetAt.Equal(wantReset) {
		t.Errorf("reset_at = %v, want %v", res.ResetAt, wantReset)
	}

	// The first attempt after the reset instant starts a fresh counter.
	s.now = func() time.Time { return wantReset.Add(time.Second) }
	res, err = s.CheckAndConsume(ctx, a.ID, models.LimitTypeSwipesDaily, ceiling)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed {
		t.Fatal("attempt after reset should be allowed")
	}
	if res.Remaining != ceiling-1 {
		t.Errorf("fresh window remaining = %d, want %d", res.Remaining, ceiling-1)
	}
	if !res.ResetAt.Equal(wantReset.AddDate(0, 0, 1)) {
		t.Errorf("fresh window reset_at = %v", res.ResetAt)
	}
}

func TestDiscoverExcludesSelfAndSwiped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	me := createTestAgent(t, s, "Me")
	var others []*models.Agent
	for i := 0; i < 5; i++ {
		others = append(others, createTestAgent(t, s, fmt.Sprintf("Agent %d", i)))
	}

	for i := 0; i < 3; i++ {
		if _, _, err := s.RecordSwipe(ctx, me.ID, others[i].ID, models.SwipeLeft, nil); err != nil {
			t.Fatal(err)
		}
	}

	profiles, err := s.Discover(ctx, me.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 discoverable agents, got %d", len(profiles))
	}
	seen := make(map[uuid.UUID]bool)
	for _, p := range profiles {
		if p.ID == me.ID {
			t.Error("discover must exclude the requester")
		}
		for i := 0; i < 3; i++ {
			if p.ID == others[i].ID {
				t.Errorf("discover returned already-swiped agent %s", p.Name)
			}
		}
		if seen[p.ID] {
			t.Errorf("duplicate profile %s", p.Name)
		}
		seen[p.ID] = true
	}
}

func TestDiscoverRespectsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	me := createTestAgent(t, s, "Me")
	for i := 0; i < 6; i++ {
		createTestAgent(t, s, fmt.Sprintf("Agent %d", i))
	}

	profiles, err := s.Discover(ctx, me.ID, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 4 {
		t.Fatalf("expected 4 profiles, got %d", len(profiles))
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	popular := createTestAgent(t, s, "Popular")
	middling := createTestAgent(t, s, "Middling")
	unlucky := createTestAgent(t, s, "Unlucky")
	voterA := createTestAgent(t, s, "Voter A")
	voterB := createTestAgent(t, s, "Voter B")

	// popular: +2 right. middling: +1 right. unlucky: -1 (one left).
	s.RecordSwipe(ctx, voterA.ID, popular.ID, models.SwipeRight, nil)
	s.RecordSwipe(ctx, voterB.ID, popular.ID, models.SwipeRight, nil)
	s.RecordSwipe(ctx, voterA.ID, middling.ID, models.SwipeRight, nil)
	s.RecordSwipe(ctx, voterA.ID, unlucky.ID, models.SwipeLeft, nil)

	entries, err := s.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	if entries[0].Slug != popular.Slug || entries[0].Score != 2 {
		t.Errorf("rank 1 = %s (score %d), want popular (2)", entries[0].Slug, entries[0].Score)
	}
	if entries[1].Slug != middling.Slug {
		t.Errorf("rank 2 = %s, want middling", entries[1].Slug)
	}
	if last := entries[len(entries)-1]; last.Slug != unlucky.Slug || last.Score != -1 {
		t.Errorf("last = %s (score %d), want unlucky (-1)", last.Slug, last.Score)
	}
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Errorf("entry %d rank = %d", i, e.Rank)
		}
	}
}

func TestListSwipesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	me := createTestAgent(t, s, "Me")
	first := createTestAgent(t, s, "First")
	second := createTestAgent(t, s, "Second")

	base := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	s.RecordSwipe(ctx, me.ID, first.ID, models.SwipeLeft, nil)
	s.now = func() time.Time { return base.Add(time.Minute) }
	s.RecordSwipe(ctx, me.ID, second.ID, models.SwipeRight, nil)

	history, err := s.ListSwipesByAgent(ctx, me.ID, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 swipes, got %d", len(history))
	}
	if history[0].SwipedAgent.ID != second.ID {
		t.Error("history should be newest-first")
	}
	if history[0].Direction != models.SwipeRight || history[1].Direction != models.SwipeLeft {
		t.Error("directions out of order")
	}
}

func TestListMatchesSince(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	me := createTestAgent(t, s, "Me")
	old := createTestAgent(t, s, "Old Flame")
	fresh := createTestAgent(t, s, "New Spark")

	base := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	s.RecordSwipe(ctx, me.ID, old.ID, models.SwipeRight, nil)
	s.RecordSwipe(ctx, old.ID, me.ID, models.SwipeRight, nil)

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	s.RecordSwipe(ctx, me.ID, fresh.ID, models.SwipeRight, nil)
	s.RecordSwipe(ctx, fresh.ID, me.ID, models.SwipeRight, nil)

	all, err := s.ListMatches(ctx, me.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(all))
	}
	if !all[0].MatchedAt.After(all[1].MatchedAt) {
		t.Error("matches should be newest-first")
	}

	since := base.Add(time.Hour)
	recent, err := s.ListMatches(ctx, me.ID, &since)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 match after since, got %d", len(recent))
	}
}

func TestUpsertSeedAgentIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := CreateAgentParams{
		ID:          uuid.New(),
		APIKeyHash:  identity.HashAPIKey("mm_live_seed"),
		Name:        "Seed Agent",
		Slug:        "seed-agent",
		Description: "Deterministic seed profile.",
	}
	if err := s.UpsertSeedAgent(ctx, p); err != nil {
		t.Fatal(err)
	}
	p.ID = uuid.New()
	p.APIKeyHash = identity.HashAPIKey("mm_live_seed_2")
	if err := s.UpsertSeedAgent(ctx, p); err != nil {
		t.Fatal(err)
	}

	n, err := s.CountAgents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 agent after repeat seed, got %d", n)
	}
}

func TestUpdateDescription(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTestAgent(t, s, "Alpha")

	updated, err := s.UpdateDescription(ctx, a.ID, "Now with a fresh outlook on sorting.")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Description != "Now with a fresh outlook on sorting." {
		t.Errorf("description = %q", updated.Description)
	}

	if _, err := s.UpdateDescription(ctx, uuid.New(), "whatever works"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
