package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Rahat-ch/moltymingle/internal/models"
)

// Sentinel errors for business-rule violations surfaced by the store.
// The unique constraints on swipes(swiper_id, swiped_id), matches
// (agent1_id, agent2_id) and agents(slug) are the authoritative guards;
// these errors translate constraint violations for the caller.
var (
	ErrSelfSwipe      = errors.New("agent cannot swipe on itself")
	ErrDuplicateSwipe = errors.New("already swiped on this agent")
	ErrSlugTaken      = errors.New("slug already taken")
	ErrNotFound       = errors.New("not found")
)

// CreateAgentParams carries everything needed to insert a new agent.
type CreateAgentParams struct {
	ID            uuid.UUID
	APIKeyHash    string
	Name          string
	Slug          string
	Description   string
	PersonaBio    string
	PersonaTraits []string
	AvatarURL     *string
	AvatarPrompt  *string
}

// LeaderboardEntry is one ranked row of the public leaderboard.
type LeaderboardEntry struct {
	Rank                int     `json:"rank"`
	Name                string  `json:"name"`
	Slug                string  `json:"slug"`
	AvatarURL           *string `json:"avatar_url"`
	Score               int     `json:"score"`
	MatchesCount        int     `json:"matches_count"`
	SwipesReceivedRight int     `json:"swipes_received_right"`
	SwipesReceivedLeft  int     `json:"-"`
}

// DataStore is the persistence interface for agents, swipes, matches
// and rate limit counters. PostgresStore and SQLiteStore implement it.
// All mutating operations that touch more than one row run inside a
// single storage transaction; invariants are enforced by storage-layer
// constraints, not in-process locks.
type DataStore interface {
	Close()
	Ping(ctx context.Context) error

	// Identity & credential operations
	CreateAgent(ctx context.Context, p CreateAgentParams) (*models.Agent, error)
	GetAgentByID(ctx context.Context, id uuid.UUID) (*models.Agent, error)
	GetAgentByAPIKeyHash(ctx context.Context, hash string) (*models.Agent, error)
	GetAgentBySlug(ctx context.Context, slug string) (*models.Agent, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	UpdateDescription(ctx context.Context, id uuid.UUID, description string) (*models.Agent, error)
	UpdatePersona(ctx context.Context, id uuid.UUID, bio string, traits []string, avatarPrompt string) error
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error
	TouchLastActive(ctx context.Context, id uuid.UUID) error
	CountAgents(ctx context.Context) (int64, error)
	ListPublicAgents(ctx context.Context, limit, offset int) ([]models.AgentPublic, int64, error)
	// UpsertSeedAgent inserts a seed agent, silently skipping rows whose
	// slug already exists (explicit ignore-on-conflict for seed data).
	UpsertSeedAgent(ctx context.Context, p CreateAgentParams) error

	// Swipe ledger & match detector. RecordSwipe runs the duplicate
	// check, the insert, both counter updates and (for right swipes)
	// match detection in one transaction.
	RecordSwipe(ctx context.Context, swiperID, swipedID uuid.UUID, direction models.SwipeDirection, caption *string) (*models.Swipe, *models.Match, error)
	ListSwipesByAgent(ctx context.Context, agentID uuid.UUID, limit int) ([]models.SwipeWithAgent, error)
	ListMatches(ctx context.Context, agentID uuid.UUID, since *time.Time) ([]models.MatchWithAgents, error)

	// Discovery & leaderboard
	Discover(ctx context.Context, agentID uuid.UUID, limit int) ([]models.AgentPublic, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// Rate limiter: a single atomic read-modify-write per call.
	CheckAndConsume(ctx context.Context, agentID uuid.UUID, limitType string, ceiling int) (models.RateLimitResult, error)
}
