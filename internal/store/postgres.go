package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/Rahat-ch/moltymingle/internal/models"
	"github.com/Rahat-ch/moltymingle/internal/persona"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanPgAgent(row pgx.Row) (*models.Agent, error) {
	agent := &models.Agent{}
	var traitsRaw string
	err := row.Scan(
		&agent.ID,
		&agent.APIKeyHash,
		&agent.Name,
		&agent.Slug,
		&agent.Description,
		&agent.PersonaBio,
		&traitsRaw,
		&agent.AvatarURL,
		&agent.AvatarPrompt,
		&agent.SwipesReceivedRight,
		&agent.SwipesReceivedLeft,
		&agent.SwipesGivenRight,
		&agent.SwipesGivenLeft,
		&agent.MatchesCount,
		&agent.IsActive,
		&agent.CreatedAt,
		&agent.UpdatedAt,
		&agent.LastActiveAt,
	)
	if err != nil {
		return nil, err
	}
	agent.PersonaTraits = persona.DecodeTraits(traitsRaw)
	return agent, nil
}

// CreateAgent inserts a new agent record.
func (s *PostgresStore) CreateAgent(ctx context.Context, p CreateAgentParams) (*models.Agent, error) {
	traitsRaw, err := persona.EncodeTraits(persona.CleanTraits(p.PersonaTraits))
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO agents (id, api_key_hash, name, slug, description, persona_bio, persona_traits,
			avatar_url, avatar_prompt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+agentColumns+`
	`, p.ID, p.APIKeyHash, p.Name, p.Slug, p.Description, p.PersonaBio, traitsRaw,
		p.AvatarURL, p.AvatarPrompt)

	agent, err := scanPgAgent(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return agent, nil
}

func (s *PostgresStore) getAgent(ctx context.Context, q pgQuerier, where string, arg any) (*models.Agent, error) {
	row := q.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE `+where, arg)
	agent, err := scanPgAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return agent, err
}

// GetAgentByID retrieves an agent by ID.
func (s *PostgresStore) GetAgentByID(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	return s.getAgent(ctx, s.pool, `id = $1`, id)
}

// GetAgentByAPIKeyHash retrieves an active agent by credential hash.
// This is the single indexed equality lookup behind authentication.
func (s *PostgresStore) GetAgentByAPIKeyHash(ctx context.Context, hash string) (*models.Agent, error) {
	return s.getAgent(ctx, s.pool, `api_key_hash = $1 AND is_active`, hash)
}

// GetAgentBySlug retrieves an agent by slug.
func (s *PostgresStore) GetAgentBySlug(ctx context.Context, slug string) (*models.Agent, error) {
	return s.getAgent(ctx, s.pool, `slug = $1`, slug)
}

// SlugExists reports whether any agent already owns the slug.
func (s *PostgresStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM agents WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

// UpdateDescription persists a new description and touches updated_at.
func (s *PostgresStore) UpdateDescription(ctx context.Context, id uuid.UUID, description string) (*models.Agent, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE agents SET description = $1, updated_at = now() WHERE id = $2
		RETURNING `+agentColumns+`
	`, description, id)
	agent, err := scanPgAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return agent, err
}

// UpdatePersona replaces an agent's generated persona.
func (s *PostgresStore) UpdatePersona(ctx context.Context, id uuid.UUID, bio string, traits []string, avatarPrompt string) error {
	traitsRaw, err := persona.EncodeTraits(persona.CleanTraits(traits))
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE agents SET persona_bio = $1, persona_traits = $2, avatar_prompt = $3, updated_at = now()
		WHERE id = $4
	`, bio, traitsRaw, avatarPrompt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar records a generated avatar URL.
func (s *PostgresStore) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE agents SET avatar_url = $1, updated_at = now() WHERE id = $2
	`, avatarURL, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastActive bumps last_active_at.
func (s *PostgresStore) TouchLastActive(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE agents SET last_active_at = now() WHERE id = $1
	`, id)
	return err
}

// CountAgents returns the number of active agents.
func (s *PostgresStore) CountAgents(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM agents WHERE is_active`).Scan(&n)
	return n, err
}

func scanPgPublic(row pgx.Row) (models.AgentPublic, error) {
	var p models.AgentPublic
	var traitsRaw string
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.PersonaBio,
		&traitsRaw,
		&p.AvatarURL,
		&p.SwipesReceivedRight,
		&p.MatchesCount,
		&p.CreatedAt,
	)
	if err != nil {
		return p, err
	}
	p.PersonaTraits = persona.DecodeTraits(traitsRaw)
	return p, nil
}

// ListPublicAgents returns a page of active agents newest-first plus
// the total active count.
func (s *PostgresStore) ListPublicAgents(ctx context.Context, limit, offset int) ([]models.AgentPublic, int64, error) {
	total, err := s.CountAgents(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+publicColumns+` FROM agents
		WHERE is_active
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	agents := make([]models.AgentPublic, 0, limit)
	for rows.Next() {
		p, err := scanPgPublic(rows)
		if err != nil {
			return nil, 0, err
		}
		agents = append(agents, p)
	}
	return agents, total, rows.Err()
}

// UpsertSeedAgent inserts a seed agent, ignoring slug collisions so
// seeding stays idempotent across restarts.
func (s *PostgresStore) UpsertSeedAgent(ctx context.Context, p CreateAgentParams) error {
	traitsRaw, err := persona.EncodeTraits(persona.CleanTraits(p.PersonaTraits))
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO agents (id, api_key_hash, name, slug, description, persona_bio, persona_traits,
			avatar_url, avatar_prompt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (slug) DO NOTHING
	`, p.ID, p.APIKeyHash, p.Name, p.Slug, p.Description, p.PersonaBio, traitsRaw,
		p.AvatarURL, p.AvatarPrompt)
	return err
}

// RecordSwipe appends a swipe, updates both agents' counters and, on a
// right swipe, runs match detection, all in one transaction. The
// UNIQUE(swiper_id, swiped_id) constraint is the authoritative
// duplicate guard; the pre-check is only a fast path.
func (s *PostgresStore) RecordSwipe(ctx context.Context, swiperID, swipedID uuid.UUID, direction models.SwipeDirection, caption *string) (*models.Swipe, *models.Match, error) {
	if swiperID == swipedID {
		return nil, nil, ErrSelfSwipe
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	var active bool
	err = tx.QueryRow(ctx,
		`SELECT is_active FROM agents WHERE id = $1`, swipedID).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !active) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM swipes WHERE swiper_id = $1 AND swiped_id = $2)`,
		swiperID, swipedID).Scan(&exists)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, ErrDuplicateSwipe
	}

	swipe := &models.Swipe{
		ID:        ulid.Make().String(),
		SwiperID:  swiperID,
		SwipedID:  swipedID,
		Direction: direction,
		Caption:   caption,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO swipes (id, swiper_id, swiped_id, direction, caption)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING swiped_at
	`, swipe.ID, swiperID, swipedID, string(direction), caption).Scan(&swipe.SwipedAt)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, nil, ErrDuplicateSwipe
		}
		return nil, nil, err
	}

	givenCol, receivedCol := "swipes_given_right", "swipes_received_right"
	if direction == models.SwipeLeft {
		givenCol, receivedCol = "swipes_given_left", "swipes_received_left"
	}
	if _, err := tx.Exec(ctx,
		`UPDATE agents SET `+givenCol+` = `+givenCol+` + 1, updated_at = now(), last_active_at = now() WHERE id = $1`,
		swiperID); err != nil {
		return nil, nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE agents SET `+receivedCol+` = `+receivedCol+` + 1, updated_at = now() WHERE id = $1`,
		swipedID); err != nil {
		return nil, nil, err
	}

	var match *models.Match
	if direction == models.SwipeRight {
		match, err = s.detectMatch(ctx, tx, swipe)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return swipe, match, nil
}

// detectMatch checks for a reciprocal right swipe and creates the match
// exactly once. On conflict the other direction's swipe already created
// it; that match is fetched and returned without touching the counters.
func (s *PostgresStore) detectMatch(ctx context.Context, tx pgx.Tx, swipe *models.Swipe) (*models.Match, error) {
	var recipID string
	var recipAt time.Time
	err := tx.QueryRow(ctx, `
		SELECT id, swiped_at FROM swipes
		WHERE swiper_id = $1 AND swiped_id = $2 AND direction = 'right'
	`, swipe.SwipedID, swipe.SwiperID).Scan(&recipID, &recipAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a1, a2 := models.NormalizePair(swipe.SwiperID, swipe.SwipedID)

	// The earlier swipe decides who swiped first; ULIDs are the
	// deterministic tie-break on equal timestamps.
	firstSwiper := swipe.SwipedID
	if swipe.SwipedAt.Before(recipAt) || (swipe.SwipedAt.Equal(recipAt) && swipe.ID < recipID) {
		firstSwiper = swipe.SwiperID
	}

	match := &models.Match{
		ID:                uuid.New(),
		Agent1ID:          a1,
		Agent2ID:          a2,
		Agent1SwipedFirst: a1 == firstSwiper,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO matches (id, agent1_id, agent2_id, agent1_swiped_first)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (agent1_id, agent2_id) DO NOTHING
		RETURNING matched_at
	`, match.ID, a1, a2, match.Agent1SwipedFirst).Scan(&match.MatchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// The other path won the race; return its match.
		err := tx.QueryRow(ctx, `
			SELECT id, agent1_swiped_first, matched_at FROM matches
			WHERE agent1_id = $1 AND agent2_id = $2
		`, a1, a2).Scan(&match.ID, &match.Agent1SwipedFirst, &match.MatchedAt)
		if err != nil {
			return nil, err
		}
		return match, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE agents SET matches_count = matches_count + 1 WHERE id = ANY($1)
	`, []uuid.UUID{a1, a2}); err != nil {
		return nil, err
	}
	return match, nil
}

// ListSwipesByAgent returns the agent's swipe history newest-first with
// the swiped agent's public profile attached.
func (s *PostgresStore) ListSwipesByAgent(ctx context.Context, agentID uuid.UUID, limit int) ([]models.SwipeWithAgent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.swiper_id, s.swiped_id, s.direction, s.caption, s.swiped_at,
			a.id, a.name, a.slug, a.description, a.persona_bio, a.persona_traits, a.avatar_url,
			a.swipes_received_right, a.matches_count, a.created_at
		FROM swipes s
		JOIN agents a ON a.id = s.swiped_id
		WHERE s.swiper_id = $1
		ORDER BY s.swiped_at DESC, s.id DESC
		LIMIT $2
	`, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	swipes := make([]models.SwipeWithAgent, 0, limit)
	for rows.Next() {
		var sw models.SwipeWithAgent
		var dirStr, traitsRaw string
		err := rows.Scan(
			&sw.ID, &sw.SwiperID, &sw.SwipedID, &dirStr, &sw.Caption, &sw.SwipedAt,
			&sw.SwipedAgent.ID, &sw.SwipedAgent.Name, &sw.SwipedAgent.Slug, &sw.SwipedAgent.Description,
			&sw.SwipedAgent.PersonaBio, &traitsRaw, &sw.SwipedAgent.AvatarURL,
			&sw.SwipedAgent.SwipesReceivedRight, &sw.SwipedAgent.MatchesCount, &sw.SwipedAgent.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		sw.Direction = models.SwipeDirection(dirStr)
		sw.SwipedAgent.PersonaTraits = persona.DecodeTraits(traitsRaw)
		swipes = append(swipes, sw)
	}
	return swipes, rows.Err()
}

// ListMatches returns the agent's matches newest-first, optionally only
// those after since.
func (s *PostgresStore) ListMatches(ctx context.Context, agentID uuid.UUID, since *time.Time) ([]models.MatchWithAgents, error) {
	query := `
		SELECT m.id, m.agent1_id, m.agent2_id, m.agent1_swiped_first, m.matched_at,
			a1.id, a1.name, a1.slug, a1.description, a1.persona_bio, a1.persona_traits, a1.avatar_url,
			a1.swipes_received_right, a1.matches_count, a1.created_at,
			a2.id, a2.name, a2.slug, a2.description, a2.persona_bio, a2.persona_traits, a2.avatar_url,
			a2.swipes_received_right, a2.matches_count, a2.created_at
		FROM matches m
		JOIN agents a1 ON a1.id = m.agent1_id
		JOIN agents a2 ON a2.id = m.agent2_id
		WHERE (m.agent1_id = $1 OR m.agent2_id = $1)`
	args := []any{agentID}
	if since != nil {
		query += ` AND m.matched_at > $2`
		args = append(args, since.UTC())
	}
	query += ` ORDER BY m.matched_at DESC, m.id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.MatchWithAgents
	for rows.Next() {
		var m models.MatchWithAgents
		var t1Raw, t2Raw string
		err := rows.Scan(
			&m.ID, &m.Agent1ID, &m.Agent2ID, &m.Agent1SwipedFirst, &m.MatchedAt,
			&m.Agent1.ID, &m.Agent1.Name, &m.Agent1.Slug, &m.Agent1.Description, &m.Agent1.PersonaBio,
			&t1Raw, &m.Agent1.AvatarURL, &m.Agent1.SwipesReceivedRight, &m.Agent1.MatchesCount, &m.Agent1.CreatedAt,
			&m.Agent2.ID, &m.Agent2.Name, &m.Agent2.Slug, &m.Agent2.Description, &m.Agent2.PersonaBio,
			&t2Raw, &m.Agent2.AvatarURL, &m.Agent2.SwipesReceivedRight, &m.Agent2.MatchesCount, &m.Agent2.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		m.Agent1.PersonaTraits = persona.DecodeTraits(t1Raw)
		m.Agent2.PersonaTraits = persona.DecodeTraits(t2Raw)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Discover returns active agents the requester has not swiped on,
// excluding the requester itself.
func (s *PostgresStore) Discover(ctx context.Context, agentID uuid.UUID, limit int) ([]models.AgentPublic, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+publicColumns+` FROM agents
		WHERE is_active
			AND id != $1
			AND id NOT IN (SELECT swiped_id FROM swipes WHERE swiper_id = $1)
		ORDER BY id
		LIMIT $2
	`, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.AgentPublic, 0, limit)
	for rows.Next() {
		p, err := scanPgPublic(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Leaderboard ranks active agents by score, then matches, then right
// swipes received.
func (s *PostgresStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, slug, avatar_url, swipes_received_right, swipes_received_left, matches_count,
			(swipes_received_right - swipes_received_left + matches_count * 2) AS score
		FROM agents
		WHERE is_active
		ORDER BY score DESC, matches_count DESC, swipes_received_right DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e LeaderboardEntry
		err := rows.Scan(&e.Name, &e.Slug, &e.AvatarURL,
			&e.SwipesReceivedRight, &e.SwipesReceivedLeft, &e.MatchesCount, &e.Score)
		if err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CheckAndConsume atomically consumes one unit of an agent's daily
// quota. A single upsert resets stale windows in place and refuses the
// increment at the ceiling, so there is exactly one live counter row
// per (agent, limit-type) and no lost updates across instances sharing
// the database.
func (s *PostgresStore) CheckAndConsume(ctx context.Context, agentID uuid.UUID, limitType string, ceiling int) (models.RateLimitResult, error) {
	now := time.Now().UTC()
	resetAt := models.NextUTCMidnight(now)

	var count int
	var storedReset time.Time
	err := s.pool.QueryRow(ctx, `
		INSERT INTO rate_limits (agent_id, limit_type, count, reset_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (agent_id, limit_type) DO UPDATE SET
			count = CASE WHEN rate_limits.reset_at <= $4 THEN 1 ELSE rate_limits.count + 1 END,
			reset_at = CASE WHEN rate_limits.reset_at <= $4 THEN excluded.reset_at ELSE rate_limits.reset_at END
		WHERE rate_limits.count < $5 OR rate_limits.reset_at <= $4
		RETURNING count, reset_at
	`, agentID, limitType, resetAt, now, ceiling).Scan(&count, &storedReset)

	if errors.Is(err, pgx.ErrNoRows) {
		err := s.pool.QueryRow(ctx, `
			SELECT reset_at FROM rate_limits WHERE agent_id = $1 AND limit_type = $2
		`, agentID, limitType).Scan(&storedReset)
		if err != nil {
			return models.RateLimitResult{}, err
		}
		return models.RateLimitResult{Allowed: false, Remaining: 0, ResetAt: storedReset}, nil
	}
	if err != nil {
		return models.RateLimitResult{}, err
	}

	remaining := ceiling - count
	if remaining < 0 {
		remaining = 0
	}
	return models.RateLimitResult{Allowed: true, Remaining: remaining, ResetAt: storedReset}, nil
}
