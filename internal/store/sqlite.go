package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/Rahat-ch/moltymingle/internal/models"
	"github.com/Rahat-ch/moltymingle/internal/persona"
)

// SQLiteStore handles SQLite database operations. It mirrors
// PostgresStore for development and tests.
type SQLiteStore struct {
	db *sql.DB

	// now is swapped out by tests that need to cross a reset window.
	now func() time.Time
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/moltymingle.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/moltymingle.db"
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// A single connection keeps :memory: databases coherent and
	// serializes writers, which SQLite requires anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db, now: time.Now}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		api_key_hash TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		slug TEXT UNIQUE NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		persona_bio TEXT NOT NULL DEFAULT '',
		persona_traits TEXT NOT NULL DEFAULT '[]',
		avatar_url TEXT,
		avatar_prompt TEXT,
		swipes_received_right INTEGER NOT NULL DEFAULT 0,
		swipes_received_left INTEGER NOT NULL DEFAULT 0,
		swipes_given_right INTEGER NOT NULL DEFAULT 0,
		swipes_given_left INTEGER NOT NULL DEFAULT 0,
		matches_count INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		last_active_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS swipes (
		id TEXT PRIMARY KEY,
		swiper_id TEXT NOT NULL REFERENCES agents(id),
		swiped_id TEXT NOT NULL REFERENCES agents(id),
		direction TEXT NOT NULL CHECK (direction IN ('right', 'left')),
		caption TEXT,
		swiped_at DATETIME NOT NULL,
		UNIQUE (swiper_id, swiped_id)
	);

	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		agent1_id TEXT NOT NULL REFERENCES agents(id),
		agent2_id TEXT NOT NULL REFERENCES agents(id),
		agent1_swiped_first INTEGER NOT NULL DEFAULT 0,
		matched_at DATETIME NOT NULL,
		UNIQUE (agent1_id, agent2_id)
	);

	CREATE TABLE IF NOT EXISTS rate_limits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		agent_id TEXT NOT NULL REFERENCES agents(id),
		limit_type TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		reset_at DATETIME NOT NULL,
		UNIQUE (agent_id, limit_type)
	);

	CREATE INDEX IF NOT EXISTS idx_swipes_swiped ON swipes(swiped_id, direction);
	CREATE INDEX IF NOT EXISTS idx_matches_agent2 ON matches(agent2_id);
	CREATE INDEX IF NOT EXISTS idx_agents_active ON agents(is_active);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const agentColumns = `id, api_key_hash, name, slug, description, persona_bio, persona_traits,
	avatar_url, avatar_prompt, swipes_received_right, swipes_received_left,
	swipes_given_right, swipes_given_left, matches_count, is_active,
	created_at, updated_at, last_active_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAgent(row rowScanner) (*models.Agent, error) {
	agent := &models.Agent{}
	var idStr, traitsRaw string
	var isActive int
	err := row.Scan(
		&idStr,
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
		&isActive,
		&agent.CreatedAt,
		&agent.UpdatedAt,
		&agent.LastActiveAt,
	)
	if err != nil {
		return nil, err
	}
	agent.ID = uuid.MustParse(idStr)
	agent.PersonaTraits = persona.DecodeTraits(traitsRaw)
	agent.IsActive = isActive == 1
	return agent, nil
}

// nowSecond returns the current time truncated to whole seconds. SQLite
// stores timestamps as text; whole-second UTC values compare correctly
// both as text and as time.
func (s *SQLiteStore) nowSecond() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func isSQLiteUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// CreateAgent inserts a new agent record.
func (s *SQLiteStore) CreateAgent(ctx context.Context, p CreateAgentParams) (*models.Agent, error) {
	traitsRaw, err := persona.EncodeTraits(persona.CleanTraits(p.PersonaTraits))
	if err != nil {
		return nil, err
	}
	now := s.nowSecond()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agents (id, api_key_hash, name, slug, description, persona_bio, persona_traits,
			avatar_url, avatar_prompt, created_at, updated_at, last_active_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID.String(), p.APIKeyHash, p.Name, p.Slug, p.Description, p.PersonaBio, traitsRaw,
		p.AvatarURL, p.AvatarPrompt, now, now, now)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	return s.GetAgentByID(ctx, p.ID)
}

// GetAgentByID retrieves an agent by ID.
func (s *SQLiteStore) GetAgentByID(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = ?`, id.String())
	agent, err := scanSQLiteAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return agent, err
}

// GetAgentByAPIKeyHash retrieves an active agent by credential hash.
// This is the single indexed equality lookup behind authentication.
func (s *SQLiteStore) GetAgentByAPIKeyHash(ctx context.Context, hash string) (*models.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE api_key_hash = ? AND is_active = 1`, hash)
	agent, err := scanSQLiteAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return agent, err
}

// GetAgentBySlug retrieves an agent by slug.
func (s *SQLiteStore) GetAgentBySlug(ctx context.Context, slug string) (*models.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE slug = ?`, slug)
	agent, err := scanSQLiteAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return agent, err
}

// SlugExists reports whether any agent already owns the slug.
func (s *SQLiteStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM agents WHERE slug = ?)`, slug).Scan(&exists)
	return exists == 1, err
}

// UpdateDescription persists a new description and touches updated_at.
func (s *SQLiteStore) UpdateDescription(ctx context.Context, id uuid.UUID, description string) (*models.Agent, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE agents SET description = ?, updated_at = ? WHERE id = ?
	`, description, s.nowSecond(), id.String())
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetAgentByID(ctx, id)
}

// UpdatePersona replaces an agent's generated persona.
func (s *SQLiteStore) UpdatePersona(ctx context.Context, id uuid.UUID, bio string, traits []string, avatarPrompt string) error {
	traitsRaw, err := persona.EncodeTraits(persona.CleanTraits(traits))
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE agents SET persona_bio = ?, persona_traits = ?, avatar_prompt = ?, updated_at = ?
		WHERE id = ?
	`, bio, traitsRaw, avatarPrompt, s.nowSecond(), id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar records a generated avatar URL.
func (s *SQLiteStore) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE agents SET avatar_url = ?, updated_at = ? WHERE id = ?
	`, avatarURL, s.nowSecond(), id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastActive bumps last_active_at.
func (s *SQLiteStore) TouchLastActive(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE agents SET last_active_at = ? WHERE id = ?
	`, s.nowSecond(), id.String())
	return err
}

// CountAgents returns the number of active agents.
func (s *SQLiteStore) CountAgents(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM agents WHERE is_active = 1`).Scan(&n)
	return n, err
}

const publicColumns = `id, name, slug, description, persona_bio, persona_traits, avatar_url,
	swipes_received_right, matches_count, created_at`

func scanSQLitePublic(row rowScanner) (models.AgentPublic, error) {
	var p models.AgentPublic
	var idStr, traitsRaw string
	err := row.Scan(
		&idStr,
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
	p.ID = uuid.MustParse(idStr)
	p.PersonaTraits = persona.DecodeTraits(traitsRaw)
	return p, nil
}

// ListPublicAgents returns a page of active agents newest-first plus
// the total active count.
func (s *SQLiteStore) ListPublicAgents(ctx context.Context, limit, offset int) ([]models.AgentPublic, int64, error) {
	total, err := s.CountAgents(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+publicColumns+` FROM agents
		WHERE is_active = 1
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	agents := make([]models.AgentPublic, 0, limit)
	for rows.Next() {
		p, err := scanSQLitePublic(rows)
		if err != nil {
			return nil, 0, err
		}
		agents = append(agents, p)
	}
	return agents, total, rows.Err()
}

// UpsertSeedAgent inserts a seed agent, ignoring slug collisions so
// seeding stays idempotent across restarts.
func (s *SQLiteStore) UpsertSeedAgent(ctx context.Context, p CreateAgentParams) error {
	traitsRaw, err := persona.EncodeTraits(persona.CleanTraits(p.PersonaTraits))
	if err != nil {
		return err
	}
	now := s.nowSecond()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agents (id, api_key_hash, name, slug, description, persona_bio, persona_traits,
			avatar_url, avatar_prompt, created_at, updated_at, last_active_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO NOTHING
	`, p.ID.String(), p.APIKeyHash, p.Name, p.Slug, p.Description, p.PersonaBio, traitsRaw,
		p.AvatarURL, p.AvatarPrompt, now, now, now)
	return err
}

// RecordSwipe appends a swipe, updates both agents' counters and, on a
// right swipe, runs match detection, all in one transaction. The
// UNIQUE(swiper_id, swiped_id) constraint is the authoritative
// duplicate guard; the pre-check is only a fast path.
func (s *SQLiteStore) RecordSwipe(ctx context.Context, swiperID, swipedID uuid.UUID, direction models.SwipeDirection, caption *string) (*models.Swipe, *models.Match, error) {
	if swiperID == swipedID {
		return nil, nil, ErrSelfSwipe
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	// Target must exist and be active.
	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT is_active FROM agents WHERE id = ?`, swipedID.String()).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && active == 0) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM swipes WHERE swiper_id = ? AND swiped_id = ?)`,
		swiperID.String(), swipedID.String()).Scan(&exists)
	if err != nil {
		return nil, nil, err
	}
	if exists == 1 {
		return nil, nil, ErrDuplicateSwipe
	}

	swipe := &models.Swipe{
		ID:        ulid.Make().String(),
		SwiperID:  swiperID,
		SwipedID:  swipedID,
		Direction: direction,
		Caption:   caption,
		SwipedAt:  s.nowSecond(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO swipes (id, swiper_id, swiped_id, direction, caption, swiped_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, swipe.ID, swiperID.String(), swipedID.String(), string(direction), caption, swipe.SwipedAt)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, nil, ErrDuplicateSwipe
		}
		return nil, nil, err
	}

	givenCol, receivedCol := "swipes_given_right", "swipes_received_right"
	if direction == models.SwipeLeft {
		givenCol, receivedCol = "swipes_given_left", "swipes_received_left"
	}
	now := s.nowSecond()
	if _, err := tx.ExecContext(ctx,
		`UPDATE agents SET `+givenCol+` = `+givenCol+` + 1, updated_at = ?, last_active_at = ? WHERE id = ?`,
		now, now, swiperID.String()); err != nil {
		return nil, nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE agents SET `+receivedCol+` = `+receivedCol+` + 1, updated_at = ? WHERE id = ?`,
		now, swipedID.String()); err != nil {
		return nil, nil, err
	}

	var match *models.Match
	if direction == models.SwipeRight {
		match, err = s.detectMatch(ctx, tx, swipe)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return swipe, match, nil
}

// detectMatch checks for a reciprocal right swipe and creates the match
// exactly once. The UNIQUE(agent1_id, agent2_id) constraint on the
// normalized pair de-duplicates concurrent creation; a conflict means
// the other direction's swipe already created it, so we fetch and
// return that match without touching the counters again.
func (s *SQLiteStore) detectMatch(ctx context.Context, tx *sql.Tx, swipe *models.Swipe) (*models.Match, error) {
	var recipID string
	var recipAt time.Time
	err := tx.QueryRowContext(ctx, `
		SELECT id, swiped_at FROM swipes
		WHERE swiper_id = ? AND swiped_id = ? AND direction = 'right'
	`, swipe.SwipedID.String(), swipe.SwiperID.String()).Scan(&recipID, &recipAt)
	if errors.Is(err, sql.ErrNoRows) {
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
		MatchedAt:         s.nowSecond(),
	}

	first := 0
	if match.Agent1SwipedFirst {
		first = 1
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO matches (id, agent1_id, agent2_id, agent1_swiped_first, matched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (agent1_id, agent2_id) DO NOTHING
	`, match.ID.String(), a1.String(), a2.String(), first, match.MatchedAt)
	if err != nil {
		return nil, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	if inserted == 0 {
		// The other path won the race; return its match.
		var idStr string
		var firstInt int
		err := tx.QueryRowContext(ctx, `
			SELECT id, agent1_swiped_first, matched_at FROM matches
			WHERE agent1_id = ? AND agent2_id = ?
		`, a1.String(), a2.String()).Scan(&idStr, &firstInt, &match.MatchedAt)
		if err != nil {
			return nil, err
		}
		match.ID = uuid.MustParse(idStr)
		match.Agent1SwipedFirst = firstInt == 1
		return match, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE agents SET matches_count = matches_count + 1 WHERE id IN (?, ?)
	`, a1.String(), a2.String()); err != nil {
		return nil, err
	}
	return match, nil
}

// ListSwipesByAgent returns the agent's swipe history newest-first with
// the swiped agent's public profile attached.
func (s *SQLiteStore) ListSwipesByAgent(ctx context.Context, agentID uuid.UUID, limit int) ([]models.SwipeWithAgent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.swiper_id, s.swiped_id, s.direction, s.caption, s.swiped_at,
			a.id, a.name, a.slug, a.description, a.persona_bio, a.persona_traits, a.avatar_url,
			a.swipes_received_right, a.matches_count, a.created_at
		FROM swipes s
		JOIN agents a ON a.id = s.swiped_id
		WHERE s.swiper_id = ?
		ORDER BY s.swiped_at DESC, s.id DESC
		LIMIT ?
	`, agentID.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	swipes := make([]models.SwipeWithAgent, 0, limit)
	for rows.Next() {
		var sw models.SwipeWithAgent
		var swiperStr, swipedStr, dirStr, agentIDStr, traitsRaw string
		err := rows.Scan(
			&sw.ID, &swiperStr, &swipedStr, &dirStr, &sw.Caption, &sw.SwipedAt,
			&agentIDStr, &sw.SwipedAgent.Name, &sw.SwipedAgent.Slug, &sw.SwipedAgent.Description,
			&sw.SwipedAgent.PersonaBio, &traitsRaw, &sw.SwipedAgent.AvatarURL,
			&sw.SwipedAgent.SwipesReceivedRight, &sw.SwipedAgent.MatchesCount, &sw.SwipedAgent.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		sw.SwiperID = uuid.MustParse(swiperStr)
		sw.SwipedID = uuid.MustParse(swipedStr)
		sw.Direction = models.SwipeDirection(dirStr)
		sw.SwipedAgent.ID = uuid.MustParse(agentIDStr)
		sw.SwipedAgent.PersonaTraits = persona.DecodeTraits(traitsRaw)
		swipes = append(swipes, sw)
	}
	return swipes, rows.Err()
}

// ListMatches returns the agent's matches newest-first, optionally only
// those after since.
func (s *SQLiteStore) ListMatches(ctx context.Context, agentID uuid.UUID, since *time.Time) ([]models.MatchWithAgents, error) {
	query := `
		SELECT m.id, m.agent1_id, m.agent2_id, m.agent1_swiped_first, m.matched_at,
			a1.id, a1.name, a1.slug, a1.description, a1.persona_bio, a1.persona_traits, a1.avatar_url,
			a1.swipes_received_right, a1.matches_count, a1.created_at,
			a2.id, a2.name, a2.slug, a2.description, a2.persona_bio, a2.persona_traits, a2.avatar_url,
			a2.swipes_received_right, a2.matches_count, a2.created_at
		FROM matches m
		JOIN agents a1 ON a1.id = m.agent1_id
		JOIN agents a2 ON a2.id = m.agent2_id
		WHERE (m.agent1_id = ? OR m.agent2_id = ?)`
	args := []any{agentID.String(), agentID.String()}
	if since != nil {
		query += ` AND m.matched_at > ?`
		args = append(args, since.UTC().Truncate(time.Second))
	}
	query += ` ORDER BY m.matched_at DESC, m.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.MatchWithAgents
	for rows.Next() {
		var m models.MatchWithAgents
		var idStr, a1Str, a2Str, a1IDStr, a2IDStr, t1Raw, t2Raw string
		var firstInt int
		err := rows.Scan(
			&idStr, &a1Str, &a2Str, &firstInt, &m.MatchedAt,
			&a1IDStr, &m.Agent1.Name, &m.Agent1.Slug, &m.Agent1.Description, &m.Agent1.PersonaBio,
			&t1Raw, &m.Agent1.AvatarURL, &m.Agent1.SwipesReceivedRight, &m.Agent1.MatchesCount, &m.Agent1.CreatedAt,
			&a2IDStr, &m.Agent2.Name, &m.Agent2.Slug, &m.Agent2.Description, &m.Agent2.PersonaBio,
			&t2Raw, &m.Agent2.AvatarURL, &m.Agent2.SwipesReceivedRight, &m.Agent2.MatchesCount, &m.Agent2.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		m.ID = uuid.MustParse(idStr)
		m.Agent1ID = uuid.MustParse(a1Str)
		m.Agent2ID = uuid.MustParse(a2Str)
		m.Agent1SwipedFirst = firstInt == 1
		m.Agent1.ID = uuid.MustParse(a1IDStr)
		m.Agent1.PersonaTraits = persona.DecodeTraits(t1Raw)
		m.Agent2.ID = uuid.MustParse(a2IDStr)
		m.Agent2.PersonaTraits = persona.DecodeTraits(t2Raw)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Discover returns active agents the requester has not swiped on,
// excluding the requester itself.
func (s *SQLiteStore) Discover(ctx context.Context, agentID uuid.UUID, limit int) ([]models.AgentPublic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+publicColumns+` FROM agents
		WHERE is_active = 1
			AND id != ?
			AND id NOT IN (SELECT swiped_id FROM swipes WHERE swiper_id = ?)
		ORDER BY id
		LIMIT ?
	`, agentID.String(), agentID.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.AgentPublic, 0, limit)
	for rows.Next() {
		p, err := scanSQLitePublic(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Leaderboard ranks active agents by score, then matches, then right
// swipes received.
func (s *SQLiteStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, slug, avatar_url, swipes_received_right, swipes_received_left, matches_count,
			(swipes_received_right - swipes_received_left + matches_count * 2) AS score
		FROM agents
		WHERE is_active = 1
		ORDER BY score DESC, matches_count DESC, swipes_received_right DESC
		LIMIT ?
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
// per (agent, limit-type) and no lost updates.
func (s *SQLiteStore) CheckAndConsume(ctx context.Context, agentID uuid.UUID, limitType string, ceiling int) (models.RateLimitResult, error) {
	now := s.nowSecond()
	resetAt := models.NextUTCMidnight(now)

	var count int
	var storedReset time.Time
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO rate_limits (agent_id, limit_type, count, reset_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (agent_id, limit_type) DO UPDATE SET
			count = CASE WHEN rate_limits.reset_at <= ? THEN 1 ELSE rate_limits.count + 1 END,
			reset_at = CASE WHEN rate_limits.reset_at <= ? THEN excluded.reset_at ELSE rate_limits.reset_at END
		WHERE rate_limits.count < ? OR rate_limits.reset_at <= ?
		RETURNING count, reset_at
	`, agentID.String(), limitType, resetAt, now, now, ceiling, now).Scan(&count, &storedReset)

	if errors.Is(err, sql.ErrNoRows) {
		// Ceiling reached inside a live window; report its reset time.
		err := s.db.QueryRowContext(ctx, `
			SELECT reset_at FROM rate_limits WHERE agent_id = ? AND limit_type = ?
		`, agentID.String(), limitType).Scan(&storedReset)
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
