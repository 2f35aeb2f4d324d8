package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// migration is one named, ordered schema change. Applied names are
// tracked in __migrations so reruns are no-ops.
type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "001_initial_schema",
		sql: `
		CREATE TABLE IF NOT EXISTS agents (
			id UUID PRIMARY KEY,
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
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_active_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS swipes (
			id TEXT PRIMARY KEY,
			swiper_id UUID NOT NULL REFERENCES agents(id),
			swiped_id UUID NOT NULL REFERENCES agents(id),
			direction TEXT NOT NULL CHECK (direction IN ('right', 'left')),
			caption TEXT,
			swiped_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (swiper_id, swiped_id)
		);

		CREATE TABLE IF NOT EXISTS matches (
			id UUID PRIMARY KEY,
			agent1_id UUID NOT NULL REFERENCES agents(id),
			agent2_id UUID NOT NULL REFERENCES agents(id),
			agent1_swiped_first BOOLEAN NOT NULL DEFAULT FALSE,
			matched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (agent1_id, agent2_id)
		);

		CREATE TABLE IF NOT EXISTS rate_limits (
			id BIGSERIAL PRIMARY KEY,
			agent_id UUID NOT NULL REFERENCES agents(id),
			limit_type TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			reset_at TIMESTAMPTZ NOT NULL,
			UNIQUE (agent_id, limit_type)
		);

		CREATE INDEX IF NOT EXISTS idx_swipes_swiped ON swipes(swiped_id, direction);
		CREATE INDEX IF NOT EXISTS idx_matches_agent2 ON matches(agent2_id);
		CREATE INDEX IF NOT EXISTS idx_agents_active ON agents(is_active);
		`,
	},
}

// RunMigrations applies all pending migrations against the database.
func RunMigrations(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect for migrations: %w", err)
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS __migrations (
			id BIGSERIAL PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := conn.Query(ctx, `SELECT name FROM __migrations`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		applied[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.name] {
			continue
		}
		tx, err := conn.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, m.sql); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("apply %s: %w", m.name, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO __migrations (name) VALUES ($1)`, m.name); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("record %s: %w", m.name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}
