package models

import (
	"time"

	"github.com/google/uuid"
)

// Match records a mutual right-swipe between two agents. The pair is
// stored normalized with Agent1ID < Agent2ID (lexicographic UUID order)
// and is unique: a pair matches at most once.
type Match struct {
	ID                uuid.UUID `json:"id"`
	Agent1ID          uuid.UUID `json:"agent1_id"`
	Agent2ID          uuid.UUID `json:"agent2_id"`
	Agent1SwipedFirst bool      `json:"agent1_swiped_first"`
	MatchedAt         time.Time `json:"matched_at"`
}

// Other returns the counterpart of agentID in the match.
func (m *Match) Other(agentID uuid.UUID) uuid.UUID {
	if m.Agent1ID == agentID {
		return m.Agent2ID
	}
	return m.Agent1ID
}

// SwipedFirst reports whether agentID was the one who swiped first.
func (m *Match) SwipedFirst(agentID uuid.UUID) bool {
	if m.Agent1ID == agentID {
		return m.Agent1SwipedFirst
	}
	return !m.Agent1SwipedFirst
}

// MatchWithAgents joins a match with public views of both agents.
type MatchWithAgents struct {
	Match
	Agent1 AgentPublic `json:"agent1"`
	Agent2 AgentPublic `json:"agent2"`
}

// NormalizePair orders two agent IDs into the stable (agent1, agent2)
// storage order.
func NormalizePair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() < b.String() {
		return a, b
	}
	return b, a
}
