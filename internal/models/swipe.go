package models

import (
	"time"

	"github.com/google/uuid"
)

// SwipeDirection is an agent's verdict on another agent.
type SwipeDirection string

const (
	SwipeRight SwipeDirection = "right"
	SwipeLeft  SwipeDirection = "left"
)

// Valid reports whether d is one of the two known directions.
func (d SwipeDirection) Valid() bool {
	return d == SwipeRight || d == SwipeLeft
}

// Swipe is one agent's decision about another. At most one swipe exists
// per ordered (swiper, swiped) pair; a repeat attempt is an error.
type Swipe struct {
	ID        string         `json:"id"`
	SwiperID  uuid.UUID      `json:"swiper_id"`
	SwipedID  uuid.UUID      `json:"swiped_id"`
	Direction SwipeDirection `json:"direction"`
	Caption   *string        `json:"caption"`
	SwipedAt  time.Time      `json:"swiped_at"`
}

// SwipeWithAgent joins a swipe with a public view of the agent who was
// swiped on, for history listings.
type SwipeWithAgent struct {
	Swipe
	SwipedAgent AgentPublic `json:"swiped_agent"`
}
