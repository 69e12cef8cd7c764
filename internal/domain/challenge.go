package domain

import "time"

// DefaultCapacity is used when an admin creates a challenge without an
// explicit slot count.
const DefaultCapacity = 2

type Challenge struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Capacity    int       `json:"capacity"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChallengeOccupancy is the read-model row served to clients: a challenge
// plus its current committed registration count. Full is occupancy >=
// capacity; lowering capacity below occupancy closes the challenge without
// evicting holders.
type ChallengeOccupancy struct {
	Challenge
	Occupancy int  `json:"occupancy"`
	Full      bool `json:"full"`
}

type CreateChallengeRequest struct {
	ID          string `json:"id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
}
