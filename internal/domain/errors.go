package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrTeamNotFound      = errors.New("team not found")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrChallengeExists   = errors.New("challenge id already exists")
	ErrNotFound          = errors.New("resource not found")

	// ErrTransient marks storage-level contention (serialization failure,
	// deadlock, connection loss). Callers may retry the whole request;
	// every retry re-runs the full transaction checks.
	ErrTransient = errors.New("temporary storage contention, try again")
)

// ChallengeFullError rejects a registration against a challenge whose slots
// are all taken. Not retryable against the same challenge.
type ChallengeFullError struct {
	ChallengeID string
	Occupancy   int
	Capacity    int
}

func (e *ChallengeFullError) Error() string {
	return fmt.Sprintf("challenge %s is full (%d/%d)", e.ChallengeID, e.Occupancy, e.Capacity)
}

// TeamAlreadyRegisteredError rejects a second registration by the same team.
// RegisteredFor names the challenge holding the team's existing slot.
type TeamAlreadyRegisteredError struct {
	TeamID        string
	RegisteredFor string
}

func (e *TeamAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("team %s already registered for challenge %s", e.TeamID, e.RegisteredFor)
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
