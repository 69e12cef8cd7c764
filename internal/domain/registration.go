package domain

import "time"

// Registration is an immutable team-to-challenge binding. Once committed it
// is never updated or deleted; clearing bad data is an operational action
// done directly against the database.
type Registration struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"team_id"`
	ChallengeID string    `json:"challenge_id"`
	Ordinal     int       `json:"ordinal"`
	CreatedAt   time.Time `json:"created_at"`
}

type RegisterRequest struct {
	TeamID      string `json:"team_id" binding:"required"`
	ChallengeID string `json:"challenge_id" binding:"required"`
}

// RegisterResult is returned on a committed registration. Occupancy is the
// count including this registration; Ordinal is the team's admission order
// on the challenge (1-based, transaction commit order).
type RegisterResult struct {
	Registration Registration `json:"registration"`
	Occupancy    int          `json:"occupancy"`
	Capacity     int          `json:"capacity"`
}

// ExportRow is one line of the admin report, ordered by commit time.
type ExportRow struct {
	SerialNo       int       `json:"serial_no"`
	TeamID         string    `json:"team_id"`
	TeamName       string    `json:"team_name"`
	TeamLeader     string    `json:"team_leader"`
	ChallengeID    string    `json:"challenge_id"`
	ChallengeTitle string    `json:"challenge_title"`
	RegisteredAt   time.Time `json:"registered_at"`
}
