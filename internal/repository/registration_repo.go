package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/kesarsunil/problemstatment/internal/domain"
	"github.com/kesarsunil/problemstatment/pkg/database"
)

// UniqueTeamConstraint is the index backing one-registration-per-team. The
// transaction re-checks the invariant itself; the constraint catches the
// cross-challenge race where two requests from one team lock different
// challenge rows.
const UniqueTeamConstraint = "registrations_team_id_key"

type RegistrationRepository struct {
	db *database.DB
}

func NewRegistrationRepository(db *database.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (r *RegistrationRepository) CountForChallenge(ctx context.Context, challengeID string) (int, error) {
	conn := r.db.Conn(ctx)

	var count int
	err := conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registrations WHERE challenge_id = $1", challengeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

func (r *RegistrationRepository) GetByTeam(ctx context.Context, teamID string) (*domain.Registration, error) {
	conn := r.db.Conn(ctx)

	var reg domain.Registration
	err := conn.QueryRowContext(ctx, `
		SELECT id, team_id, challenge_id, ordinal, created_at
		FROM registrations
		WHERE team_id = $1
	`, teamID).Scan(&reg.ID, &reg.TeamID, &reg.ChallengeID, &reg.Ordinal, &reg.CreatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &reg, nil
}

func (r *RegistrationRepository) Insert(ctx context.Context, reg domain.Registration) (time.Time, error) {
	conn := r.db.Conn(ctx)

	var createdAt time.Time
	err := conn.QueryRowContext(ctx, `
		INSERT INTO registrations (id, team_id, challenge_id, ordinal)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, reg.ID, reg.TeamID, reg.ChallengeID, reg.Ordinal).Scan(&createdAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to insert registration: %w", err)
	}

	return createdAt, nil
}

// OccupancyByChallenge returns committed counts keyed by challenge ID, used
// to warm the live snapshot at boot.
func (r *RegistrationRepository) OccupancyByChallenge(ctx context.Context) (map[string]int, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT challenge_id, COUNT(*)
		FROM registrations
		GROUP BY challenge_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupancy: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan occupancy: %w", err)
		}
		counts[id] = n
	}

	return counts, rows.Err()
}

// ListExportRows snapshots the ledger joined to teams and challenges,
// ordered by commit time. Runs inside a single read transaction when called
// through the transaction manager.
func (r *RegistrationRepository) ListExportRows(ctx context.Context) ([]domain.ExportRow, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT t.team_id, t.team_name, t.team_leader,
		       c.id, c.title, r.created_at
		FROM registrations r
		JOIN teams t ON t.team_id = r.team_id
		JOIN challenges c ON c.id = r.challenge_id
		ORDER BY r.created_at, r.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query export rows: %w", err)
	}
	defer rows.Close()

	var out []domain.ExportRow
	for rows.Next() {
		var row domain.ExportRow
		if err := rows.Scan(&row.TeamID, &row.TeamName, &row.TeamLeader,
			&row.ChallengeID, &row.ChallengeTitle, &row.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		row.SerialNo = len(out) + 1
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating export rows: %w", err)
	}

	return out, nil
}
