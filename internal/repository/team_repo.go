package repository

import (
	"context"
	"fmt"

	"github.com/kesarsunil/problemstatment/internal/domain"
	"github.com/kesarsunil/problemstatment/pkg/database"
)

type TeamRepository struct {
	db *database.DB
}

func NewTeamRepository(db *database.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// UpsertTeam seeds one roster entry. Re-running the seed with the same file
// is a no-op apart from name corrections.
func (r *TeamRepository) UpsertTeam(ctx context.Context, team domain.Team) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		INSERT INTO teams (team_id, team_name, team_leader, roster_size)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id) DO UPDATE
		SET team_name = EXCLUDED.team_name,
		    team_leader = EXCLUDED.team_leader,
		    roster_size = EXCLUDED.roster_size
	`, team.TeamID, team.TeamName, team.TeamLeader, team.RosterSize)
	if err != nil {
		return fmt.Errorf("failed to upsert team: %w", err)
	}

	return nil
}

func (r *TeamRepository) Exists(ctx context.Context, teamID string) (bool, error) {
	conn := r.db.Conn(ctx)

	var exists bool
	err := conn.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM teams WHERE team_id = $1)", teamID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check team existence: %w", err)
	}
	return exists, nil
}

func (r *TeamRepository) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	conn := r.db.Conn(ctx)

	var team domain.Team
	err := conn.QueryRowContext(ctx, `
		SELECT team_id, team_name, team_leader, roster_size
		FROM teams
		WHERE team_id = $1
	`, teamID).Scan(&team.TeamID, &team.TeamName, &team.TeamLeader, &team.RosterSize)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &team, nil
}

func (r *TeamRepository) ListTeams(ctx context.Context) ([]domain.Team, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT team_id, team_name, team_leader, roster_size
		FROM teams
		ORDER BY team_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.TeamID, &team.TeamName, &team.TeamLeader, &team.RosterSize); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}

	return teams, nil
}
