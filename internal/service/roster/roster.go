package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kesarsunil/problemstatment/internal/domain"
	"github.com/kesarsunil/problemstatment/internal/repository"
	"github.com/kesarsunil/problemstatment/pkg/database"
)

type TeamRepository interface {
	UpsertTeam(ctx context.Context, team domain.Team) error
	GetTeam(ctx context.Context, teamID string) (*domain.Team, error)
	ListTeams(ctx context.Context) ([]domain.Team, error)
}

// RosterService serves the fixed team roster and seeds it at boot. The
// roster is the only source of valid team identities; requests naming any
// other team are caller bugs.
type RosterService struct {
	teamRepo  TeamRepository
	txManager database.TransactionManagerInterface
	lg        *slog.Logger
}

func NewRosterService(teamRepo TeamRepository,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *RosterService {
	return &RosterService{
		teamRepo:  teamRepo,
		txManager: txManager,
		lg:        lg,
	}
}

// Seed upserts the roster in one transaction. Idempotent; safe to run on
// every boot.
func (s *RosterService) Seed(ctx context.Context, teams []domain.Team) error {
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		for _, team := range teams {
			if err := s.teamRepo.UpsertTeam(txCtx, team); err != nil {
				return fmt.Errorf("failed to seed team %s: %w", team.TeamID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.lg.Info("roster seeded", slog.Int("teams", len(teams)))
	return nil
}

func (s *RosterService) ListTeams(ctx context.Context) ([]domain.Team, error) {
	teams, err := s.teamRepo.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (s *RosterService) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	team, err := s.teamRepo.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}
