package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kesarsunil/problemstatment/internal/domain"
	"github.com/kesarsunil/problemstatment/internal/repository"
	"github.com/kesarsunil/problemstatment/pkg/database"
)

type TeamRepository interface {
	GetTeam(ctx context.Context, teamID string) (*domain.Team, error)
}

type ChallengeRepository interface {
	GetChallengeForUpdate(ctx context.Context, id string) (*domain.Challenge, error)
}

type RegistrationRepository interface {
	CountForChallenge(ctx context.Context, challengeID string) (int, error)
	GetByTeam(ctx context.Context, teamID string) (*domain.Registration, error)
	Insert(ctx context.Context, reg domain.Registration) (time.Time, error)
}

// Publisher receives committed registrations for the dashboard stream.
type Publisher interface {
	PublishRegistration(ctx context.Context, ch domain.Challenge, occupancy int)
}

// RegistrationService owns the only write path into the registrations
// ledger. All correctness rests on the transaction below: the challenge row
// lock serializes claims on one challenge, and the unique index on team_id
// closes the cross-challenge window for one team.
type RegistrationService struct {
	teamRepo      TeamRepository
	challengeRepo ChallengeRepository
	regRepo       RegistrationRepository
	txManager     database.TransactionManagerInterface
	publisher     Publisher
	lg            *slog.Logger
}

func NewRegistrationService(teamRepo TeamRepository,
	challengeRepo ChallengeRepository,
	regRepo RegistrationRepository,
	txManager database.TransactionManagerInterface,
	publisher Publisher,
	lg *slog.Logger) *RegistrationService {
	return &RegistrationService{
		teamRepo:      teamRepo,
		challengeRepo: challengeRepo,
		regRepo:       regRepo,
		txManager:     txManager,
		publisher:     publisher,
		lg:            lg,
	}
}

// Register claims one slot on a challenge for a team. Inside one
// transaction it locks the challenge row, re-reads the committed occupancy,
// re-checks that the team holds no slot anywhere, and inserts the
// registration. Either everything commits or nothing does; a retry after an
// ambiguous timeout re-runs every check and can never double-book.
func (s *RegistrationService) Register(ctx context.Context, teamID, challengeID string) (*domain.RegisterResult, error) {
	team, err := s.teamRepo.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team: %w", err)
	}

	var (
		result    *domain.RegisterResult
		challenge *domain.Challenge
	)
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		ch, err := s.challengeRepo.GetChallengeForUpdate(txCtx, challengeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrChallengeNotFound
			}
			return fmt.Errorf("failed to lock challenge: %w", err)
		}

		count, err := s.regRepo.CountForChallenge(txCtx, challengeID)
		if err != nil {
			return fmt.Errorf("failed to count registrations: %w", err)
		}
		if count >= ch.Capacity {
			return &domain.ChallengeFullError{
				ChallengeID: ch.ID,
				Occupancy:   count,
				Capacity:    ch.Capacity,
			}
		}

		existing, err := s.regRepo.GetByTeam(txCtx, teamID)
		if err == nil {
			return &domain.TeamAlreadyRegisteredError{
				TeamID:        teamID,
				RegisteredFor: existing.ChallengeID,
			}
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check existing registration: %w", err)
		}

		reg := domain.Registration{
			ID:          uuid.NewString(),
			TeamID:      teamID,
			ChallengeID: challengeID,
			Ordinal:     count + 1,
		}
		createdAt, err := s.regRepo.Insert(txCtx, reg)
		if err != nil {
			return err
		}
		reg.CreatedAt = createdAt

		challenge = ch
		result = &domain.RegisterResult{
			Registration: reg,
			Occupancy:    count + 1,
			Capacity:     ch.Capacity,
		}
		return nil
	})

	if err != nil {
		return nil, s.mapRegisterError(ctx, teamID, err)
	}

	s.lg.Info("registration committed",
		slog.String("team_id", teamID),
		slog.String("team_name", team.TeamName),
		slog.String("challenge_id", challengeID),
		slog.Int("ordinal", result.Registration.Ordinal),
		slog.Int("occupancy", result.Occupancy),
		slog.Int("capacity", result.Capacity))

	if s.publisher != nil {
		s.publisher.PublishRegistration(ctx, *challenge, result.Occupancy)
	}

	return result, nil
}

// mapRegisterError translates storage-layer failures into protocol
// outcomes. A unique violation on team_id means another transaction
// committed this team's slot between our exclusivity check and insert; the
// committed row is re-read so the rejection names the winning challenge.
func (s *RegistrationService) mapRegisterError(ctx context.Context, teamID string, err error) error {
	var fullErr *domain.ChallengeFullError
	var dupErr *domain.TeamAlreadyRegisteredError
	if errors.As(err, &fullErr) || errors.As(err, &dupErr) ||
		errors.Is(err, domain.ErrChallengeNotFound) {
		return err
	}

	if repository.IsUniqueViolation(err, repository.UniqueTeamConstraint) {
		existing, lookupErr := s.regRepo.GetByTeam(ctx, teamID)
		if lookupErr != nil {
			return fmt.Errorf("%w: %v", domain.ErrTransient, err)
		}
		return &domain.TeamAlreadyRegisteredError{
			TeamID:        teamID,
			RegisteredFor: existing.ChallengeID,
		}
	}

	if repository.IsSerializationFailure(err) {
		s.lg.Warn("registration transaction contention", slog.Any("error", err),
			slog.String("team_id", teamID))
		return fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}

	return err
}

// GetTeamRegistration is the re-query path for a caller whose Register call
// timed out with an indeterminate outcome.
func (s *RegistrationService) GetTeamRegistration(ctx context.Context, teamID string) (*domain.Registration, error) {
	exists, err := s.teamExists(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrTeamNotFound
	}

	reg, err := s.regRepo.GetByTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

func (s *RegistrationService) teamExists(ctx context.Context, teamID string) (bool, error) {
	_, err := s.teamRepo.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load team: %w", err)
	}
	return true, nil
}
