package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kesarsunil/problemstatment/internal/domain"
	"github.com/kesarsunil/problemstatment/internal/repository"
	"github.com/kesarsunil/problemstatment/pkg/database"
)

type ChallengeRepository interface {
	CreateChallenge(ctx context.Context, ch domain.Challenge) (*domain.Challenge, error)
	Exists(ctx context.Context, id string) (bool, error)
	GetChallenge(ctx context.Context, id string) (*domain.Challenge, error)
	ListWithOccupancy(ctx context.Context) ([]domain.ChallengeOccupancy, error)
}

// Publisher announces new challenges to the dashboard stream.
type Publisher interface {
	PublishChallenge(ctx context.Context, ch domain.Challenge)
}

// CatalogService is the administrative surface over challenges. Challenge
// IDs are stable once created; every registration references them.
type CatalogService struct {
	challengeRepo ChallengeRepository
	txManager     database.TransactionManagerInterface
	publisher     Publisher
	lg            *slog.Logger
}

func NewCatalogService(challengeRepo ChallengeRepository,
	txManager database.TransactionManagerInterface,
	publisher Publisher,
	lg *slog.Logger) *CatalogService {
	return &CatalogService{
		challengeRepo: challengeRepo,
		txManager:     txManager,
		publisher:     publisher,
		lg:            lg,
	}
}

func (s *CatalogService) CreateChallenge(ctx context.Context, req domain.CreateChallengeRequest) (*domain.Challenge, error) {
	id := strings.TrimSpace(req.ID)
	title := strings.TrimSpace(req.Title)
	if id == "" || title == "" {
		return nil, domain.ErrInvalidInput
	}
	capacity := req.Capacity
	if capacity == 0 {
		capacity = domain.DefaultCapacity
	}
	if capacity < 1 {
		return nil, domain.ErrInvalidInput
	}

	var created *domain.Challenge
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		exists, err := s.challengeRepo.Exists(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to check challenge existence: %w", err)
		}
		if exists {
			return domain.ErrChallengeExists
		}

		created, err = s.challengeRepo.CreateChallenge(txCtx, domain.Challenge{
			ID:          id,
			Title:       title,
			Description: req.Description,
			Capacity:    capacity,
		})
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("challenge created",
		slog.String("challenge_id", created.ID),
		slog.Int("capacity", created.Capacity))

	if s.publisher != nil {
		s.publisher.PublishChallenge(ctx, *created)
	}

	return created, nil
}

func (s *CatalogService) ListChallenges(ctx context.Context) ([]domain.ChallengeOccupancy, error) {
	challenges, err := s.challengeRepo.ListWithOccupancy(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenges, nil
}

func (s *CatalogService) GetChallenge(ctx context.Context, id string) (*domain.Challenge, error) {
	ch, err := s.challengeRepo.GetChallenge(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return ch, nil
}
