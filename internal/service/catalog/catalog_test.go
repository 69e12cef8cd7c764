package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/kesarsunil/problemstatment/internal/domain"
	"github.com/kesarsunil/problemstatment/internal/repository"
)

type passthroughTxManager struct{}

func (passthroughTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubChallengeRepo struct {
	mu         sync.Mutex
	challenges map[string]domain.Challenge
}

func newStubChallengeRepo() *stubChallengeRepo {
	return &stubChallengeRepo{challenges: make(map[string]domain.Challenge)}
}

func (s *stubChallengeRepo) CreateChallenge(_ context.Context, ch domain.Challenge) (*domain.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.challenges[ch.ID]; exists {
		return nil, domain.ErrChallengeExists
	}
	ch.CreatedAt = time.Now().UTC()
	s.challenges[ch.ID] = ch
	return &ch, nil
}

func (s *stubChallengeRepo) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.challenges[id]
	return ok, nil
}

func (s *stubChallengeRepo) GetChallenge(_ context.Context, id string) (*domain.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ch, nil
}

func (s *stubChallengeRepo) ListWithOccupancy(_ context.Context) ([]domain.ChallengeOccupancy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChallengeOccupancy, 0, len(s.challenges))
	for _, ch := range s.challenges {
		out = append(out, domain.ChallengeOccupancy{Challenge: ch})
	}
	return out, nil
}

func newTestService() (*CatalogService, *stubChallengeRepo) {
	repo := newStubChallengeRepo()
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCatalogService(repo, passthroughTxManager{}, nil, lg), repo
}

func TestCreateChallengeDefaultsCapacity(t *testing.T) {
	svc, _ := newTestService()

	ch, err := svc.CreateChallenge(context.Background(), domain.CreateChallengeRequest{
		ID:    "ps7",
		Title: "Disaster Response Coordination",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ch.Capacity != domain.DefaultCapacity {
		t.Fatalf("capacity %d, want default %d", ch.Capacity, domain.DefaultCapacity)
	}
}

func TestCreateChallengeDuplicateIDConflicts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateChallenge(ctx, domain.CreateChallengeRequest{ID: "ps1", Title: "first"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.CreateChallenge(ctx, domain.CreateChallengeRequest{ID: "ps1", Title: "second"})
	if !errors.Is(err, domain.ErrChallengeExists) {
		t.Fatalf("duplicate create: got %v, want ErrChallengeExists", err)
	}
}

func TestCreateChallengeRejectsBadInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []domain.CreateChallengeRequest{
		{ID: "", Title: "no id"},
		{ID: "ps1", Title: "   ", Capacity: 2},
		{ID: "ps1", Title: "negative", Capacity: -1},
	}
	for _, req := range cases {
		if _, err := svc.CreateChallenge(ctx, req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("create %+v: got %v, want ErrInvalidInput", req, err)
		}
	}
}

func TestGetChallengeNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetChallenge(context.Background(), "missing")
	if !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Fatalf("got %v, want ErrChallengeNotFound", err)
	}
}
