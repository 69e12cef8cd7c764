package registration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/kesarsunil/problemstatment/internal/domain"
	"github.com/kesarsunil/problemstatment/internal/repository"
)

// serialTxManager emulates the storage layer's serialization guarantee: one
// transaction body runs at a time.
type serialTxManager struct {
	mu sync.Mutex
}

func (m *serialTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

// memLedger is an in-memory stand-in for the teams, challenges and
// registrations tables.
type memLedger struct {
	mu         sync.Mutex
	teams      map[string]domain.Team
	challenges map[string]domain.Challenge
	regs       map[string]domain.Registration // keyed by team ID
}

func newMemLedger() *memLedger {
	return &memLedger{
		teams:      make(map[string]domain.Team),
		challenges: make(map[string]domain.Challenge),
		regs:       make(map[string]domain.Registration),
	}
}

func (l *memLedger) addTeam(id, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.teams[id] = domain.Team{TeamID: id, TeamName: name}
}

func (l *memLedger) addChallenge(id string, capacity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.challenges[id] = domain.Challenge{ID: id, Title: id, Capacity: capacity}
}

func (l *memLedger) setCapacity(id string, capacity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch := l.challenges[id]
	ch.Capacity = capacity
	l.challenges[id] = ch
}

func (l *memLedger) GetTeam(_ context.Context, teamID string) (*domain.Team, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	team, ok := l.teams[teamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &team, nil
}

func (l *memLedger) GetChallengeForUpdate(_ context.Context, id string) (*domain.Challenge, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.challenges[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ch, nil
}

func (l *memLedger) CountForChallenge(_ context.Context, challengeID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, reg := range l.regs {
		if reg.ChallengeID == challengeID {
			count++
		}
	}
	return count, nil
}

func (l *memLedger) GetByTeam(_ context.Context, teamID string) (*domain.Registration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	reg, ok := l.regs[teamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &reg, nil
}

func (l *memLedger) Insert(_ context.Context, reg domain.Registration) (time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.regs[reg.TeamID]; exists {
		return time.Time{}, &pq.Error{Code: "23505", Constraint: repository.UniqueTeamConstraint}
	}
	reg.CreatedAt = time.Now().UTC()
	l.regs[reg.TeamID] = reg
	return reg.CreatedAt, nil
}

func (l *memLedger) registrationCount(challengeID string) int {
	n, _ := l.CountForChallenge(context.Background(), challengeID)
	return n
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []int
}

func (p *recordingPublisher) PublishRegistration(_ context.Context, _ domain.Challenge, occupancy int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, occupancy)
}

func newTestService(ledger *memLedger) (*RegistrationService, *recordingPublisher) {
	pub := &recordingPublisher{}
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewRegistrationService(ledger, ledger, ledger, &serialTxManager{}, pub, lg)
	return svc, pub
}

func TestRegisterAdmitsUpToCapacityThenRejects(t *testing.T) {
	ledger := newMemLedger()
	ledger.addTeam("T001", "Team Localhost")
	ledger.addTeam("T002", "Team salaar")
	ledger.addTeam("T003", "Team Taitan's")
	ledger.addChallenge("ps1", 2)

	svc, _ := newTestService(ledger)
	ctx := context.Background()

	first, err := svc.Register(ctx, "T001", "ps1")
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	if first.Registration.Ordinal != 1 || first.Occupancy != 1 {
		t.Fatalf("first register: got ordinal=%d occupancy=%d, want 1/1",
			first.Registration.Ordinal, first.Occupancy)
	}

	second, err := svc.Register(ctx, "T002", "ps1")
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if second.Registration.Ordinal != 2 || second.Occupancy != 2 {
		t.Fatalf("second register: got ordinal=%d occupancy=%d, want 2/2",
			second.Registration.Ordinal, second.Occupancy)
	}

	_, err = svc.Register(ctx, "T003", "ps1")
	var fullErr *domain.ChallengeFullError
	if !errors.As(err, &fullErr) {
		t.Fatalf("third register: got %v, want ChallengeFullError", err)
	}
	if fullErr.Occupancy != 2 || fullErr.Capacity != 2 {
		t.Fatalf("full error: got %d/%d, want 2/2", fullErr.Occupancy, fullErr.Capacity)
	}
}

func TestRegisterRejectsSecondChallengeForSameTeam(t *testing.T) {
	ledger := newMemLedger()
	ledger.addTeam("T001", "Team Localhost")
	ledger.addChallenge("ps1", 2)
	ledger.addChallenge("ps2", 2)

	svc, _ := newTestService(ledger)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "T001", "ps1"); err != nil {
		t.Fatalf("register ps1: %v", err)
	}

	_, err := svc.Register(ctx, "T001", "ps2")
	var dupErr *domain.TeamAlreadyRegisteredError
	if !errors.As(err, &dupErr) {
		t.Fatalf("register ps2: got %v, want TeamAlreadyRegisteredError", err)
	}
	if dupErr.RegisteredFor != "ps1" {
		t.Fatalf("duplicate error names %s, want ps1", dupErr.RegisteredFor)
	}
}

func TestRegisterRetryAfterTimeoutIsSafe(t *testing.T) {
	ledger := newMemLedger()
	ledger.addTeam("T001", "Team Localhost")
	ledger.addChallenge("ps1", 2)

	svc, _ := newTestService(ledger)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "T001", "ps1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Simulated client retry after an ambiguous timeout.
	_, err := svc.Register(ctx, "T001", "ps1")
	var dupErr *domain.TeamAlreadyRegisteredError
	if !errors.As(err, &dupErr) {
		t.Fatalf("retry: got %v, want TeamAlreadyRegisteredError", err)
	}
	if dupErr.RegisteredFor != "ps1" {
		t.Fatalf("retry rejection names %s, want ps1", dupErr.RegisteredFor)
	}
	if got := ledger.registrationCount("ps1"); got != 1 {
		t.Fatalf("ledger holds %d registrations for ps1, want 1", got)
	}
}

func TestRegisterConcurrentBurstAdmitsExactlyCapacity(t *testing.T) {
	const teams = 50
	const capacity = 2

	ledger := newMemLedger()
	ledger.addChallenge("ps1", capacity)
	teamIDs := make([]string, teams)
	for i := range teamIDs {
		teamIDs[i] = "T" + string(rune('A'+i/26)) + string(rune('A'+i%26))
		ledger.addTeam(teamIDs[i], teamIDs[i])
	}

	svc, pub := newTestService(ledger)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var allocated, full, other int
	ordinals := make(map[int]bool)

	for _, teamID := range teamIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			result, err := svc.Register(ctx, id, "ps1")

			mu.Lock()
			defer mu.Unlock()
			var fullErr *domain.ChallengeFullError
			switch {
			case err == nil:
				allocated++
				ordinals[result.Registration.Ordinal] = true
			case errors.As(err, &fullErr):
				full++
			default:
				other++
			}
		}(teamID)
	}
	wg.Wait()

	if allocated != capacity {
		t.Fatalf("got %d allocations, want exactly %d", allocated, capacity)
	}
	if full != teams-capacity {
		t.Fatalf("got %d full rejections, want %d", full, teams-capacity)
	}
	if other != 0 {
		t.Fatalf("got %d unexpected errors", other)
	}
	if !ordinals[1] || !ordinals[2] {
		t.Fatalf("winning ordinals %v, want {1,2}", ordinals)
	}
	if got := ledger.registrationCount("ps1"); got != capacity {
		t.Fatalf("ledger holds %d registrations, want %d", got, capacity)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.updates) != capacity {
		t.Fatalf("published %d occupancy updates, want %d", len(pub.updates), capacity)
	}
}

func TestRegisterConcurrentTeamsAcrossChallengesHoldExclusivity(t *testing.T) {
	const attempts = 20

	ledger := newMemLedger()
	ledger.addTeam("T001", "Team Localhost")
	for i := 0; i < attempts; i++ {
		ledger.addChallenge("ps"+string(rune('a'+i)), 5)
	}

	svc, _ := newTestService(ledger)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	success := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(challengeID string) {
			defer wg.Done()
			if _, err := svc.Register(ctx, "T001", challengeID); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}("ps" + string(rune('a'+i)))
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("team won %d slots across challenges, want exactly 1", success)
	}
}

func TestRegisterUnknownTeamAndChallenge(t *testing.T) {
	ledger := newMemLedger()
	ledger.addTeam("T001", "Team Localhost")
	ledger.addChallenge("ps1", 2)

	svc, _ := newTestService(ledger)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "T999", "ps1"); !errors.Is(err, domain.ErrTeamNotFound) {
		t.Fatalf("unknown team: got %v, want ErrTeamNotFound", err)
	}
	if _, err := svc.Register(ctx, "T001", "ps9"); !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Fatalf("unknown challenge: got %v, want ErrChallengeNotFound", err)
	}
}

func TestRegisterCapacityLoweredBelowOccupancyFreezesChallenge(t *testing.T) {
	ledger := newMemLedger()
	ledger.addTeam("T001", "a")
	ledger.addTeam("T002", "b")
	ledger.addTeam("T003", "c")
	ledger.addChallenge("ps1", 3)

	svc, _ := newTestService(ledger)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "T001", "ps1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "T002", "ps1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Admin lowers capacity below the committed occupancy. Holders stay;
	// new admissions stop.
	ledger.setCapacity("ps1", 1)

	_, err := svc.Register(ctx, "T003", "ps1")
	var fullErr *domain.ChallengeFullError
	if !errors.As(err, &fullErr) {
		t.Fatalf("register after lowering: got %v, want ChallengeFullError", err)
	}
	if fullErr.Occupancy != 2 || fullErr.Capacity != 1 {
		t.Fatalf("full error: got %d/%d, want 2/1", fullErr.Occupancy, fullErr.Capacity)
	}
	if got := ledger.registrationCount("ps1"); got != 2 {
		t.Fatalf("existing holders evicted: %d registrations left", got)
	}
}

func TestRegisterMapsSerializationFailureToTransient(t *testing.T) {
	ledger := newMemLedger()
	ledger.addTeam("T001", "Team Localhost")
	ledger.addChallenge("ps1", 2)

	svc, _ := newTestService(ledger)
	svc.regRepo = &failingInsertRepo{
		RegistrationRepository: ledger,
		err:                    &pq.Error{Code: "40001"},
	}

	_, err := svc.Register(context.Background(), "T001", "ps1")
	if !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("got %v, want ErrTransient", err)
	}
}

type failingInsertRepo struct {
	RegistrationRepository
	err error
}

func (r *failingInsertRepo) Insert(context.Context, domain.Registration) (time.Time, error) {
	return time.Time{}, r.err
}

func TestGetTeamRegistrationRequery(t *testing.T) {
	ledger := newMemLedger()
	ledger.addTeam("T001", "Team Localhost")
	ledger.addChallenge("ps1", 2)

	svc, _ := newTestService(ledger)
	ctx := context.Background()

	if _, err := svc.GetTeamRegistration(ctx, "T001"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("before register: got %v, want ErrNotFound", err)
	}

	if _, err := svc.Register(ctx, "T001", "ps1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	reg, err := svc.GetTeamRegistration(ctx, "T001")
	if err != nil {
		t.Fatalf("after register: %v", err)
	}
	if reg.ChallengeID != "ps1" {
		t.Fatalf("requery names %s, want ps1", reg.ChallengeID)
	}

	if _, err := svc.GetTeamRegistration(ctx, "T999"); !errors.Is(err, domain.ErrTeamNotFound) {
		t.Fatalf("unknown team: got %v, want ErrTeamNotFound", err)
	}
}
