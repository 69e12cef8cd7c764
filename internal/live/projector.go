package live

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/kesarsunil/problemstatment/internal/domain"
)

// Projector is the read path for dashboards: it materializes the latest
// per-challenge occupancy from committed registrations and fans updates out
// to stream subscribers. Eventually consistent only; a client that wants to
// claim a slot still goes through the registration transaction, which
// re-checks everything against the ledger.
type Projector struct {
	store SnapshotStore
	hub   *Hub
	lg    *slog.Logger
}

func NewProjector(store SnapshotStore, hub *Hub, lg *slog.Logger) *Projector {
	return &Projector{store: store, hub: hub, lg: lg}
}

// Warm seeds the snapshot from the ledger at boot.
func (p *Projector) Warm(ctx context.Context, challenges []domain.ChallengeOccupancy) error {
	for _, co := range challenges {
		update := OccupancyUpdate{
			ChallengeID: co.ID,
			Title:       co.Title,
			Occupancy:   co.Occupancy,
			Capacity:    co.Capacity,
			Full:        co.Full,
		}
		if err := p.store.Set(ctx, update); err != nil {
			return err
		}
	}
	return nil
}

// PublishRegistration records a committed registration and broadcasts the
// new occupancy to every subscriber. Called after the transaction commits.
func (p *Projector) PublishRegistration(ctx context.Context, ch domain.Challenge, occupancy int) {
	update := OccupancyUpdate{
		ChallengeID: ch.ID,
		Title:       ch.Title,
		Occupancy:   occupancy,
		Capacity:    ch.Capacity,
		Full:        occupancy >= ch.Capacity,
	}

	if err := p.store.Set(ctx, update); err != nil {
		p.lg.Warn("snapshot update failed", slog.Any("error", err),
			slog.String("challenge_id", ch.ID))
	}

	payload, err := json.Marshal(update)
	if err != nil {
		p.lg.Error("failed to marshal occupancy update", slog.Any("error", err))
		return
	}
	p.hub.Broadcast(payload)
}

// PublishChallenge announces a newly created challenge with zero occupancy.
func (p *Projector) PublishChallenge(ctx context.Context, ch domain.Challenge) {
	p.PublishRegistration(ctx, ch, 0)
}

// LooksFull reports whether the cached snapshot says the challenge has no
// free slot. Used only to short-circuit doomed requests before paying the
// transaction cost; a false answer is always safe.
func (p *Projector) LooksFull(ctx context.Context, challengeID string) bool {
	update, ok, err := p.store.Get(ctx, challengeID)
	if err != nil || !ok {
		return false
	}
	return update.Full
}

// CachedOccupancy exposes the snapshot entry for diagnostics on the
// short-circuit path.
func (p *Projector) CachedOccupancy(ctx context.Context, challengeID string) (OccupancyUpdate, bool) {
	update, ok, err := p.store.Get(ctx, challengeID)
	if err != nil {
		return OccupancyUpdate{}, false
	}
	return update, ok
}

// SnapshotFrames renders the current snapshot as one frame per challenge,
// sent to a subscriber right after it connects.
func (p *Projector) SnapshotFrames(ctx context.Context) ([][]byte, error) {
	updates, err := p.store.All(ctx)
	if err != nil {
		return nil, err
	}
	frames := make([][]byte, 0, len(updates))
	for _, update := range updates {
		payload, err := json.Marshal(update)
		if err != nil {
			return nil, err
		}
		frames = append(frames, payload)
	}
	return frames, nil
}

// Subscribe attaches a streaming client and replays the current snapshot.
// Replay and registration happen as one step on the hub loop, so a
// registration committed during the replay still reaches the client as a
// broadcast instead of falling between snapshot and stream.
func (p *Projector) Subscribe(ctx context.Context, client Subscriber) error {
	return p.hub.Subscribe(client, func() ([][]byte, error) {
		return p.SnapshotFrames(ctx)
	})
}

// Unsubscribe detaches a streaming client.
func (p *Projector) Unsubscribe(client Subscriber) {
	p.hub.Unregister(client)
}
