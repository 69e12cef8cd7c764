package repository

import (
	"context"
	"fmt"

	"github.com/kesarsunil/problemstatment/internal/domain"
	"github.com/kesarsunil/problemstatment/pkg/database"
)

type ChallengeRepository struct {
	db *database.DB
}

func NewChallengeRepository(db *database.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) CreateChallenge(ctx context.Context, ch domain.Challenge) (*domain.Challenge, error) {
	conn := r.db.Conn(ctx)

	err := conn.QueryRowContext(ctx, `
		INSERT INTO challenges (id, title, description, capacity)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, ch.ID, ch.Title, ch.Description, ch.Capacity).Scan(&ch.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err, "challenges_pkey") {
			return nil, domain.ErrChallengeExists
		}
		return nil, fmt.Errorf("failed to insert challenge: %w", err)
	}

	return &ch, nil
}

func (r *ChallengeRepository) Exists(ctx context.Context, id string) (bool, error) {
	conn := r.db.Conn(ctx)

	var exists bool
	err := conn.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM challenges WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check challenge existence: %w", err)
	}
	return exists, nil
}

func (r *ChallengeRepository) GetChallenge(ctx context.Context, id string) (*domain.Challenge, error) {
	conn := r.db.Conn(ctx)

	var ch domain.Challenge
	err := conn.QueryRowContext(ctx, `
		SELECT id, title, description, capacity, created_at
		FROM challenges
		WHERE id = $1
	`, id).Scan(&ch.ID, &ch.Title, &ch.Description, &ch.Capacity, &ch.CreatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &ch, nil
}

// GetChallengeForUpdate locks the challenge row for the rest of the
// surrounding transaction. Every registration against the challenge takes
// this lock first, which serializes concurrent slot claims.
func (r *ChallengeRepository) GetChallengeForUpdate(ctx context.Context, id string) (*domain.Challenge, error) {
	conn := r.db.Conn(ctx)

	var ch domain.Challenge
	err := conn.QueryRowContext(ctx, `
		SELECT id, title, description, capacity, created_at
		FROM challenges
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&ch.ID, &ch.Title, &ch.Description, &ch.Capacity, &ch.CreatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &ch, nil
}

func (r *ChallengeRepository) ListWithOccupancy(ctx context.Context) ([]domain.ChallengeOccupancy, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT c.id, c.title, c.description, c.capacity, c.created_at,
		       COUNT(r.id) AS occupancy
		FROM challenges c
		LEFT JOIN registrations r ON r.challenge_id = c.id
		GROUP BY c.id
		ORDER BY c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenge occupancy: %w", err)
	}
	defer rows.Close()

	var out []domain.ChallengeOccupancy
	for rows.Next() {
		var co domain.ChallengeOccupancy
		if err := rows.Scan(&co.ID, &co.Title, &co.Description, &co.Capacity, &co.CreatedAt, &co.Occupancy); err != nil {
			return nil, fmt.Errorf("failed to scan challenge occupancy: %w", err)
		}
		co.Full = co.Occupancy >= co.Capacity
		out = append(out, co)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenge occupancy: %w", err)
	}

	return out, nil
}
