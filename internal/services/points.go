package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/krycore/tierbot/internal/models"
)

// PointsService is the points ledger: one signed integer balance per user,
// default 0. The ledger itself permits negative balances; callers that must
// not overdraw (the shop) check the balance first.
type PointsService struct {
	db DB
}

func NewPointsService(db DB) *PointsService {
	return &PointsService{db: db}
}

func (s *PointsService) Get(ctx context.Context, userID int64) (int, error) {
	var points int
	err := s.db.QueryRow(ctx,
		"SELECT points FROM points WHERE user_id = $1",
		userID,
	).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting points: %w", err)
	}
	return points, nil
}

// Add applies a signed delta to the user's balance and returns the new
// total. Absent users start from 0.
func (s *PointsService) Add(ctx context.Context, userID int64, delta int) (int, error) {
	return s.AddIn(ctx, s.db, userID, delta)
}

// AddIn is Add running through the caller's querier, so callers holding an
// open transaction can make the credit part of it.
func (s *PointsService) AddIn(ctx context.Context, q Querier, userID int64, delta int) (int, error) {
	var total int
	err := q.QueryRow(ctx,
		`INSERT INTO points (user_id, points)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET points = points.points + EXCLUDED.points
		 RETURNING points`,
		userID, delta,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("adding points: %w", err)
	}
	return total, nil
}

func (s *PointsService) Set(ctx context.Context, userID int64, value int) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO points (user_id, points)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET points = EXCLUDED.points`,
		userID, value,
	)
	if err != nil {
		return fmt.Errorf("setting points: %w", err)
	}
	return nil
}

func (s *PointsService) Top(ctx context.Context, limit int) ([]models.PointsEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(ctx,
		"SELECT user_id, points FROM points ORDER BY points DESC, user_id ASC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing top points: %w", err)
	}
	defer rows.Close()

	var entries []models.PointsEntry
	for rows.Next() {
		var e models.PointsEntry
		if err := rows.Scan(&e.UserID, &e.Points); err != nil {
			return nil, fmt.Errorf("scanning points entry: %w", err)
		}
		entries = append(entries, e)
	}
	if entries == nil {
		entries = []models.PointsEntry{}
	}
	return entries, nil
}

func (s *PointsService) Reset(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM points"); err != nil {
		return fmt.Errorf("resetting points: %w", err)
	}
	return nil
}
