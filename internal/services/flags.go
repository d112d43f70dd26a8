package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// FlagService stores named process flags that survive restarts, such as
// "has the one-time startup announcement been sent".
type FlagService struct {
	db DB
}

func NewFlagService(db DB) *FlagService {
	return &FlagService{db: db}
}

func (s *FlagService) Get(ctx context.Context, key string) (bool, error) {
	var value bool
	err := s.db.QueryRow(ctx,
		"SELECT value FROM flags WHERE key = $1",
		key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting flag %q: %w", key, err)
	}
	return value, nil
}

func (s *FlagService) Set(ctx context.Context, key string, value bool) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO flags (key, value)
		 VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting flag %q: %w", key, err)
	}
	return nil
}
