package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/krycore/tierbot/internal/models"
)

// ChallengeServiceInterface defines the contract for challenge lifecycle operations.
type ChallengeServiceInterface interface {
	Create(ctx context.Context, challengerID, challengedID int64) (*models.PendingChallenge, error)
	Accept(ctx context.Context, challengedID int64) (*models.ActiveBattle, error)
	Expire(ctx context.Context, challengedID int64) error
	Complete(ctx context.Context, userA, userB, winnerID int64) (*models.CompletionReport, error)
	ResetAll(ctx context.Context) error
	Pending(ctx context.Context, challengedID int64) (*models.PendingChallenge, error)
	Active(ctx context.Context, userA, userB int64) (*models.ActiveBattle, error)
	ListPending(ctx context.Context) ([]models.PendingChallenge, error)
	ListActive(ctx context.Context) ([]models.ActiveBattle, error)
	ListCompleted(ctx context.Context) ([]int64, error)
	ResumeReminders(ctx context.Context) error
}

// AdjudicationServiceInterface defines the contract for winner-selection prompts.
type AdjudicationServiceInterface interface {
	Open(ctx context.Context, userA, userB int64) (*Prompt, error)
	Get(ctx context.Context, promptID uuid.UUID) (*Prompt, error)
	Resolve(ctx context.Context, promptID uuid.UUID, winnerID int64) (*models.CompletionReport, error)
}

// PointsServiceInterface defines the contract for the points ledger.
type PointsServiceInterface interface {
	Get(ctx context.Context, userID int64) (int, error)
	Add(ctx context.Context, userID int64, delta int) (int, error)
	Set(ctx context.Context, userID int64, value int) error
	Top(ctx context.Context, limit int) ([]models.PointsEntry, error)
	Reset(ctx context.Context) error
}

// FlagServiceInterface defines the contract for persisted process flags.
type FlagServiceInterface interface {
	Get(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string, value bool) error
}
