package services

import (
	"context"

	"github.com/krycore/tierbot/internal/models"
)

// Notifier receives lifecycle events for delivery to the chat platform.
// Delivery is best-effort by contract: implementations swallow transport
// failures so a notification can never abort the state transition that
// produced it.
type Notifier interface {
	ChallengeCreated(ctx context.Context, challenge *models.PendingChallenge)
	ChallengeAccepted(ctx context.Context, challenge *models.PendingChallenge, battle *models.ActiveBattle)
	ChallengeReminder(ctx context.Context, challenge *models.PendingChallenge)
	ChallengeExpired(ctx context.Context, challenge *models.PendingChallenge)
	BattleCompleted(ctx context.Context, battle *models.ActiveBattle, report *models.CompletionReport)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) ChallengeCreated(context.Context, *models.PendingChallenge) {}
func (NopNotifier) ChallengeAccepted(context.Context, *models.PendingChallenge, *models.ActiveBattle) {
}
func (NopNotifier) ChallengeReminder(context.Context, *models.PendingChallenge) {}
func (NopNotifier) ChallengeExpired(context.Context, *models.PendingChallenge)  {}
func (NopNotifier) BattleCompleted(context.Context, *models.ActiveBattle, *models.CompletionReport) {
}
