package models

import (
	"fmt"
	"time"
)

// PendingChallenge is an unaccepted tier-challenge invitation. A user can be
// the challenged party of at most one pending challenge at a time.
type PendingChallenge struct {
	ChallengedID int64     `json:"challenged_id"`
	ChallengerID int64     `json:"challenger_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// ActiveBattle is an accepted, in-progress duel between an unordered pair of
// users. UserA is always the smaller ID.
type ActiveBattle struct {
	UserA      int64     `json:"user_a"`
	UserB      int64     `json:"user_b"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// PairKey returns the canonical order-independent key for a pair of user
// IDs: the two IDs ascending, joined with a colon.
func PairKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// OrderPair returns the two IDs in ascending order.
func OrderPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// Key returns the battle's canonical pair key.
func (b ActiveBattle) Key() string {
	return PairKey(b.UserA, b.UserB)
}

// Involves reports whether the given user is a participant.
func (b ActiveBattle) Involves(userID int64) bool {
	return b.UserA == userID || b.UserB == userID
}

// Opponent returns the other participant. The caller must pass a
// participant's ID.
func (b ActiveBattle) Opponent(userID int64) int64 {
	if b.UserA == userID {
		return b.UserB
	}
	return b.UserA
}

// PointsEntry is one row of the points ledger.
type PointsEntry struct {
	UserID int64 `json:"user_id"`
	Points int   `json:"points"`
}

// CompletionReport describes an adjudicated battle. Both participants
// receive Points; Winner is recorded for display only.
type CompletionReport struct {
	WinnerID int64 `json:"winner_id"`
	LoserID  int64 `json:"loser_id"`
	Points   int   `json:"points"`
}

// Award tiers by time from acceptance to adjudication.
const (
	AwardFast   = 5
	AwardMedium = 3
	AwardSlow   = 1

	AwardFastCutoff   = 24 * time.Hour
	AwardMediumCutoff = 48 * time.Hour
)

// AwardPoints returns the per-participant point award for a battle
// adjudicated the given duration after acceptance. Cutoffs are inclusive:
// exactly 24h still pays the fast tier, exactly 48h the medium tier.
func AwardPoints(elapsed time.Duration) int {
	switch {
	case elapsed <= AwardFastCutoff:
		return AwardFast
	case elapsed <= AwardMediumCutoff:
		return AwardMedium
	default:
		return AwardSlow
	}
}
