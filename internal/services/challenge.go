package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/krycore/tierbot/internal/config"
	"github.com/krycore/tierbot/internal/logging"
	"github.com/krycore/tierbot/internal/models"
)

var (
	ErrInvalidTarget      = errors.New("invalid challenge target")
	ErrChallengePending   = errors.New("player already has a pending challenge")
	ErrBattleActive       = errors.New("player already has an active battle")
	ErrNoPendingChallenge = errors.New("no pending challenge")
	ErrNoActiveBattle     = errors.New("no active tier battle")
)

// Ledger is the points store the engine credits on completion. The credit
// runs through the caller's querier so it joins the completion transaction:
// either the battle closes and both awards land, or none of it does.
type Ledger interface {
	AddIn(ctx context.Context, q Querier, userID int64, delta int) (int, error)
}

// ChallengeService owns the challenge lifecycle state machine. Every
// transition re-reads the persisted record under a row lock before
// mutating, so a transition racing a vanished record degrades to a no-op
// (or a sentinel error) instead of acting on stale state.
type ChallengeService struct {
	db        DB
	ledger    Ledger
	notifier  Notifier
	scheduler *ReminderScheduler
	deadline  time.Duration
	now       func() time.Time
}

func NewChallengeService(ctx context.Context, db DB, ledger Ledger, notifier Notifier, cfg config.ChallengeConfig) *ChallengeService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	s := &ChallengeService{
		db:       db,
		ledger:   ledger,
		notifier: notifier,
		deadline: cfg.AcceptDeadline,
		now:      time.Now,
	}
	s.scheduler = NewReminderScheduler(ctx, cfg.ReminderInterval, s.reminderWake)
	return s
}

// Scheduler exposes the owned reminder scheduler, mainly for shutdown.
func (s *ChallengeService) Scheduler() *ReminderScheduler {
	return s.scheduler
}

// Shutdown cancels all outstanding reminder tasks.
func (s *ChallengeService) Shutdown() {
	s.scheduler.StopAll()
}

// Create records a new pending challenge against challengedID and starts
// its reminder task. Only the target's state is checked: the initiator may
// hold their own pending challenge or active battle.
func (s *ChallengeService) Create(ctx context.Context, challengerID, challengedID int64) (*models.PendingChallenge, error) {
	if challengerID == challengedID {
		return nil, ErrInvalidTarget
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create challenge: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var existing int64
	err = tx.QueryRow(ctx,
		"SELECT challenger_id FROM pending_challenges WHERE challenged_id = $1 FOR UPDATE",
		challengedID,
	).Scan(&existing)
	if err == nil {
		return nil, ErrChallengePending
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("checking pending challenge: %w", err)
	}

	var inBattle bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM active_battles WHERE user_a = $1 OR user_b = $1)",
		challengedID,
	).Scan(&inBattle)
	if err != nil {
		return nil, fmt.Errorf("checking active battle: %w", err)
	}
	if inBattle {
		return nil, ErrBattleActive
	}

	createdAt := s.now().UTC()
	_, err = tx.Exec(ctx,
		"INSERT INTO pending_challenges (challenged_id, challenger_id, created_at) VALUES ($1, $2, $3)",
		challengedID, challengerID, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting pending challenge: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create challenge: %w", err)
	}
	committed = true

	challenge := &models.PendingChallenge{
		ChallengedID: challengedID,
		ChallengerID: challengerID,
		CreatedAt:    createdAt,
	}

	s.scheduler.Start(challengedID)
	s.notifier.ChallengeCreated(ctx, challenge)

	return challenge, nil
}

// Accept converts the challenged user's pending challenge into an active
// battle and stops their reminder task. The removal of the pending record
// and the insertion of the battle are one transaction, so a reminder task
// that wakes afterwards finds nothing and exits quietly.
func (s *ChallengeService) Accept(ctx context.Context, challengedID int64) (*models.ActiveBattle, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin accept challenge: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var challengerID int64
	var createdAt time.Time
	err = tx.QueryRow(ctx,
		"SELECT challenger_id, created_at FROM pending_challenges WHERE challenged_id = $1 FOR UPDATE",
		challengedID,
	).Scan(&challengerID, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoPendingChallenge
	}
	if err != nil {
		return nil, fmt.Errorf("loading pending challenge: %w", err)
	}

	_, err = tx.Exec(ctx,
		"DELETE FROM pending_challenges WHERE challenged_id = $1",
		challengedID,
	)
	if err != nil {
		return nil, fmt.Errorf("removing pending challenge: %w", err)
	}

	userA, userB := models.OrderPair(challengedID, challengerID)
	acceptedAt := s.now().UTC()
	_, err = tx.Exec(ctx,
		"INSERT INTO active_battles (pair_key, user_a, user_b, accepted_at) VALUES ($1, $2, $3, $4)",
		models.PairKey(userA, userB), userA, userB, acceptedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting active battle: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit accept challenge: %w", err)
	}
	committed = true

	s.scheduler.Stop(challengedID)

	challenge := &models.PendingChallenge{
		ChallengedID: challengedID,
		ChallengerID: challengerID,
		CreatedAt:    createdAt,
	}
	battle := &models.ActiveBattle{UserA: userA, UserB: userB, AcceptedAt: acceptedAt}
	s.notifier.ChallengeAccepted(ctx, challenge, battle)

	return battle, nil
}

// Expire enforces the accept deadline for the challenged user: the pending
// record is removed and the forfeit is announced. Expiring a key whose
// record is already gone, or whose record was meanwhile replaced by a
// fresher challenge, is a no-op.
func (s *ChallengeService) Expire(ctx context.Context, challengedID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin expire challenge: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var challengerID int64
	var createdAt time.Time
	err = tx.QueryRow(ctx,
		"SELECT challenger_id, created_at FROM pending_challenges WHERE challenged_id = $1 FOR UPDATE",
		challengedID,
	).Scan(&challengerID, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading pending challenge: %w", err)
	}

	if s.now().Sub(createdAt) < s.deadline {
		// The record the timer saw was replaced by a fresher challenge.
		return nil
	}

	_, err = tx.Exec(ctx,
		"DELETE FROM pending_challenges WHERE challenged_id = $1",
		challengedID,
	)
	if err != nil {
		return fmt.Errorf("removing expired challenge: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit expire challenge: %w", err)
	}
	committed = true

	s.scheduler.Stop(challengedID)

	s.notifier.ChallengeExpired(ctx, &models.PendingChallenge{
		ChallengedID: challengedID,
		ChallengerID: challengerID,
		CreatedAt:    createdAt,
	})

	return nil
}

// Complete adjudicates the active battle between the pair. Both
// participants receive the same time-tiered award; the declared winner is
// recorded in the report for display only.
func (s *ChallengeService) Complete(ctx context.Context, userA, userB, winnerID int64) (*models.CompletionReport, error) {
	a, b := models.OrderPair(userA, userB)
	if winnerID != a && winnerID != b {
		return nil, ErrInvalidTarget
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin complete battle: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var acceptedAt time.Time
	err = tx.QueryRow(ctx,
		"SELECT accepted_at FROM active_battles WHERE pair_key = $1 FOR UPDATE",
		models.PairKey(a, b),
	).Scan(&acceptedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveBattle
	}
	if err != nil {
		return nil, fmt.Errorf("loading active battle: %w", err)
	}

	_, err = tx.Exec(ctx,
		"DELETE FROM active_battles WHERE pair_key = $1",
		models.PairKey(a, b),
	)
	if err != nil {
		return nil, fmt.Errorf("removing active battle: %w", err)
	}

	for _, userID := range []int64{a, b} {
		_, err = tx.Exec(ctx,
			"INSERT INTO completed_players (user_id) VALUES ($1) ON CONFLICT DO NOTHING",
			userID,
		)
		if err != nil {
			return nil, fmt.Errorf("marking player completed: %w", err)
		}
	}

	points := models.AwardPoints(s.now().Sub(acceptedAt))
	for _, userID := range []int64{a, b} {
		if _, err := s.ledger.AddIn(ctx, tx, userID, points); err != nil {
			return nil, fmt.Errorf("crediting user %d: %w", userID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit complete battle: %w", err)
	}
	committed = true

	battle := &models.ActiveBattle{UserA: a, UserB: b, AcceptedAt: acceptedAt}

	report := &models.CompletionReport{
		WinnerID: winnerID,
		LoserID:  battle.Opponent(winnerID),
		Points:   points,
	}
	s.notifier.BattleCompleted(ctx, battle, report)

	return report, nil
}

// ResetAll clears every pending challenge, active battle and completion
// marker, and cancels all reminder tasks. Point balances survive.
func (s *ChallengeService) ResetAll(ctx context.Context) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, table := range []string{"pending_challenges", "active_battles", "completed_players"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	committed = true

	s.scheduler.StopAll()

	return nil
}

// Pending returns the pending challenge against the user, or nil when none
// exists.
func (s *ChallengeService) Pending(ctx context.Context, challengedID int64) (*models.PendingChallenge, error) {
	challenge := &models.PendingChallenge{}
	err := s.db.QueryRow(ctx,
		"SELECT challenged_id, challenger_id, created_at FROM pending_challenges WHERE challenged_id = $1",
		challengedID,
	).Scan(&challenge.ChallengedID, &challenge.ChallengerID, &challenge.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading pending challenge: %w", err)
	}
	return challenge, nil
}

// Active returns the active battle for the unordered pair, or nil when none
// exists.
func (s *ChallengeService) Active(ctx context.Context, userA, userB int64) (*models.ActiveBattle, error) {
	battle := &models.ActiveBattle{}
	err := s.db.QueryRow(ctx,
		"SELECT user_a, user_b, accepted_at FROM active_battles WHERE pair_key = $1",
		models.PairKey(userA, userB),
	).Scan(&battle.UserA, &battle.UserB, &battle.AcceptedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading active battle: %w", err)
	}
	return battle, nil
}

func (s *ChallengeService) ListPending(ctx context.Context) ([]models.PendingChallenge, error) {
	rows, err := s.db.Query(ctx,
		"SELECT challenged_id, challenger_id, created_at FROM pending_challenges ORDER BY created_at ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending challenges: %w", err)
	}
	defer rows.Close()

	var challenges []models.PendingChallenge
	for rows.Next() {
		var c models.PendingChallenge
		if err := rows.Scan(&c.ChallengedID, &c.ChallengerID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning pending challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	if challenges == nil {
		challenges = []models.PendingChallenge{}
	}
	return challenges, nil
}

func (s *ChallengeService) ListActive(ctx context.Context) ([]models.ActiveBattle, error) {
	rows, err := s.db.Query(ctx,
		"SELECT user_a, user_b, accepted_at FROM active_battles ORDER BY accepted_at ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing active battles: %w", err)
	}
	defer rows.Close()

	var battles []models.ActiveBattle
	for rows.Next() {
		var b models.ActiveBattle
		if err := rows.Scan(&b.UserA, &b.UserB, &b.AcceptedAt); err != nil {
			return nil, fmt.Errorf("scanning active battle: %w", err)
		}
		battles = append(battles, b)
	}
	if battles == nil {
		battles = []models.ActiveBattle{}
	}
	return battles, nil
}

func (s *ChallengeService) ListCompleted(ctx context.Context) ([]int64, error) {
	rows, err := s.db.Query(ctx,
		"SELECT user_id FROM completed_players ORDER BY completed_at ASC, user_id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing completed players: %w", err)
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning completed player: %w", err)
		}
		users = append(users, id)
	}
	if users == nil {
		users = []int64{}
	}
	return users, nil
}

// ResumeReminders restarts one reminder task per persisted pending
// challenge. Called once at startup.
func (s *ChallengeService) ResumeReminders(ctx context.Context) error {
	pending, err := s.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("resuming reminders: %w", err)
	}
	for _, c := range pending {
		s.scheduler.Start(c.ChallengedID)
	}
	return nil
}

// reminderWake runs on every timer wake. A persistence failure keeps the
// task alive for a retry on the next wake instead of crashing it.
func (s *ChallengeService) reminderWake(ctx context.Context, challengedID int64) bool {
	pending, err := s.Pending(ctx, challengedID)
	if err != nil {
		logging.Error("Reminder wake failed", map[string]interface{}{
			"challenged_id": challengedID,
			"error":         err.Error(),
		})
		return false
	}
	if pending == nil {
		return true
	}

	if s.now().Sub(pending.CreatedAt) >= s.deadline {
		if err := s.Expire(ctx, challengedID); err != nil {
			logging.Error("Challenge expiry failed", map[string]interface{}{
				"challenged_id": challengedID,
				"error":         err.Error(),
			})
			return false
		}
		return true
	}

	s.notifier.ChallengeReminder(ctx, pending)
	return false
}
