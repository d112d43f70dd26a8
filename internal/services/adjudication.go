package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/krycore/tierbot/internal/models"
)

const promptKeyPrefix = "adjudication:prompt:"

var (
	ErrPromptNotFound = errors.New("adjudication prompt not found or expired")
	ErrInvalidWinner  = errors.New("winner is not a battle participant")
)

// Prompt is a short-lived winner-selection ticket for one active battle.
type Prompt struct {
	ID         uuid.UUID `json:"id"`
	UserA      int64     `json:"user_a"`
	UserB      int64     `json:"user_b"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// BattleFinisher is the slice of the challenge engine adjudication needs.
type BattleFinisher interface {
	Active(ctx context.Context, userA, userB int64) (*models.ActiveBattle, error)
	Complete(ctx context.Context, userA, userB, winnerID int64) (*models.CompletionReport, error)
}

// AdjudicationService issues single-use winner prompts backed by Redis.
// The TTL bounds how long a prompt stays clickable; consuming one is a
// GETDEL so concurrent clicks race for a single resolution.
type AdjudicationService struct {
	redis   *redis.Client
	battles BattleFinisher
	ttl     time.Duration
}

func NewAdjudicationService(redisClient *redis.Client, battles BattleFinisher, ttl time.Duration) *AdjudicationService {
	return &AdjudicationService{
		redis:   redisClient,
		battles: battles,
		ttl:     ttl,
	}
}

// Open creates a prompt for the pair's active battle.
func (s *AdjudicationService) Open(ctx context.Context, userA, userB int64) (*Prompt, error) {
	battle, err := s.battles.Active(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	if battle == nil {
		return nil, ErrNoActiveBattle
	}

	prompt := &Prompt{
		ID:         uuid.New(),
		UserA:      battle.UserA,
		UserB:      battle.UserB,
		AcceptedAt: battle.AcceptedAt,
	}

	payload, err := json.Marshal(prompt)
	if err != nil {
		return nil, fmt.Errorf("encoding prompt: %w", err)
	}

	if err := s.redis.Set(ctx, promptKeyPrefix+prompt.ID.String(), payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("storing prompt: %w", err)
	}

	return prompt, nil
}

// Get loads a prompt without consuming it.
func (s *AdjudicationService) Get(ctx context.Context, promptID uuid.UUID) (*Prompt, error) {
	payload, err := s.redis.Get(ctx, promptKeyPrefix+promptID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPromptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading prompt: %w", err)
	}

	var prompt Prompt
	if err := json.Unmarshal(payload, &prompt); err != nil {
		return nil, fmt.Errorf("decoding prompt: %w", err)
	}
	return &prompt, nil
}

// Resolve consumes the prompt and completes its battle with the selected
// winner. Picking a non-participant leaves the prompt intact so the voter
// can try again.
func (s *AdjudicationService) Resolve(ctx context.Context, promptID uuid.UUID, winnerID int64) (*models.CompletionReport, error) {
	prompt, err := s.Get(ctx, promptID)
	if err != nil {
		return nil, err
	}
	if winnerID != prompt.UserA && winnerID != prompt.UserB {
		return nil, ErrInvalidWinner
	}

	key := promptKeyPrefix + promptID.String()
	if err := s.redis.GetDel(ctx, key).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPromptNotFound
		}
		return nil, fmt.Errorf("consuming prompt: %w", err)
	}

	return s.battles.Complete(ctx, prompt.UserA, prompt.UserB, winnerID)
}
