package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/krycore/tierbot/internal/models"
	"github.com/krycore/tierbot/internal/services"
)

type mockChallengeService struct {
	CreateFunc          func(ctx context.Context, challengerID, challengedID int64) (*models.PendingChallenge, error)
	AcceptFunc          func(ctx context.Context, challengedID int64) (*models.ActiveBattle, error)
	ExpireFunc          func(ctx context.Context, challengedID int64) error
	CompleteFunc        func(ctx context.Context, userA, userB, winnerID int64) (*models.CompletionReport, error)
	ResetAllFunc        func(ctx context.Context) error
	PendingFunc         func(ctx context.Context, challengedID int64) (*models.PendingChallenge, error)
	ActiveFunc          func(ctx context.Context, userA, userB int64) (*models.ActiveBattle, error)
	ListPendingFunc     func(ctx context.Context) ([]models.PendingChallenge, error)
	ListActiveFunc      func(ctx context.Context) ([]models.ActiveBattle, error)
	ListCompletedFunc   func(ctx context.Context) ([]int64, error)
	ResumeRemindersFunc func(ctx context.Context) error
}

func (m *mockChallengeService) Create(ctx context.Context, challengerID, challengedID int64) (*models.PendingChallenge, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, challengerID, challengedID)
	}
	return &models.PendingChallenge{ChallengedID: challengedID, ChallengerID: challengerID}, nil
}

func (m *mockChallengeService) Accept(ctx context.Context, challengedID int64) (*models.ActiveBattle, error) {
	if m.AcceptFunc != nil {
		return m.AcceptFunc(ctx, challengedID)
	}
	return &models.ActiveBattle{}, nil
}

func (m *mockChallengeService) Expire(ctx context.Context, challengedID int64) error {
	if m.ExpireFunc != nil {
		return m.ExpireFunc(ctx, challengedID)
	}
	return nil
}

func (m *mockChallengeService) Complete(ctx context.Context, userA, userB, winnerID int64) (*models.CompletionReport, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, userA, userB, winnerID)
	}
	return &models.CompletionReport{}, nil
}

func (m *mockChallengeService) ResetAll(ctx context.Context) error {
	if m.ResetAllFunc != nil {
		return m.ResetAllFunc(ctx)
	}
	return nil
}

func (m *mockChallengeService) Pending(ctx context.Context, challengedID int64) (*models.PendingChallenge, error) {
	if m.PendingFunc != nil {
		return m.PendingFunc(ctx, challengedID)
	}
	return nil, nil
}

func (m *mockChallengeService) Active(ctx context.Context, userA, userB int64) (*models.ActiveBattle, error) {
	if m.ActiveFunc != nil {
		return m.ActiveFunc(ctx, userA, userB)
	}
	return nil, nil
}

func (m *mockChallengeService) ListPending(ctx context.Context) ([]models.PendingChallenge, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx)
	}
	return []models.PendingChallenge{}, nil
}

func (m *mockChallengeService) ListActive(ctx context.Context) ([]models.ActiveBattle, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return []models.ActiveBattle{}, nil
}

func (m *mockChallengeService) ListCompleted(ctx context.Context) ([]int64, error) {
	if m.ListCompletedFunc != nil {
		return m.ListCompletedFunc(ctx)
	}
	return []int64{}, nil
}

func (m *mockChallengeService) ResumeReminders(ctx context.Context) error {
	if m.ResumeRemindersFunc != nil {
		return m.ResumeRemindersFunc(ctx)
	}
	return nil
}

type mockAdjudicationService struct {
	OpenFunc    func(ctx context.Context, userA, userB int64) (*services.Prompt, error)
	GetFunc     func(ctx context.Context, promptID uuid.UUID) (*services.Prompt, error)
	ResolveFunc func(ctx context.Context, promptID uuid.UUID, winnerID int64) (*models.CompletionReport, error)
}

func (m *mockAdjudicationService) Open(ctx context.Context, userA, userB int64) (*services.Prompt, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, userA, userB)
	}
	return &services.Prompt{ID: uuid.New(), UserA: userA, UserB: userB}, nil
}

func (m *mockAdjudicationService) Get(ctx context.Context, promptID uuid.UUID) (*services.Prompt, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, promptID)
	}
	return nil, services.ErrPromptNotFound
}

func (m *mockAdjudicationService) Resolve(ctx context.Context, promptID uuid.UUID, winnerID int64) (*models.CompletionReport, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, promptID, winnerID)
	}
	return &models.CompletionReport{WinnerID: winnerID}, nil
}

type mockPointsService struct {
	GetFunc   func(ctx context.Context, userID int64) (int, error)
	AddFunc   func(ctx context.Context, userID int64, delta int) (int, error)
	SetFunc   func(ctx context.Context, userID int64, value int) error
	TopFunc   func(ctx context.Context, limit int) ([]models.PointsEntry, error)
	ResetFunc func(ctx context.Context) error
}

func (m *mockPointsService) Get(ctx context.Context, userID int64) (int, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockPointsService) Add(ctx context.Context, userID int64, delta int) (int, error) {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, userID, delta)
	}
	return delta, nil
}

func (m *mockPointsService) Set(ctx context.Context, userID int64, value int) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, userID, value)
	}
	return nil
}

func (m *mockPointsService) Top(ctx context.Context, limit int) ([]models.PointsEntry, error) {
	if m.TopFunc != nil {
		return m.TopFunc(ctx, limit)
	}
	return []models.PointsEntry{}, nil
}

func (m *mockPointsService) Reset(ctx context.Context) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx)
	}
	return nil
}

type mockFlagService struct {
	GetFunc func(ctx context.Context, key string) (bool, error)
	SetFunc func(ctx context.Context, key string, value bool) error
}

func (m *mockFlagService) Get(ctx context.Context, key string) (bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return false, nil
}

func (m *mockFlagService) Set(ctx context.Context, key string, value bool) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value)
	}
	return nil
}

type sentMessage struct {
	userID    int64
	channelID int64
	text      string
}

// fakePlatform records outbound traffic and serves canned member data.
type fakePlatform struct {
	mu       sync.Mutex
	dms      []sentMessage
	channels []sentMessage
	bots     map[int64]bool
	roles    map[int64][]int64
	dmErr    error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		bots:  map[int64]bool{},
		roles: map[int64][]int64{},
	}
}

func (p *fakePlatform) SendDM(ctx context.Context, userID int64, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dmErr != nil {
		return p.dmErr
	}
	p.dms = append(p.dms, sentMessage{userID: userID, text: text})
	return nil
}

func (p *fakePlatform) SendChannel(ctx context.Context, channelID int64, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, sentMessage{channelID: channelID, text: text})
	return nil
}

func (p *fakePlatform) DisplayName(userID int64) string {
	return fmt.Sprintf("User %d", userID)
}

func (p *fakePlatform) IsBot(userID int64) bool {
	return p.bots[userID]
}

func (p *fakePlatform) MemberRoles(userID int64) []int64 {
	return p.roles[userID]
}
