package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/krycore/tierbot/internal/config"
	"github.com/krycore/tierbot/internal/logging"
	"github.com/krycore/tierbot/internal/services"
)

const (
	permissionDeniedReply = "❌ You don't have permission to use this command."

	// startupFlagKey guards the one-time online announcement across restarts.
	startupFlagKey = "startup_announce_sent"
)

// Handler is the command surface of the bot. Every command returns the
// reply text for the invoker; side effects (DMs, admin log posts) flow
// through the services' notifier.
type Handler struct {
	challenges   services.ChallengeServiceInterface
	adjudication services.AdjudicationServiceInterface
	points       services.PointsServiceInterface
	flags        services.FlagServiceInterface
	platform     ChatPlatform
	cfg          config.BotConfig
}

func NewHandler(
	challenges services.ChallengeServiceInterface,
	adjudication services.AdjudicationServiceInterface,
	points services.PointsServiceInterface,
	flags services.FlagServiceInterface,
	platform ChatPlatform,
	cfg config.BotConfig,
) *Handler {
	return &Handler{
		challenges:   challenges,
		adjudication: adjudication,
		points:       points,
		flags:        flags,
		platform:     platform,
		cfg:          cfg,
	}
}

func (h *Handler) isAdmin(userID int64) bool {
	return h.cfg.IsAdminRole(h.platform.MemberRoles(userID))
}

// Tier handles "/tier @user": create a challenge against the target.
func (h *Handler) Tier(ctx context.Context, invokerID, targetID int64) (string, error) {
	if h.platform.IsBot(targetID) || targetID == invokerID {
		return "❌ Invalid player.", nil
	}

	_, err := h.challenges.Create(ctx, invokerID, targetID)
	switch {
	case errors.Is(err, services.ErrInvalidTarget):
		return "❌ Invalid player.", nil
	case errors.Is(err, services.ErrChallengePending):
		return "❌ That player already has a pending challenge.", nil
	case errors.Is(err, services.ErrBattleActive):
		return "❌ That player already has an active battle.", nil
	case err != nil:
		return "", fmt.Errorf("creating challenge: %w", err)
	}

	return fmt.Sprintf("⚔️ Tier challenge sent to %s.", h.platform.DisplayName(targetID)), nil
}

// HandleDirectMessage is the free-text accept path: a DM whose trimmed,
// lowercased body is exactly "accept" accepts the author's pending
// challenge. Anything else, including an accept with nothing pending, is
// ignored without a reply.
func (h *Handler) HandleDirectMessage(ctx context.Context, authorID int64, content string) {
	if strings.ToLower(strings.TrimSpace(content)) != "accept" {
		return
	}

	_, err := h.challenges.Accept(ctx, authorID)
	if errors.Is(err, services.ErrNoPendingChallenge) {
		return
	}
	if err != nil {
		logging.Error("DM accept failed", map[string]interface{}{
			"user_id": authorID,
			"error":   err.Error(),
		})
		return
	}

	if err := h.platform.SendDM(ctx, authorID, "✅ Tier challenge accepted. The battle is now active."); err != nil {
		logging.Debug("DM delivery failed", map[string]interface{}{
			"user_id": authorID,
			"error":   err.Error(),
		})
	}
}

// AcceptButton is the structured accept path, sharing the same transition
// as the DM listener.
func (h *Handler) AcceptButton(ctx context.Context, userID int64) (string, error) {
	_, err := h.challenges.Accept(ctx, userID)
	if errors.Is(err, services.ErrNoPendingChallenge) {
		return "❌ You have no pending tier challenge.", nil
	}
	if err != nil {
		return "", fmt.Errorf("accepting challenge: %w", err)
	}
	return "✅ Tier challenge accepted. The battle is now active.", nil
}

// BattleComplete handles "/battlecomplete @user": open a winner prompt for
// the invoker's battle with the target. The prompt carries the button
// identities the platform edge renders.
func (h *Handler) BattleComplete(ctx context.Context, invokerID, targetID int64) (*services.Prompt, string, error) {
	prompt, err := h.adjudication.Open(ctx, invokerID, targetID)
	if errors.Is(err, services.ErrNoActiveBattle) {
		return nil, "❌ No active tier battle found.", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("opening adjudication: %w", err)
	}
	return prompt, "🏁 Who won the tier battle?", nil
}

// ResolveWinner is the winner button callback.
func (h *Handler) ResolveWinner(ctx context.Context, promptID uuid.UUID, winnerID int64) (string, error) {
	report, err := h.adjudication.Resolve(ctx, promptID, winnerID)
	switch {
	case errors.Is(err, services.ErrPromptNotFound), errors.Is(err, services.ErrNoActiveBattle):
		return "❌ Battle no longer active.", nil
	case errors.Is(err, services.ErrInvalidWinner):
		return "❌ That player is not part of this battle.", nil
	case err != nil:
		return "", fmt.Errorf("resolving winner: %w", err)
	}

	return fmt.Sprintf("🏁 Winner: **%s** (+%d points each)",
		h.platform.DisplayName(report.WinnerID), report.Points), nil
}

// Battles handles "/battles" (admin): pending and active listings.
func (h *Handler) Battles(ctx context.Context, invokerID int64) (string, error) {
	if !h.isAdmin(invokerID) {
		return permissionDeniedReply, nil
	}

	pending, err := h.challenges.ListPending(ctx)
	if err != nil {
		return "", fmt.Errorf("listing pending challenges: %w", err)
	}
	active, err := h.challenges.ListActive(ctx)
	if err != nil {
		return "", fmt.Errorf("listing active battles: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 **Tier Battles**\n**Pending (%d)**\n", len(pending))
	if len(pending) == 0 {
		b.WriteString("—\n")
	}
	for _, p := range pending {
		fmt.Fprintf(&b, "• %s ➜ %s\n",
			h.platform.DisplayName(p.ChallengerID), h.platform.DisplayName(p.ChallengedID))
	}
	fmt.Fprintf(&b, "**Active (%d)**\n", len(active))
	if len(active) == 0 {
		b.WriteString("—")
	}
	for i, a := range active {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "• %s vs %s",
			h.platform.DisplayName(a.UserA), h.platform.DisplayName(a.UserB))
	}
	return b.String(), nil
}

// TierList handles "/tierlist" (admin): players who completed a battle.
func (h *Handler) TierList(ctx context.Context, invokerID int64) (string, error) {
	if !h.isAdmin(invokerID) {
		return permissionDeniedReply, nil
	}

	completed, err := h.challenges.ListCompleted(ctx)
	if err != nil {
		return "", fmt.Errorf("listing completed players: %w", err)
	}
	if len(completed) == 0 {
		return "❌ No completed tier battles.", nil
	}

	lines := make([]string, 0, len(completed)+1)
	lines = append(lines, "🏆 **Completed Tier Battles**")
	for _, userID := range completed {
		lines = append(lines, "• "+h.platform.DisplayName(userID))
	}
	return strings.Join(lines, "\n"), nil
}

// ClearList handles "/clearlist" (admin): reset the whole tier system.
func (h *Handler) ClearList(ctx context.Context, invokerID int64) (string, error) {
	if !h.isAdmin(invokerID) {
		return permissionDeniedReply, nil
	}

	if err := h.challenges.ResetAll(ctx); err != nil {
		return "", fmt.Errorf("resetting tier system: %w", err)
	}
	return "🧹 Tier system reset.", nil
}

// Points handles "/points": the invoker's balance.
func (h *Handler) Points(ctx context.Context, invokerID int64) (string, error) {
	points, err := h.points.Get(ctx, invokerID)
	if err != nil {
		return "", fmt.Errorf("getting points: %w", err)
	}
	return fmt.Sprintf("⭐ You have **%d points**.", points), nil
}

// Leaderboard handles "/leaderboard": top ten balances.
func (h *Handler) Leaderboard(ctx context.Context) (string, error) {
	top, err := h.points.Top(ctx, 10)
	if err != nil {
		return "", fmt.Errorf("listing leaderboard: %w", err)
	}
	if len(top) == 0 {
		return "❌ No points have been earned yet.", nil
	}

	lines := make([]string, 0, len(top)+1)
	lines = append(lines, "🏆 **Tier Leaderboard**")
	for i, entry := range top {
		lines = append(lines, fmt.Sprintf("**#%d** %s — ⭐ %d",
			i+1, h.platform.DisplayName(entry.UserID), entry.Points))
	}
	return strings.Join(lines, "\n"), nil
}

// Shop handles "/shop": the static reward table.
func (h *Handler) Shop() string {
	lines := make([]string, 0, len(shopItems)+1)
	lines = append(lines, "🛒 **Points Shop**")
	for _, item := range shopItems {
		lines = append(lines, fmt.Sprintf("• **%s** — %d points", item.Name, item.Cost))
	}
	return strings.Join(lines, "\n")
}

// Redeem handles "/redeem item": spend points on a shop item. The balance
// check happens here so the ledger never goes negative through the shop.
func (h *Handler) Redeem(ctx context.Context, invokerID int64, itemName string) (string, error) {
	item, ok := findShopItem(itemName)
	if !ok {
		return "❌ Invalid item.", nil
	}

	balance, err := h.points.Get(ctx, invokerID)
	if err != nil {
		return "", fmt.Errorf("getting points: %w", err)
	}
	if balance < item.Cost {
		return "❌ Not enough points.", nil
	}

	if err := h.points.Set(ctx, invokerID, balance-item.Cost); err != nil {
		return "", fmt.Errorf("deducting points: %w", err)
	}
	return fmt.Sprintf("✅ Redeemed **%s** for %d points.", item.Name, item.Cost), nil
}

// AddPoints handles "/addpoints @user n" (admin): apply a signed delta.
func (h *Handler) AddPoints(ctx context.Context, invokerID, targetID int64, amount int) (string, error) {
	if !h.isAdmin(invokerID) {
		return permissionDeniedReply, nil
	}
	if amount == 0 {
		return "Amount must not be 0.", nil
	}

	total, err := h.points.Add(ctx, targetID, amount)
	if err != nil {
		return "", fmt.Errorf("adding points: %w", err)
	}
	return fmt.Sprintf("✅ %s now has **%d** points.", h.platform.DisplayName(targetID), total), nil
}

// Announce handles "/announce text" (admin): post to the announcement
// channel.
func (h *Handler) Announce(ctx context.Context, invokerID int64, message string) (string, error) {
	if !h.isAdmin(invokerID) {
		return permissionDeniedReply, nil
	}

	if err := h.platform.SendChannel(ctx, h.cfg.AnnouncementChannelID, "📢 **Announcement**\n"+message); err != nil {
		return "", fmt.Errorf("sending announcement: %w", err)
	}
	return "✅ Announcement sent.", nil
}

// AnnounceStartup posts the one-time online message, guarded by a
// persisted flag so restarts stay quiet.
func (h *Handler) AnnounceStartup(ctx context.Context) error {
	sent, err := h.flags.Get(ctx, startupFlagKey)
	if err != nil {
		return fmt.Errorf("checking startup flag: %w", err)
	}
	if sent {
		return nil
	}

	if err := h.platform.SendChannel(ctx, h.cfg.AnnouncementChannelID,
		"🔥 **Tier system online**\nChallenges, battles and the points shop are live.",
	); err != nil {
		return fmt.Errorf("sending startup announcement: %w", err)
	}

	if err := h.flags.Set(ctx, startupFlagKey, true); err != nil {
		return fmt.Errorf("recording startup flag: %w", err)
	}
	return nil
}

// ResumeReminders restores reminder tasks for persisted pending
// challenges after a restart.
func (h *Handler) ResumeReminders(ctx context.Context) error {
	return h.challenges.ResumeReminders(ctx)
}
