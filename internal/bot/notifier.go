package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/krycore/tierbot/internal/config"
	"github.com/krycore/tierbot/internal/logging"
	"github.com/krycore/tierbot/internal/models"
)

// PlatformNotifier turns lifecycle events into DMs and admin-log posts.
// Every send is best-effort: a user with closed DMs or a missing channel
// must never abort the transition that produced the event.
type PlatformNotifier struct {
	platform          ChatPlatform
	adminLogChannelID int64
	acceptDeadline    time.Duration
}

func NewPlatformNotifier(platform ChatPlatform, cfg config.BotConfig, acceptDeadline time.Duration) *PlatformNotifier {
	return &PlatformNotifier{
		platform:          platform,
		adminLogChannelID: cfg.AdminLogChannelID,
		acceptDeadline:    acceptDeadline,
	}
}

func (n *PlatformNotifier) deadlineHours() int {
	return int(n.acceptDeadline / time.Hour)
}

func (n *PlatformNotifier) dm(ctx context.Context, userID int64, text string) {
	if err := n.platform.SendDM(ctx, userID, text); err != nil {
		logging.Debug("DM delivery failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

func (n *PlatformNotifier) adminLog(ctx context.Context, text string) {
	if n.adminLogChannelID == 0 {
		return
	}
	if err := n.platform.SendChannel(ctx, n.adminLogChannelID, text); err != nil {
		logging.Debug("Admin log delivery failed", map[string]interface{}{
			"channel_id": n.adminLogChannelID,
			"error":      err.Error(),
		})
	}
}

func (n *PlatformNotifier) ChallengeCreated(ctx context.Context, c *models.PendingChallenge) {
	n.dm(ctx, c.ChallengedID, fmt.Sprintf(
		"⚔️ **Tier Challenge**\nYou were challenged by **%s**.\n\nReply **accept** within %d hours or you lose the battle.",
		n.platform.DisplayName(c.ChallengerID), n.deadlineHours(),
	))
	n.adminLog(ctx, fmt.Sprintf(
		"⚔️ **Tier Challenge Created**\n**Challenger:** %s\n**Challenged:** %s",
		n.platform.DisplayName(c.ChallengerID), n.platform.DisplayName(c.ChallengedID),
	))
}

func (n *PlatformNotifier) ChallengeAccepted(ctx context.Context, c *models.PendingChallenge, _ *models.ActiveBattle) {
	n.dm(ctx, c.ChallengerID, fmt.Sprintf(
		"✅ %s accepted your tier challenge.",
		n.platform.DisplayName(c.ChallengedID),
	))
	n.adminLog(ctx, fmt.Sprintf(
		"✅ **Tier Challenge Accepted**\n**Challenger:** %s\n**Challenged:** %s",
		n.platform.DisplayName(c.ChallengerID), n.platform.DisplayName(c.ChallengedID),
	))
}

func (n *PlatformNotifier) ChallengeReminder(ctx context.Context, c *models.PendingChallenge) {
	n.dm(ctx, c.ChallengedID,
		"⏰ Reminder: You have a pending tier challenge.\nReply **accept** to avoid an automatic loss.",
	)
}

func (n *PlatformNotifier) ChallengeExpired(ctx context.Context, c *models.PendingChallenge) {
	n.dm(ctx, c.ChallengerID, fmt.Sprintf(
		"❌ Battle wasn't accepted within %d hours.", n.deadlineHours(),
	))
	n.dm(ctx, c.ChallengedID,
		"❌ You did not accept the tier challenge and lost the battle.",
	)
	n.adminLog(ctx, fmt.Sprintf(
		"🚫 **Tier Challenge Expired**\n**Challenger:** %s\n**Challenged:** %s\n**Result:** Challenged player lost",
		n.platform.DisplayName(c.ChallengerID), n.platform.DisplayName(c.ChallengedID),
	))
}

func (n *PlatformNotifier) BattleCompleted(ctx context.Context, b *models.ActiveBattle, r *models.CompletionReport) {
	n.adminLog(ctx, fmt.Sprintf(
		"🏁 **Tier Battle Completed**\n**Winner:** %s\n**Players:** %s vs %s",
		n.platform.DisplayName(r.WinnerID),
		n.platform.DisplayName(b.UserA), n.platform.DisplayName(b.UserB),
	))
}
