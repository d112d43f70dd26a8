package bot

import (
	"context"
	"fmt"

	"github.com/krycore/tierbot/internal/logging"
)

// ChatPlatform is the outbound edge of the bot: everything the command
// layer needs from the chat service it runs on. The process ships with
// LogPlatform so it can run headless; a real client implements this at
// the binary's edge.
type ChatPlatform interface {
	SendDM(ctx context.Context, userID int64, text string) error
	SendChannel(ctx context.Context, channelID int64, text string) error
	DisplayName(userID int64) string
	IsBot(userID int64) bool
	MemberRoles(userID int64) []int64
}

// LogPlatform writes every outbound message to the structured log instead
// of a chat service.
type LogPlatform struct{}

func (LogPlatform) SendDM(ctx context.Context, userID int64, text string) error {
	logging.Info("DM", map[string]interface{}{
		"user_id": userID,
		"text":    text,
	})
	return nil
}

func (LogPlatform) SendChannel(ctx context.Context, channelID int64, text string) error {
	logging.Info("Channel message", map[string]interface{}{
		"channel_id": channelID,
		"text":       text,
	})
	return nil
}

func (LogPlatform) DisplayName(userID int64) string {
	return fmt.Sprintf("User %d", userID)
}

func (LogPlatform) IsBot(userID int64) bool { return false }

func (LogPlatform) MemberRoles(userID int64) []int64 { return nil }
