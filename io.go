package main

import (
	"log/slog"

	"github.com/samber/lo"

	"slackbroker/broker"
	"slackbroker/models"
)

// responseAttrs 將回應整理成日誌欄位
func responseAttrs(resp broker.Response) (string, []any) {
	switch r := resp.(type) {
	case broker.ChannelList:
		return "channels", []any{
			slog.Int("count", len(r.Channels)),
			slog.Any("names", lo.Map(r.Channels, func(c models.Channel, _ int) string { return c.Name })),
		}
	case broker.UserList:
		active := lo.Filter(r.Users, func(u models.User, _ int) bool { return !u.Deleted })
		return "users", []any{
			slog.Int("count", len(r.Users)),
			slog.Any("names", lo.Map(active, func(u models.User, _ int) string { return u.DisplayName() })),
		}
	case broker.DirectMessageList:
		return "direct messages", []any{
			slog.Int("count", len(r.Conversations)),
			slog.Any("users", lo.Map(r.Conversations, func(c models.Conversation, _ int) string { return c.User })),
		}
	case broker.History:
		return "history", []any{
			slog.String("channel", r.ChannelID),
			slog.Int("count", len(r.Messages)),
		}
	case broker.StreamEvent:
		return "stream event", []any{
			slog.String("kind", r.Event.Kind.String()),
			slog.String("type", r.Event.Type()),
			slog.Int("size", len(r.Event.Data)),
		}
	default:
		return "unknown response", nil
	}
}

func logResponse(logger *slog.Logger, resp broker.Response) {
	msg, attrs := responseAttrs(resp)
	logger.Info(msg, attrs...)
}
