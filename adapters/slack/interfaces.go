//go:generate mockgen -package=slack -destination=mock.go -source=interfaces.go

package slack

import (
	"context"

	"slackbroker/models"
)

// IClient 定義了聊天後端 API 的操作介面
type IClient interface {
	// ListChannels 取得公開頻道清單
	ListChannels(ctx context.Context) ([]models.Channel, error)
	// ListUsers 取得工作區成員清單
	ListUsers(ctx context.Context) ([]models.User, error)
	// ListDirectMessages 取得最多 limit 筆私訊對話
	ListDirectMessages(ctx context.Context, limit int) ([]models.Conversation, error)
	// FetchHistory 取得頻道最新的 limit 則訊息
	FetchHistory(ctx context.Context, channelID string, limit int) ([]models.Message, error)
	// ConnectStream 向後端申請即時串流，回傳 websocket 連線位址
	ConnectStream(ctx context.Context) (string, error)
}
