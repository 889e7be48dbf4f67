package broker

import "slackbroker/models"

// Response 是 broker 回傳給呼叫端的結果，只有本 package 定義的型別可以實作
type Response interface {
	isResponse()
}

type ChannelList struct {
	Channels []models.Channel
}

type DirectMessageList struct {
	Conversations []models.Conversation
}

type UserList struct {
	Users []models.User
}

type History struct {
	ChannelID string
	Messages  []models.Message
}

// StreamEvent 包裝即時串流上收到的原始 frame
type StreamEvent struct {
	Event models.Event
}

func (ChannelList) isResponse()       {}
func (DirectMessageList) isResponse() {}
func (UserList) isResponse()          {}
func (History) isResponse()           {}
func (StreamEvent) isResponse()       {}
