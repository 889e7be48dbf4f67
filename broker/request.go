package broker

import "fmt"

// Request 是呼叫端可送出的請求，只有本 package 定義的型別可以實作
type Request interface {
	fmt.Stringer
	isRequest()
}

// ListChannels 請求公開頻道清單
type ListChannels struct{}

// ListUsers 請求成員清單
type ListUsers struct{}

// ListDirectMessages 請求私訊對話清單，最多 DirectMessageLimit 筆
type ListDirectMessages struct{}

// FetchHistory 請求頻道最新的 HistoryLimit 則訊息
type FetchHistory struct {
	ChannelID string
}

// Close 要求 broker 關閉，之後的請求都不會被處理
type Close struct{}

func (ListChannels) isRequest()       {}
func (ListUsers) isRequest()          {}
func (ListDirectMessages) isRequest() {}
func (FetchHistory) isRequest()       {}
func (Close) isRequest()              {}

func (ListChannels) String() string       { return "ListChannels" }
func (ListUsers) String() string          { return "ListUsers" }
func (ListDirectMessages) String() string { return "ListDirectMessages" }
func (r FetchHistory) String() string     { return "FetchHistory(" + r.ChannelID + ")" }
func (Close) String() string              { return "Close" }
