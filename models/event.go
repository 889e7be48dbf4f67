package models

import "encoding/json"

// EventKind 表示即時串流中原始訊框的種類
type EventKind int

const (
	EventText EventKind = iota + 1
	EventBinary
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Event 是後端透過即時串流推送的原始訊框，不做任何解析
type Event struct {
	Kind EventKind
	Data []byte
}

// Type 讀取文字訊框中 JSON 的 "type" 欄位；
// 非文字訊框或無法解析時回傳空字串。
func (e Event) Type() string {
	if e.Kind != EventText {
		return ""
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(e.Data, &head); err != nil {
		return ""
	}
	return head.Type
}
