package models

// Message 代表頻道歷史中的一則訊息
// TS 同時是訊息在頻道內的唯一識別
type Message struct {
	Type     string `json:"type"`
	Subtype  string `json:"subtype,omitempty"`
	User     string `json:"user"`
	Text     string `json:"text"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts,omitempty"`
}
