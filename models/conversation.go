package models

import "time"

// Conversation 代表與單一使用者的私訊對話
type Conversation struct {
	ID            string    `json:"id"`
	User          string    `json:"user"`
	Created       time.Time `json:"created"`
	IsUserDeleted bool      `json:"is_user_deleted"`
}
