package models

// Channel 代表一個公開頻道
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsMember   bool   `json:"is_member"`
	IsArchived bool   `json:"is_archived"`
	Topic      string `json:"topic"`
	Purpose    string `json:"purpose"`
}
