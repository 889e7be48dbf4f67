package models

// User 代表工作區中的一位成員
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	Deleted  bool   `json:"deleted"`
	IsBot    bool   `json:"is_bot"`
	TZ       string `json:"tz"`
}

// DisplayName 優先回傳真實姓名，沒有時回傳帳號名稱
func (u User) DisplayName() string {
	if u.RealName != "" {
		return u.RealName
	}
	return u.Name
}
