package models

// Notification 通知。confirmed 为真当且仅当 confirmedCount >= 1
type Notification struct {
	ID             int64  `json:"id"`
	CreatedAt      string `json:"createdAt"`
	Title          string `json:"title,omitempty"`
	Message        string `json:"message,omitempty"`
	Content        string `json:"content,omitempty"`
	Publisher      string `json:"publisher,omitempty"`
	Type           string `json:"type,omitempty"`
	Read           bool   `json:"read"`
	Confirmed      bool   `json:"confirmed"`
	ConfirmedCount int    `json:"confirmedCount"`
}

// NotificationStat 通知确认统计
type NotificationStat struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Confirmed   int      `json:"confirmed"`
	Unconfirmed []string `json:"unconfirmed"`
}
