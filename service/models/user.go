package models

// User 平台账号，密码仅保存 bcrypt 摘要
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash,omitempty"`
	Role         string `json:"role"`
}

// Session 当前登录用户，保存在 <namespace>-current 槽位
type Session struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token,omitempty"`
	LoginAt  string `json:"loginAt,omitempty"`
}
