// Package model 定义领域模型。
package model

import "time"

// User 表示系统用户。单用户日志应用，核心只有一个隐式的 admin 账号。
type User struct {
	ID        int64
	Username  string
	Password  string // bcrypt 哈希；历史数据可能残留明文（见 auth 包的迁移逻辑）
	Nickname  string
	Email     string
	CreatedAt time.Time
}

// Session 表示一次登录会话。
// Cookie 只携带不透明的会话 ID，有效期在数据库侧校验。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
