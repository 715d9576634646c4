package model

import (
	"time"
)

// User 平台用户（教师/家长/管理员）
type User struct {
	ID        string  `gorm:"primaryKey;type:varchar(32)"`
	Username  *string `gorm:"type:varchar(50);uniqueIndex:idx_username"`
	Password  *string `gorm:"type:varchar(255)"`
	FirstName string  `gorm:"type:varchar(50)"`
	LastName  string  `gorm:"type:varchar(100)"`
	Role      string  `gorm:"type:varchar(20);index"` // TEACHER / GUARDIAN / ADMIN
	IsBan     bool    `gorm:"type:tinyint(1);default:0"`
	IsDelete  bool    `gorm:"type:tinyint(1);default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}

// DisplayName 用户展示名，发送消息时做一次性快照
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
