package model

import "time"

// Student 学生档案
type Student struct {
	ID        string `gorm:"primaryKey;type:varchar(32)"`
	Name      string `gorm:"type:varchar(100)"`
	ClassID   string `gorm:"type:varchar(32);index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Student) TableName() string { return "students" }

// GuardianLink 家长与学生的关联关系，考勤/日常记录事件据此扇出
type GuardianLink struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	GuardianID string `gorm:"type:varchar(32);uniqueIndex:idx_guardian_student"`
	StudentID  string `gorm:"type:varchar(32);uniqueIndex:idx_guardian_student;index"`
	Relation   string `gorm:"type:varchar(20)"` // mother / father / tutor
	CreatedAt  time.Time
}

func (GuardianLink) TableName() string { return "guardian_links" }
