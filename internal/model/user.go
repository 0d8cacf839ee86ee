package model

import (
	"time"
)

type UserRole string

const (
	RoleLearner UserRole = "learner"
	RoleOwner   UserRole = "owner"
	RoleAdmin   UserRole = "admin"
)

// User 平台用户。Role 仅作展示用途，课程访问控制以
// Course.OwnerID 和 Enrollment 关系为准。
// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"size:20;default:'learner'" json:"role"`
	Language  string    `gorm:"size:10;default:'en'" json:"language"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	Disabled  bool      `gorm:"default:false" json:"disabled"`
	LastLogin time.Time `json:"lastLogin"`
	LastSeen  time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
