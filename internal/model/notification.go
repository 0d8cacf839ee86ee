package model

import "time"

const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification 一次发布事件对一个收件人的投递记录。
// (user_id, content_ref) 是幂等键，重复发布不会产生第二条记录。
// swagger:model Notification
type Notification struct {
	BaseModel

	UserID     uint   `gorm:"uniqueIndex:idx_user_content_ref;not null" json:"userId"`
	ContentRef string `gorm:"uniqueIndex:idx_user_content_ref;size:100;not null" json:"contentRef"`
	CourseID   uint   `gorm:"index;not null" json:"courseId"`
	Title      string `gorm:"size:255" json:"title"`
	Body       string `gorm:"type:text" json:"body"`

	Status    string     `gorm:"size:20;default:'pending'" json:"status"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
	LastError string     `gorm:"size:500" json:"lastError,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
