package repository

import (
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

// CreateIfAbsent (user_id, content_ref) 是幂等键，
// 重复发布同一内容不会插入第二条
func (r *NotificationRepository) CreateIfAbsent(n *model.Notification) (bool, error) {
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(n)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *NotificationRepository) MarkSent(id uint) error {
	now := time.Now()
	return r.DB.Model(&model.Notification{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.NotificationSent,
			"sent_at":    &now,
			"last_error": "",
		}).Error
}

func (r *NotificationRepository) MarkFailed(id uint, errMsg string) error {
	if len(errMsg) > 500 {
		errMsg = errMsg[:500]
	}
	return r.DB.Model(&model.Notification{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.NotificationFailed,
			"last_error": errMsg,
		}).Error
}

func (r *NotificationRepository) ListByUser(userID uint, page, limit int) ([]model.Notification, int64, error) {
	var list []model.Notification
	var total int64
	query := r.DB.Model(&model.Notification{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *NotificationRepository) CountByContentRef(contentRef string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Notification{}).
		Where("content_ref = ?", contentRef).Count(&count).Error
	return count, err
}

// ListUndelivered 供重试任务捞待重投的记录：失败的全捞，
// pending 只捞落库后一直没有状态推进的旧记录（进程在落库和
// 投递之间挂掉会留下这种孤儿），刚落库还在投递中的不算。
func (r *NotificationRepository) ListUndelivered(limit int, pendingBefore time.Time) ([]model.Notification, error) {
	var list []model.Notification
	err := r.DB.
		Where("status = ? OR (status = ? AND updated_at < ?)",
			model.NotificationFailed, model.NotificationPending, pendingBefore).
		Order("updated_at asc").Limit(limit).Find(&list).Error
	return list, err
}
