package repository

import (
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// GetOrCreate 首次完成信号时建聚合记录，totalLessons 取当时快照。
// 并发创建由唯一索引兜底，创建没生效就回读。
func (r *ProgressRepository) GetOrCreate(userID, courseID uint, totalLessons int) (*model.CourseProgress, error) {
	p := &model.CourseProgress{
		UserID:       userID,
		CourseID:     courseID,
		TotalLessons: totalLessons,
	}
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(p)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		return p, nil
	}
	return r.FindByUserAndCourse(userID, courseID)
}

func (r *ProgressRepository) FindByUserAndCourse(userID, courseID uint) (*model.CourseProgress, error) {
	var p model.CourseProgress
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) ListByCourse(courseID uint) ([]model.CourseProgress, error) {
	var list []model.CourseProgress
	err := r.DB.Where("course_id = ?", courseID).
		Order("user_id asc").Find(&list).Error
	return list, err
}

// AddCompletion 已完成集合的 add-if-absent，重复信号返回 false
func (r *ProgressRepository) AddCompletion(lc *model.LessonCompletion) (bool, error) {
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(lc)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ProgressRepository) CountCompletions(userID, courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LessonCompletion{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count, err
}

func (r *ProgressRepository) ListCompletions(userID, courseID uint) ([]model.LessonCompletion, error) {
	var list []model.LessonCompletion
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("completed_at asc").Find(&list).Error
	return list, err
}

// UpdateAggregate 把集合重算结果写入汇总字段。完成数只增不减，
// 写入是单调的：并发重算时基于过期计数的那一方会被条件挡掉，
// 不会用旧值覆盖新值。
func (r *ProgressRepository) UpdateAggregate(id uint, totalLessons, completedCount int, percentage float64) error {
	return r.DB.Model(&model.CourseProgress{}).
		Where("id = ? AND completed_count < ?", id, completedCount).
		Updates(map[string]interface{}{
			"total_lessons":   totalLessons,
			"completed_count": completedCount,
			"percentage":      percentage,
		}).Error
}
