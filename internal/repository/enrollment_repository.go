package repository

import (
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

// CreateIfAbsent 依赖 (user_id, course_id) 唯一索引做条件插入，
// 重复报名不报错，返回是否新建
func (r *EnrollmentRepository) CreateIfAbsent(e *model.Enrollment) (bool, error) {
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(e)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindByUserAndCourse 条件插入撞索引后回读已有记录用
func (r *EnrollmentRepository) FindByUserAndCourse(userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) Exists(userID, courseID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

// Delete 硬删除，软删除会占着唯一索引导致无法重新报名
func (r *EnrollmentRepository) Delete(userID, courseID uint) error {
	return r.DB.Unscoped().
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&model.Enrollment{}).Error
}

// ListByCourse 返回调用时刻的报名快照
func (r *EnrollmentRepository) ListByCourse(courseID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Where("course_id = ?", courseID).
		Order("id asc").Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Where("user_id = ?", userID).
		Order("id asc").Find(&enrollments).Error
	return enrollments, err
}
