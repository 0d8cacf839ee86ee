package repository

import (
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// CreateIfAbsent 条件插入，并发 start 只会落一条记录。
// 撞上 (user_id, quiz_id) 唯一索引时不报错，调用方回读已有记录。
func (r *AttemptRepository) CreateIfAbsent(a *model.QuizAttempt) (bool, error) {
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *AttemptRepository) FindByID(id uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) FindByUserAndQuiz(userID, quizID uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) Save(a *model.QuizAttempt) error {
	return r.DB.Save(a).Error
}

func (r *AttemptRepository) ListByQuiz(quizID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("quiz_id = ?", quizID).
		Order("started_at asc").Find(&attempts).Error
	return attempts, err
}

// UpsertAnswer 每题一条，重复作答覆盖所选选项。
// 只有本人会写自己的 attempt，后写覆盖先写即可。
func (r *AttemptRepository) UpsertAnswer(ans *model.QuizAnswer) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"choice_id", "updated_at"}),
	}).Create(ans).Error
}

func (r *AttemptRepository) ListAnswers(attemptID uint) ([]model.QuizAnswer, error) {
	var answers []model.QuizAnswer
	err := r.DB.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}
