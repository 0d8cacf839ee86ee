package model

import "time"

const (
	AttemptInProgress = "in_progress"
	AttemptCompleted  = "completed"
)

// QuizAttempt 一个学员对一份测验的作答记录，(user_id, quiz_id) 唯一。
// completed 是终态，Score 在完成前为 null。
// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel

	QuizID      uint       `gorm:"uniqueIndex:idx_user_quiz_attempt;not null" json:"quizId"`
	UserID      uint       `gorm:"uniqueIndex:idx_user_quiz_attempt;not null" json:"userId"`
	Status      string     `gorm:"size:20;default:'in_progress'" json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Score       *float64   `json:"score,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) IsCompleted() bool {
	return a.Status == AttemptCompleted
}

// QuizAnswer 每题一条，(attempt_id, question_id) 唯一，后写覆盖先写
// swagger:model QuizAnswer
type QuizAnswer struct {
	BaseModel

	AttemptID  uint `gorm:"uniqueIndex:idx_attempt_question;not null" json:"attemptId"`
	QuestionID uint `gorm:"uniqueIndex:idx_attempt_question;not null" json:"questionId"`
	ChoiceID   uint `gorm:"not null" json:"choiceId"`
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}
