package model

import "time"

// CourseProgress 每个 (user, course) 一条的进度汇总。
// CompletedCount 和 Percentage 都从 lesson_completions 集合重算得出，
// TotalLessons 是首次创建时的课时数快照。
// swagger:model CourseProgress
type CourseProgress struct {
	BaseModel

	UserID         uint    `gorm:"uniqueIndex:idx_user_course_progress;not null" json:"userId"`
	CourseID       uint    `gorm:"uniqueIndex:idx_user_course_progress;not null" json:"courseId"`
	TotalLessons   int     `gorm:"default:0" json:"totalLessons"`
	CompletedCount int     `gorm:"default:0" json:"completedCount"`
	Percentage     float64 `gorm:"default:0" json:"percentage"`
}

func (CourseProgress) TableName() string {
	return "course_progress"
}

// LessonCompletion 已完成课时集合的一行，(user_id, lesson_id) 唯一。
// 完成信号可能重复投递，用集合而不是计数器保证幂等。
// swagger:model LessonCompletion
type LessonCompletion struct {
	BaseModel

	UserID      uint      `gorm:"uniqueIndex:idx_user_lesson_completion;not null" json:"userId"`
	LessonID    uint      `gorm:"uniqueIndex:idx_user_lesson_completion;not null" json:"lessonId"`
	CourseID    uint      `gorm:"index;not null" json:"courseId"`
	CompletedAt time.Time `json:"completedAt"`
}

func (LessonCompletion) TableName() string {
	return "lesson_completions"
}
