package model

import "time"

// swagger:model Quiz
type Quiz struct {
	BaseModel

	CourseID    uint   `gorm:"index;not null" json:"courseId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	// TimeLimitMinutes 为 0 表示不限时
	TimeLimitMinutes int        `gorm:"default:0" json:"timeLimitMinutes"`
	IsPublished      bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt      *time.Time `json:"publishedAt,omitempty"`

	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
)

// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel

	QuizID       uint   `gorm:"index;not null" json:"quizId"`
	QuestionType string `gorm:"size:30;default:'multiple_choice'" json:"questionType"`
	Text         string `gorm:"type:text;not null" json:"text"`
	Points       int    `gorm:"default:1" json:"points"`
	Position     int    `gorm:"default:0" json:"position"`

	Choices []QuizChoice `gorm:"foreignKey:QuestionID" json:"choices,omitempty"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuizChoice 选择题选项。受支持的题型下每题应只有一个正确选项，
// 这是数据约定而非结构约束，评分按所选选项的 IsCorrect 判断。
// swagger:model QuizChoice
type QuizChoice struct {
	BaseModel

	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Text       string `gorm:"size:500;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"-"`
	Position   int    `gorm:"default:0" json:"position"`
}

func (QuizChoice) TableName() string {
	return "quiz_choices"
}
