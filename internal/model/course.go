package model

// swagger:model Course
type Course struct {
	BaseModel

	OwnerID     uint   `gorm:"index;not null" json:"ownerId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	CoverURL    string `gorm:"size:255" json:"coverUrl"`

	Modules []CourseModule `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseModule 课程下的章节，Position 决定顺序，相同时按创建顺序排列
// swagger:model CourseModule
type CourseModule struct {
	BaseModel

	CourseID uint   `gorm:"index;not null" json:"courseId"`
	Title    string `gorm:"size:255;not null" json:"title"`
	Position int    `gorm:"default:0" json:"position"`

	Lessons []Lesson `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

// Lesson 完成进度的最小单位。CourseID 冗余存一份，
// 完成信号只带 lessonId，省掉一次 module 联查。
// swagger:model Lesson
type Lesson struct {
	BaseModel

	ModuleID uint   `gorm:"index;not null" json:"moduleId"`
	CourseID uint   `gorm:"index;not null" json:"courseId"`
	Title    string `gorm:"size:255;not null" json:"title"`
	Content  string `gorm:"type:text" json:"content"`
	Position int    `gorm:"default:0" json:"position"`
}

func (Lesson) TableName() string {
	return "lessons"
}
