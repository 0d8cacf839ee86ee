package model

// Enrollment 绑定一个学员和一门课程，(user_id, course_id) 唯一。
// 记录创建后不再修改，退课时删除。
// swagger:model Enrollment
type Enrollment struct {
	BaseModel

	UserID   uint `gorm:"uniqueIndex:idx_user_course_enrollment;not null" json:"userId"`
	CourseID uint `gorm:"uniqueIndex:idx_user_course_enrollment;not null" json:"courseId"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
