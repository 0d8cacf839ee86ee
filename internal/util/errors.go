package util

import "errors"

var (
	ErrUserNotFound    = errors.New("用户不存在")
	ErrEmailRegistered = errors.New("该邮箱已被注册")

	// ErrAccessDenied 对外统一表现为 404，避免暴露课程是否存在
	ErrAccessDenied = errors.New("access denied")

	ErrCourseNotFound = errors.New("course not found")
	ErrModuleNotFound = errors.New("module not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrQuizNotFound   = errors.New("quiz not found")

	ErrQuizNotPublished = errors.New("quiz not published or not accessible")
	// ErrQuizPublished 已发布测验的题目冻结，不允许增删
	ErrQuizPublished    = errors.New("quiz already published, questions are frozen")
	ErrQuestionNotFound = errors.New("question not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAttemptCompleted = errors.New("attempt already completed")
	ErrAttemptExpired   = errors.New("attempt time limit exceeded")
	ErrInvalidReference = errors.New("choice or question does not belong to this quiz")

	ErrAlreadyEnrolled = errors.New("already enrolled")
	ErrNotEnrolled     = errors.New("not enrolled")
)

// IsNotFound 需要按"资源不存在"统一响应的错误，含权限拒绝
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrModuleNotFound) ||
		errors.Is(err, ErrLessonNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrQuizNotPublished) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound)
}
