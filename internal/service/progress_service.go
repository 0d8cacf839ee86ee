package service

import (
	"errors"
	"time"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProgressService 维护每个 (学员, 课程) 的完成进度汇总。
// 完成信号是至少一次投递，所有写路径都必须幂等。
type ProgressService struct {
	CourseRepo   *repository.CourseRepository
	ProgressRepo *repository.ProgressRepository
	Access       *AccessService
}

func NewProgressService(courseRepo *repository.CourseRepository, progressRepo *repository.ProgressRepository, access *AccessService) *ProgressService {
	return &ProgressService{
		CourseRepo:   courseRepo,
		ProgressRepo: progressRepo,
		Access:       access,
	}
}

// OnLessonCompleted 消费课时完成信号。同一 (学员, 课时) 的重复
// 信号最多让完成集合变大一次：集合插入靠唯一索引做 add-if-absent，
// 百分比从集合大小重算，不做计数器自增。
func (s *ProgressService) OnLessonCompleted(userID, lessonID uint) (*model.CourseProgress, error) {
	lesson, err := s.CourseRepo.FindLessonByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	ok, err := s.Access.CanAccess(userID, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrAccessDenied
	}

	total, err := s.CourseRepo.CountLessons(lesson.CourseID)
	if err != nil {
		return nil, err
	}

	progress, err := s.ProgressRepo.GetOrCreate(userID, lesson.CourseID, int(total))
	if err != nil {
		return nil, err
	}

	added, err := s.ProgressRepo.AddCompletion(&model.LessonCompletion{
		UserID:      userID,
		LessonID:    lessonID,
		CourseID:    lesson.CourseID,
		CompletedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if added {
		logger.Log.Debug("lesson completion recorded",
			zap.Uint("userId", userID), zap.Uint("lessonId", lessonID))
	}

	return s.recompute(progress)
}

// recompute 从完成集合重算汇总字段。完成数只增不减，写入按
// 完成数单调推进：并发信号各自数各自写，基于过期计数的写会被
// 条件挡掉，最终落库的一定是最大的那份计数。
func (s *ProgressService) recompute(progress *model.CourseProgress) (*model.CourseProgress, error) {
	completed, err := s.ProgressRepo.CountCompletions(progress.UserID, progress.CourseID)
	if err != nil {
		return nil, err
	}

	// 建档后课程又加了课时，快照跟着抬高，保证 completed <= total
	total := progress.TotalLessons
	if int(completed) > total {
		total = int(completed)
	}

	pct := 0.0
	if total > 0 {
		pct = util.Round2(float64(completed) / float64(total) * 100)
	}

	if err := s.ProgressRepo.UpdateAggregate(progress.ID, total, int(completed), pct); err != nil {
		return nil, err
	}

	// 自己的写可能因计数过期被挡掉，以落库的那份为准
	return s.ProgressRepo.FindByUserAndCourse(progress.UserID, progress.CourseID)
}

// GetProgress 单个学员在一门课程上的进度，没有任何完成记录时
// 返回一份零值汇总而不是报错
func (s *ProgressService) GetProgress(userID, courseID uint) (*model.CourseProgress, error) {
	progress, err := s.ProgressRepo.FindByUserAndCourse(userID, courseID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	total, err := s.CourseRepo.CountLessons(courseID)
	if err != nil {
		return nil, err
	}
	return &model.CourseProgress{
		UserID:       userID,
		CourseID:     courseID,
		TotalLessons: int(total),
	}, nil
}

// ListCourseProgress 课程维度的全量进度，供课程所有者看报表，只读
func (s *ProgressService) ListCourseProgress(courseID uint) ([]model.CourseProgress, error) {
	return s.ProgressRepo.ListByCourse(courseID)
}

// ListCompletions 学员在一门课程里已完成的课时明细
func (s *ProgressService) ListCompletions(userID, courseID uint) ([]model.LessonCompletion, error) {
	return s.ProgressRepo.ListCompletions(userID, courseID)
}
