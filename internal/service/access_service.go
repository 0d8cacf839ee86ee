package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// accessCacheTTL 命中缓存只用于放行，报名/退课时主动失效
const accessCacheTTL = 5 * time.Minute

// AccessService 是所有课程内容的唯一准入判断，
// 调用方不得自行实现 owner-or-enrolled 逻辑。
type AccessService struct {
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	Redis          *redis.Client
}

func NewAccessService(courseRepo *repository.CourseRepository, enrollmentRepo *repository.EnrollmentRepository, rdb *redis.Client) *AccessService {
	return &AccessService{
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		Redis:          rdb,
	}
}

// CanAccess 课程所有者或已报名学员可见。课程不存在时同样返回
// false，调用方对外一律按"资源不存在"响应，避免探测课程是否存在。
func (s *AccessService) CanAccess(userID, courseID uint) (bool, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	if course.OwnerID == userID {
		return true, nil
	}

	if s.cacheHit(userID, courseID) {
		return true, nil
	}

	enrolled, err := s.EnrollmentRepo.Exists(userID, courseID)
	if err != nil {
		return false, err
	}
	if enrolled {
		s.cacheSet(userID, courseID)
	}
	return enrolled, nil
}

// Enroll 重复报名不报错，返回已有关系
func (s *AccessService) Enroll(userID, courseID uint) (*model.Enrollment, error) {
	_, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	e := &model.Enrollment{UserID: userID, CourseID: courseID}
	created, err := s.EnrollmentRepo.CreateIfAbsent(e)
	if err != nil {
		return nil, err
	}
	if !created {
		// 撞唯一索引说明关系已存在，回读已有记录
		return s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
	}

	s.cacheInvalidate(userID, courseID)
	logger.Log.Info("enrollment created",
		zap.Uint("userId", userID), zap.Uint("courseId", courseID))
	return e, nil
}

func (s *AccessService) Unenroll(userID, courseID uint) error {
	enrolled, err := s.EnrollmentRepo.Exists(userID, courseID)
	if err != nil {
		return err
	}
	if !enrolled {
		return util.ErrNotEnrolled
	}
	if err := s.EnrollmentRepo.Delete(userID, courseID); err != nil {
		return err
	}
	s.cacheInvalidate(userID, courseID)
	return nil
}

// ListUserEnrollments 学员名下的全部报名记录
func (s *AccessService) ListUserEnrollments(userID uint) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.ListByUser(userID)
}

func (s *AccessService) cacheKey(userID, courseID uint) string {
	return fmt.Sprintf("access:%d:%d", userID, courseID)
}

func (s *AccessService) cacheHit(userID, courseID uint) bool {
	if s.Redis == nil {
		return false
	}
	v, err := s.Redis.Get(context.Background(), s.cacheKey(userID, courseID)).Result()
	return err == nil && v == "1"
}

func (s *AccessService) cacheSet(userID, courseID uint) {
	if s.Redis == nil {
		return
	}
	s.Redis.Set(context.Background(), s.cacheKey(userID, courseID), "1", accessCacheTTL)
}

func (s *AccessService) cacheInvalidate(userID, courseID uint) {
	if s.Redis == nil {
		return
	}
	s.Redis.Del(context.Background(), s.cacheKey(userID, courseID))
}
