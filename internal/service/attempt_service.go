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

// AttemptService 管理测验作答的生命周期：
// in_progress -> completed，completed 是终态。
type AttemptService struct {
	QuizRepo    *repository.QuizRepository
	AttemptRepo *repository.AttemptRepository
	Access      *AccessService
}

func NewAttemptService(quizRepo *repository.QuizRepository, attemptRepo *repository.AttemptRepository, access *AccessService) *AttemptService {
	return &AttemptService{
		QuizRepo:    quizRepo,
		AttemptRepo: attemptRepo,
		Access:      access,
	}
}

// Start 开始作答。每个 (user, quiz) 只有一条 attempt，重复调用
// 返回已有记录。并发调用靠条件插入落唯一一条，撞索引的一方回读。
func (s *AttemptService) Start(userID, quizID uint) (*model.QuizAttempt, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	ok, err := s.Access.CanAccess(userID, quiz.CourseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrAccessDenied
	}

	if !quiz.IsPublished {
		return nil, util.ErrQuizNotPublished
	}

	attempt := &model.QuizAttempt{
		QuizID:    quizID,
		UserID:    userID,
		Status:    model.AttemptInProgress,
		StartedAt: time.Now(),
	}
	created, err := s.AttemptRepo.CreateIfAbsent(attempt)
	if err != nil {
		return nil, err
	}
	if !created {
		return s.AttemptRepo.FindByUserAndQuiz(userID, quizID)
	}

	logger.Log.Info("attempt started",
		zap.Uint("userId", userID), zap.Uint("quizId", quizID))
	return attempt, nil
}

// RecordAnswer 记录一道题的作答，同题重复作答覆盖之前的选择。
// 限时测验先做惰性超时检查：超时的 attempt 会被就地完成评分，
// 然后本次写入被拒绝，返回的 attempt 里带已算好的分数。
func (s *AttemptService) RecordAnswer(userID, attemptID, questionID, choiceID uint) (*model.QuizAttempt, error) {
	attempt, quiz, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return nil, err
	}

	if expired, err := s.expireIfNeeded(attempt, quiz); err != nil {
		return nil, err
	} else if expired {
		return attempt, util.ErrAttemptExpired
	}

	if attempt.IsCompleted() {
		return attempt, util.ErrAttemptCompleted
	}

	var question *model.QuizQuestion
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == questionID {
			question = &quiz.Questions[i]
			break
		}
	}
	if question == nil {
		return attempt, util.ErrInvalidReference
	}
	validChoice := false
	for _, c := range question.Choices {
		if c.ID == choiceID {
			validChoice = true
			break
		}
	}
	if !validChoice {
		return attempt, util.ErrInvalidReference
	}

	ans := &model.QuizAnswer{
		AttemptID:  attempt.ID,
		QuestionID: questionID,
		ChoiceID:   choiceID,
	}
	if err := s.AttemptRepo.UpsertAnswer(ans); err != nil {
		return nil, err
	}
	return attempt, nil
}

// Complete 幂等交卷：已完成的 attempt 原样返回，分数不变。
// 超时的 attempt 在这里同样走强制完成，按已有答案评分。
func (s *AttemptService) Complete(userID, attemptID uint) (*model.QuizAttempt, error) {
	attempt, quiz, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return nil, err
	}

	if attempt.IsCompleted() {
		return attempt, nil
	}

	if err := s.finalize(attempt, quiz); err != nil {
		return nil, err
	}
	return attempt, nil
}

func (s *AttemptService) GetAttempt(userID, attemptID uint) (*model.QuizAttempt, []model.QuizAnswer, error) {
	attempt, quiz, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return nil, nil, err
	}
	// 读路径也做超时收尾，避免过期 attempt 一直挂在 in_progress
	if _, err := s.expireIfNeeded(attempt, quiz); err != nil {
		return nil, nil, err
	}
	answers, err := s.AttemptRepo.ListAnswers(attempt.ID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, answers, nil
}

// loadOwned 只允许作答者本人操作自己的 attempt，
// 他人的 attempt 按不存在处理
func (s *AttemptService) loadOwned(userID, attemptID uint) (*model.QuizAttempt, *model.Quiz, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrAttemptNotFound
		}
		return nil, nil, err
	}
	if attempt.UserID != userID {
		return nil, nil, util.ErrAttemptNotFound
	}

	quiz, err := s.QuizRepo.FindByIDWithQuestions(attempt.QuizID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, quiz, nil
}

// expireIfNeeded 惰性超时检查，没有后台定时器。
// 超时即强制完成，之后一切写操作都会被状态检查挡住。
func (s *AttemptService) expireIfNeeded(attempt *model.QuizAttempt, quiz *model.Quiz) (bool, error) {
	if attempt.IsCompleted() || quiz.TimeLimitMinutes <= 0 {
		return false, nil
	}
	limit := time.Duration(quiz.TimeLimitMinutes) * time.Minute
	if time.Since(attempt.StartedAt) <= limit {
		return false, nil
	}

	logger.Log.Info("attempt expired, force completing",
		zap.Uint("attemptId", attempt.ID), zap.Uint("quizId", quiz.ID))
	if err := s.finalize(attempt, quiz); err != nil {
		return false, err
	}
	return true, nil
}

// finalize 按当前答案评分并落终态。评分是确定性的，
// 并发走到这里的双方会写入同样的分数。
func (s *AttemptService) finalize(attempt *model.QuizAttempt, quiz *model.Quiz) error {
	answers, err := s.AttemptRepo.ListAnswers(attempt.ID)
	if err != nil {
		return err
	}

	score := GradeQuiz(quiz.Questions, answers)
	now := time.Now()
	attempt.Score = &score
	attempt.CompletedAt = &now
	attempt.Status = model.AttemptCompleted

	if err := s.AttemptRepo.Save(attempt); err != nil {
		return err
	}

	logger.Log.Info("attempt completed",
		zap.Uint("attemptId", attempt.ID),
		zap.Uint("quizId", quiz.ID),
		zap.Float64("score", score))
	return nil
}
