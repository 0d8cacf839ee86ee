package service

import (
	"context"
	"time"

	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Notifier 是投递通道的抽象，邮件/推送由外层提供实现。
// 这里只负责落通知记录和调用投递。
type Notifier interface {
	Send(recipient *model.User, title, body string) error
}

// PublishEvent 内容发布事件，ContentRef 形如 "lesson:42"、"quiz:7"，
// 和收件人一起构成通知的幂等键
type PublishEvent struct {
	CourseID   uint
	ContentRef string
	Title      string
	Body       string
}

type FanoutFailure struct {
	UserID uint   `json:"userId"`
	Error  string `json:"error"`
}

// FanoutResult 扇出不是整体事务：部分收件人失败不会中止批次，
// 结果里带成功计数和失败明细
type FanoutResult struct {
	Created   int             `json:"created"`
	Succeeded int             `json:"succeeded"`
	Failures  []FanoutFailure `json:"failures"`
}

// NotificationService 把一次内容发布扇出成每个报名学员一条通知。
// 扇出量可能很大，走独立 worker 消费事件队列，不占请求路径。
type NotificationService struct {
	NotificationRepo *repository.NotificationRepository
	EnrollmentRepo   *repository.EnrollmentRepository
	UserRepo         *repository.UserRepository

	notifier Notifier
	limiter  *rate.Limiter
	queue    chan PublishEvent
	quit     chan struct{}
	done     chan struct{}
}

func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	userRepo *repository.UserRepository,
	notifier Notifier,
	cfg config.FanoutConfig,
) *NotificationService {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	sendsPerSecond := cfg.SendsPerSecond
	if sendsPerSecond <= 0 {
		sendsPerSecond = 20
	}

	return &NotificationService{
		NotificationRepo: notificationRepo,
		EnrollmentRepo:   enrollmentRepo,
		UserRepo:         userRepo,
		notifier:         notifier,
		limiter:          rate.NewLimiter(rate.Limit(sendsPerSecond), sendsPerSecond),
		queue:            make(chan PublishEvent, queueSize),
		quit:             make(chan struct{}),
		done:             make(chan struct{}),
	}
}

// Enqueue 把发布事件丢进队列，由 worker 异步扇出。
// 队列满时阻塞发布方，不丢事件。
func (s *NotificationService) Enqueue(ev PublishEvent) {
	s.queue <- ev
}

// Run worker 循环，随 app 启动跑在独立 goroutine 里
func (s *NotificationService) Run() {
	defer close(s.done)
	for {
		select {
		case ev := <-s.queue:
			result, err := s.FanOut(ev)
			if err != nil {
				logger.Log.Error("fanout failed",
					zap.String("contentRef", ev.ContentRef), zap.Error(err))
				continue
			}
			logger.Log.Info("fanout finished",
				zap.String("contentRef", ev.ContentRef),
				zap.Int("created", result.Created),
				zap.Int("succeeded", result.Succeeded),
				zap.Int("failed", len(result.Failures)))
		case <-s.quit:
			// 停机前清掉已入队的事件
			for {
				select {
				case ev := <-s.queue:
					if _, err := s.FanOut(ev); err != nil {
						logger.Log.Error("fanout failed during drain",
							zap.String("contentRef", ev.ContentRef), zap.Error(err))
					}
				default:
					return
				}
			}
		}
	}
}

func (s *NotificationService) Stop() {
	close(s.quit)
	<-s.done
}

// FanOut 对一次发布事件做全量扇出。收件人集合是调用时刻的报名
// 快照，之后报名的学员不会补发。每个收件人一条通知，幂等键是
// (收件人, contentRef)：重复发布一条新记录都不会产生，也不会重发。
func (s *NotificationService) FanOut(ev PublishEvent) (*FanoutResult, error) {
	start := time.Now()
	defer func() {
		monitoring.FanoutDuration.Observe(time.Since(start).Seconds())
	}()

	enrollments, err := s.EnrollmentRepo.ListByCourse(ev.CourseID)
	if err != nil {
		return nil, err
	}

	result := &FanoutResult{}
	for _, e := range enrollments {
		n := &model.Notification{
			UserID:     e.UserID,
			ContentRef: ev.ContentRef,
			CourseID:   ev.CourseID,
			Title:      ev.Title,
			Body:       ev.Body,
			Status:     model.NotificationPending,
		}
		created, err := s.NotificationRepo.CreateIfAbsent(n)
		if err != nil {
			// 单个收件人的存储故障不中止批次
			result.Failures = append(result.Failures, FanoutFailure{
				UserID: e.UserID, Error: err.Error(),
			})
			continue
		}
		if !created {
			continue
		}
		result.Created++
		monitoring.NotificationsCreated.Inc()

		if err := s.deliver(n); err != nil {
			result.Failures = append(result.Failures, FanoutFailure{
				UserID: e.UserID, Error: err.Error(),
			})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

// deliver 调用抽象投递通道并回写投递状态，带限速
func (s *NotificationService) deliver(n *model.Notification) error {
	user, err := s.UserRepo.FindByID(n.UserID)
	if err != nil {
		_ = s.NotificationRepo.MarkFailed(n.ID, err.Error())
		monitoring.NotificationsSent.WithLabelValues("failed").Inc()
		return err
	}

	_ = s.limiter.Wait(context.Background())

	if err := s.notifier.Send(user, n.Title, n.Body); err != nil {
		_ = s.NotificationRepo.MarkFailed(n.ID, err.Error())
		monitoring.NotificationsSent.WithLabelValues("failed").Inc()
		return err
	}

	if err := s.NotificationRepo.MarkSent(n.ID); err != nil {
		return err
	}
	monitoring.NotificationsSent.WithLabelValues("sent").Inc()
	return nil
}

// pendingRetryAfter pending 记录超过这个时长还没推进状态，
// 视为投递中途挂掉留下的孤儿，纳入重试
const pendingRetryAfter = 5 * time.Minute

// RetryFailed 重投失败记录和滞留的 pending 记录，
// 幂等键保证不会产生新通知
func (s *NotificationService) RetryFailed(limit int) (int, error) {
	stale, err := s.NotificationRepo.ListUndelivered(limit, time.Now().Add(-pendingRetryAfter))
	if err != nil {
		return 0, err
	}
	retried := 0
	for i := range stale {
		if err := s.deliver(&stale[i]); err == nil {
			retried++
		}
	}
	return retried, nil
}
