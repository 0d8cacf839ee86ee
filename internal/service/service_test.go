package service

import (
	"testing"
	"time"

	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testEnv 内存 sqlite 上的全套仓储和服务。
// 连接数限制为 1，避免 :memory: 库在并发测试里被多连接看成多个库。
type testEnv struct {
	db *gorm.DB

	users         *repository.UserRepository
	courses       *repository.CourseRepository
	enrollments   *repository.EnrollmentRepository
	quizzes       *repository.QuizRepository
	attempts      *repository.AttemptRepository
	progresses    *repository.ProgressRepository
	notifications *repository.NotificationRepository

	access       *AccessService
	attempt      *AttemptService
	progress     *ProgressService
	notification *NotificationService
	course       *CourseService

	notifier *fakeNotifier
}

// fakeNotifier 记录投递调用，可按收件人注入失败
type fakeNotifier struct {
	sent    []uint
	failFor map[uint]bool
}

func (f *fakeNotifier) Send(recipient *model.User, title, body string) error {
	if f.failFor[recipient.ID] {
		return errSendFailed
	}
	f.sent = append(f.sent, recipient.ID)
	return nil
}

var errSendFailed = &smtpError{"smtp: connection refused"}

type smtpError struct{ msg string }

func (e *smtpError) Error() string { return e.msg }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	env := &testEnv{
		db:            db,
		users:         repository.NewUserRepository(db),
		courses:       repository.NewCourseRepository(db),
		enrollments:   repository.NewEnrollmentRepository(db),
		quizzes:       repository.NewQuizRepository(db),
		attempts:      repository.NewAttemptRepository(db),
		progresses:    repository.NewProgressRepository(db),
		notifications: repository.NewNotificationRepository(db),
		notifier:      &fakeNotifier{failFor: map[uint]bool{}},
	}

	env.access = NewAccessService(env.courses, env.enrollments, nil)
	env.attempt = NewAttemptService(env.quizzes, env.attempts, env.access)
	env.progress = NewProgressService(env.courses, env.progresses, env.access)
	env.notification = NewNotificationService(
		env.notifications, env.enrollments, env.users, env.notifier,
		config.FanoutConfig{QueueSize: 16, SendsPerSecond: 1000})
	env.course = NewCourseService(env.courses, env.quizzes, env.notification)

	return env
}

func (e *testEnv) createUser(t *testing.T, name string, role model.UserRole) *model.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	u := &model.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: string(hash),
		Role:     role,
	}
	require.NoError(t, e.users.Create(u))
	return u
}

func (e *testEnv) createCourse(t *testing.T, ownerID uint) *model.Course {
	t.Helper()
	c := &model.Course{OwnerID: ownerID, Title: "Go 从入门到放弃"}
	require.NoError(t, e.courses.Create(c))
	return c
}

func (e *testEnv) createLessons(t *testing.T, courseID uint, n int) []model.Lesson {
	t.Helper()
	m := &model.CourseModule{CourseID: courseID, Title: "第一章"}
	require.NoError(t, e.courses.CreateModule(m))

	lessons := make([]model.Lesson, 0, n)
	for i := 0; i < n; i++ {
		l := model.Lesson{
			ModuleID: m.ID,
			CourseID: courseID,
			Title:    "课时",
			Position: i,
		}
		require.NoError(t, e.courses.CreateLesson(&l))
		lessons = append(lessons, l)
	}
	return lessons
}

// createQuiz 两道题：单选 2 分 + 判断 1 分，总分 4
func (e *testEnv) createQuiz(t *testing.T, courseID uint, timeLimitMinutes int) (*model.Quiz, []model.QuizQuestion) {
	t.Helper()
	quiz := &model.Quiz{
		CourseID:         courseID,
		Title:            "第一章测验",
		TimeLimitMinutes: timeLimitMinutes,
	}
	require.NoError(t, e.quizzes.Create(quiz))

	q1 := &model.QuizQuestion{QuizID: quiz.ID, Text: "Go 的并发原语是？", Points: 2}
	require.NoError(t, e.quizzes.CreateQuestion(q1))
	require.NoError(t, e.quizzes.CreateChoices([]model.QuizChoice{
		{QuestionID: q1.ID, Text: "goroutine", IsCorrect: true},
		{QuestionID: q1.ID, Text: "thread"},
	}))

	q2 := &model.QuizQuestion{QuizID: quiz.ID, QuestionType: model.QuestionTypeTrueFalse, Text: "Go 有泛型", Points: 2}
	require.NoError(t, e.quizzes.CreateQuestion(q2))
	require.NoError(t, e.quizzes.CreateChoices([]model.QuizChoice{
		{QuestionID: q2.ID, Text: "对", IsCorrect: true},
		{QuestionID: q2.ID, Text: "错"},
	}))

	now := time.Now()
	quiz.IsPublished = true
	quiz.PublishedAt = &now
	require.NoError(t, e.quizzes.Update(quiz))

	full, err := e.quizzes.FindByIDWithQuestions(quiz.ID)
	require.NoError(t, err)
	return full, full.Questions
}
