package service

import (
	"testing"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseAuthoring(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	other := env.createUser(t, "other", model.RoleOwner)
	course := env.createCourse(t, owner.ID)

	t.Run("非所有者操作按课程不存在处理", func(t *testing.T) {
		_, err := env.course.CreateModule(course.ID, other.ID, "第一章", 0)
		assert.ErrorIs(t, err, util.ErrCourseNotFound)

		_, err = env.course.UpdateCourse(course.ID, other.ID, "新标题", "", "")
		assert.ErrorIs(t, err, util.ErrCourseNotFound)
	})

	t.Run("创建课时会入队发布事件", func(t *testing.T) {
		m, err := env.course.CreateModule(course.ID, owner.ID, "第一章", 0)
		require.NoError(t, err)

		queued := len(env.notification.queue)
		lesson, err := env.course.CreateLesson(m.ID, owner.ID, "第一课", "内容", 0)
		require.NoError(t, err)
		assert.Equal(t, course.ID, lesson.CourseID)
		assert.Len(t, env.notification.queue, queued+1)
	})
}

func TestQuizAuthoring(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	course := env.createCourse(t, owner.ID)

	quiz, err := env.course.CreateQuiz(course.ID, owner.ID, "期末测验", "", 60)
	require.NoError(t, err)

	input := QuestionInput{
		Text:   "Go 的零值是什么",
		Points: 2,
		Choices: []ChoiceInput{
			{Text: "类型相关的默认值", IsCorrect: true},
			{Text: "nil"},
		},
	}

	t.Run("加题带选项", func(t *testing.T) {
		q, err := env.course.AddQuestion(quiz.ID, owner.ID, input)
		require.NoError(t, err)
		assert.Len(t, q.Choices, 2)
	})

	t.Run("发布是幂等的", func(t *testing.T) {
		queued := len(env.notification.queue)

		first, err := env.course.PublishQuiz(quiz.ID, owner.ID)
		require.NoError(t, err)
		assert.True(t, first.IsPublished)
		require.NotNil(t, first.PublishedAt)
		publishedAt := *first.PublishedAt

		second, err := env.course.PublishQuiz(quiz.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, publishedAt.Unix(), second.PublishedAt.Unix())

		// 重复发布不产生第二个事件
		assert.Len(t, env.notification.queue, queued+1)
	})

	t.Run("发布后题目冻结", func(t *testing.T) {
		_, err := env.course.AddQuestion(quiz.ID, owner.ID, input)
		assert.ErrorIs(t, err, util.ErrQuizPublished)
	})
}
