package service

import (
	"sync"
	"testing"
	"time"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAttempt(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	learner := env.createUser(t, "learner", model.RoleLearner)
	course := env.createCourse(t, owner.ID)
	quiz, _ := env.createQuiz(t, course.ID, 0)

	_, err := env.access.Enroll(learner.ID, course.ID)
	require.NoError(t, err)

	t.Run("重复开始返回同一条作答记录", func(t *testing.T) {
		first, err := env.attempt.Start(learner.ID, quiz.ID)
		require.NoError(t, err)

		second, err := env.attempt.Start(learner.ID, quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("并发开始只落一条记录", func(t *testing.T) {
		racer := env.createUser(t, "racer", model.RoleLearner)
		_, err := env.access.Enroll(racer.ID, course.ID)
		require.NoError(t, err)

		const n = 10
		var wg sync.WaitGroup
		ids := make(chan uint, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				attempt, err := env.attempt.Start(racer.ID, quiz.ID)
				if err == nil {
					ids <- attempt.ID
				}
			}()
		}
		wg.Wait()
		close(ids)

		seen := map[uint]bool{}
		for id := range ids {
			seen[id] = true
		}
		assert.Len(t, seen, 1)

		var count int64
		env.db.Model(&model.QuizAttempt{}).
			Where("user_id = ? AND quiz_id = ?", racer.ID, quiz.ID).
			Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("未报名用户不能开始作答", func(t *testing.T) {
		stranger := env.createUser(t, "stranger", model.RoleLearner)
		_, err := env.attempt.Start(stranger.ID, quiz.ID)
		assert.ErrorIs(t, err, util.ErrAccessDenied)
	})

	t.Run("未发布的测验不能开始作答", func(t *testing.T) {
		draft := &model.Quiz{CourseID: course.ID, Title: "草稿"}
		require.NoError(t, env.quizzes.Create(draft))

		_, err := env.attempt.Start(learner.ID, draft.ID)
		assert.ErrorIs(t, err, util.ErrQuizNotPublished)
	})

	t.Run("不存在的测验", func(t *testing.T) {
		_, err := env.attempt.Start(learner.ID, 99999)
		assert.ErrorIs(t, err, util.ErrQuizNotFound)
	})
}

func TestRecordAnswer(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	learner := env.createUser(t, "learner", model.RoleLearner)
	course := env.createCourse(t, owner.ID)
	quiz, questions := env.createQuiz(t, course.ID, 0)

	_, err := env.access.Enroll(learner.ID, course.ID)
	require.NoError(t, err)
	attempt, err := env.attempt.Start(learner.ID, quiz.ID)
	require.NoError(t, err)

	q1 := questions[0]

	t.Run("同一题重复作答覆盖而不是追加", func(t *testing.T) {
		_, err := env.attempt.RecordAnswer(learner.ID, attempt.ID, q1.ID, q1.Choices[0].ID)
		require.NoError(t, err)
		_, err = env.attempt.RecordAnswer(learner.ID, attempt.ID, q1.ID, q1.Choices[1].ID)
		require.NoError(t, err)

		answers, err := env.attempts.ListAnswers(attempt.ID)
		require.NoError(t, err)
		require.Len(t, answers, 1)
		assert.Equal(t, q1.Choices[1].ID, answers[0].ChoiceID)
	})

	t.Run("题目不属于该测验被拒绝", func(t *testing.T) {
		_, err := env.attempt.RecordAnswer(learner.ID, attempt.ID, 99999, q1.Choices[0].ID)
		assert.ErrorIs(t, err, util.ErrInvalidReference)
	})

	t.Run("选项不属于该题被拒绝", func(t *testing.T) {
		q2 := questions[1]
		_, err := env.attempt.RecordAnswer(learner.ID, attempt.ID, q1.ID, q2.Choices[0].ID)
		assert.ErrorIs(t, err, util.ErrInvalidReference)
	})

	t.Run("他人的作答记录按不存在处理", func(t *testing.T) {
		other := env.createUser(t, "other", model.RoleLearner)
		_, err := env.attempt.RecordAnswer(other.ID, attempt.ID, q1.ID, q1.Choices[0].ID)
		assert.ErrorIs(t, err, util.ErrAttemptNotFound)
	})

	t.Run("已完成的作答拒绝写入", func(t *testing.T) {
		_, err := env.attempt.Complete(learner.ID, attempt.ID)
		require.NoError(t, err)

		got, err := env.attempt.RecordAnswer(learner.ID, attempt.ID, q1.ID, q1.Choices[0].ID)
		assert.ErrorIs(t, err, util.ErrAttemptCompleted)
		require.NotNil(t, got)
		assert.NotNil(t, got.Score)
	})
}

func TestCompleteAttempt(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	learner := env.createUser(t, "learner", model.RoleLearner)
	course := env.createCourse(t, owner.ID)
	quiz, questions := env.createQuiz(t, course.ID, 0)

	_, err := env.access.Enroll(learner.ID, course.ID)
	require.NoError(t, err)
	attempt, err := env.attempt.Start(learner.ID, quiz.ID)
	require.NoError(t, err)

	// 两题各 2 分，只答对第一题
	q1, q2 := questions[0], questions[1]
	var correct1, wrong2 uint
	for _, c := range q1.Choices {
		if c.IsCorrect {
			correct1 = c.ID
		}
	}
	for _, c := range q2.Choices {
		if !c.IsCorrect {
			wrong2 = c.ID
		}
	}
	_, err = env.attempt.RecordAnswer(learner.ID, attempt.ID, q1.ID, correct1)
	require.NoError(t, err)
	_, err = env.attempt.RecordAnswer(learner.ID, attempt.ID, q2.ID, wrong2)
	require.NoError(t, err)

	t.Run("交卷评分", func(t *testing.T) {
		done, err := env.attempt.Complete(learner.ID, attempt.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AttemptCompleted, done.Status)
		require.NotNil(t, done.Score)
		assert.Equal(t, 50.0, *done.Score)
		assert.NotNil(t, done.CompletedAt)
	})

	t.Run("重复交卷分数不变", func(t *testing.T) {
		again, err := env.attempt.Complete(learner.ID, attempt.ID)
		require.NoError(t, err)
		require.NotNil(t, again.Score)
		assert.Equal(t, 50.0, *again.Score)
	})
}

func TestAttemptExpiry(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	learner := env.createUser(t, "learner", model.RoleLearner)
	course := env.createCourse(t, owner.ID)
	quiz, questions := env.createQuiz(t, course.ID, 30)

	_, err := env.access.Enroll(learner.ID, course.ID)
	require.NoError(t, err)
	attempt, err := env.attempt.Start(learner.ID, quiz.ID)
	require.NoError(t, err)

	q1 := questions[0]
	var correct1 uint
	for _, c := range q1.Choices {
		if c.IsCorrect {
			correct1 = c.ID
		}
	}
	_, err = env.attempt.RecordAnswer(learner.ID, attempt.ID, q1.ID, correct1)
	require.NoError(t, err)

	// 把开始时间拨回到限时之前，模拟超时
	backdated := time.Now().Add(-31 * time.Minute)
	require.NoError(t, env.db.Model(&model.QuizAttempt{}).
		Where("id = ?", attempt.ID).
		Update("started_at", backdated).Error)

	t.Run("超时后写入被拒绝并带回评分结果", func(t *testing.T) {
		got, err := env.attempt.RecordAnswer(learner.ID, attempt.ID, q1.ID, correct1)
		assert.ErrorIs(t, err, util.ErrAttemptExpired)
		require.NotNil(t, got)
		assert.Equal(t, model.AttemptCompleted, got.Status)
		require.NotNil(t, got.Score)
		// 超时前只答对了 2 分题，总分 4
		assert.Equal(t, 50.0, *got.Score)
	})

	t.Run("读路径看到的是已完成状态", func(t *testing.T) {
		got, answers, err := env.attempt.GetAttempt(learner.ID, attempt.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AttemptCompleted, got.Status)
		assert.Len(t, answers, 1)
	})
}
