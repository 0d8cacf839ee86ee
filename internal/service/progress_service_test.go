package service

import (
	"sync"
	"testing"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnLessonCompleted(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	learner := env.createUser(t, "learner", model.RoleLearner)
	course := env.createCourse(t, owner.ID)
	lessons := env.createLessons(t, course.ID, 10)

	_, err := env.access.Enroll(learner.ID, course.ID)
	require.NoError(t, err)

	t.Run("完成 3 课时进度为 30%", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := env.progress.OnLessonCompleted(learner.ID, lessons[i].ID)
			require.NoError(t, err)
		}

		p, err := env.progress.GetProgress(learner.ID, course.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, p.CompletedCount)
		assert.Equal(t, 10, p.TotalLessons)
		assert.Equal(t, 30.0, p.Percentage)
	})

	t.Run("重复信号不改变进度", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			_, err := env.progress.OnLessonCompleted(learner.ID, lessons[0].ID)
			require.NoError(t, err)
		}

		p, err := env.progress.GetProgress(learner.ID, course.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, p.CompletedCount)
		assert.Equal(t, 30.0, p.Percentage)
	})

	t.Run("不存在的课时", func(t *testing.T) {
		_, err := env.progress.OnLessonCompleted(learner.ID, 99999)
		assert.ErrorIs(t, err, util.ErrLessonNotFound)
	})

	t.Run("未报名用户的信号被拒绝", func(t *testing.T) {
		stranger := env.createUser(t, "stranger", model.RoleLearner)
		_, err := env.progress.OnLessonCompleted(stranger.ID, lessons[0].ID)
		assert.ErrorIs(t, err, util.ErrAccessDenied)
	})
}

func TestOnLessonCompletedConcurrent(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	learner := env.createUser(t, "learner", model.RoleLearner)
	course := env.createCourse(t, owner.ID)
	lessons := env.createLessons(t, course.ID, 4)

	_, err := env.access.Enroll(learner.ID, course.ID)
	require.NoError(t, err)

	// 同一课时的信号并发重复投递
	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.progress.OnLessonCompleted(learner.ID, lessons[0].ID)
		}()
	}
	wg.Wait()

	p, err := env.progress.GetProgress(learner.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CompletedCount)
	assert.Equal(t, 25.0, p.Percentage)

	var count int64
	env.db.Model(&model.LessonCompletion{}).
		Where("user_id = ? AND lesson_id = ?", learner.ID, lessons[0].ID).
		Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestOnLessonCompletedConcurrentDistinctLessons(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	learner := env.createUser(t, "learner", model.RoleLearner)
	course := env.createCourse(t, owner.ID)
	lessons := env.createLessons(t, course.ID, 4)

	_, err := env.access.Enroll(learner.ID, course.ID)
	require.NoError(t, err)

	// 不同课时的信号并发投递，落库的汇总不能被慢的一方用旧计数覆盖
	var wg sync.WaitGroup
	for i := range lessons {
		wg.Add(1)
		go func(lessonID uint) {
			defer wg.Done()
			_, _ = env.progress.OnLessonCompleted(learner.ID, lessonID)
		}(lessons[i].ID)
	}
	wg.Wait()

	p, err := env.progress.GetProgress(learner.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, p.CompletedCount)
	assert.Equal(t, 100.0, p.Percentage)
}

func TestUpdateAggregateMonotonic(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	learner := env.createUser(t, "learner", model.RoleLearner)
	course := env.createCourse(t, owner.ID)
	lessons := env.createLessons(t, course.ID, 4)

	_, err := env.access.Enroll(learner.ID, course.ID)
	require.NoError(t, err)
	_, err = env.progress.OnLessonCompleted(learner.ID, lessons[0].ID)
	require.NoError(t, err)
	_, err = env.progress.OnLessonCompleted(learner.ID, lessons[1].ID)
	require.NoError(t, err)

	p, err := env.progress.GetProgress(learner.ID, course.ID)
	require.NoError(t, err)
	require.Equal(t, 2, p.CompletedCount)

	// 带过期计数的写是空操作，不能把新值拉回旧值
	record, err := env.progresses.FindByUserAndCourse(learner.ID, course.ID)
	require.NoError(t, err)
	require.NoError(t, env.progresses.UpdateAggregate(record.ID, 4, 1, 25.0))

	p, err = env.progress.GetProgress(learner.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.CompletedCount)
	assert.Equal(t, 50.0, p.Percentage)
}

func TestProgressSnapshotGrows(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	learner := env.createUser(t, "learner", model.RoleLearner)
	course := env.createCourse(t, owner.ID)
	lessons := env.createLessons(t, course.ID, 2)

	_, err := env.access.Enroll(learner.ID, course.ID)
	require.NoError(t, err)

	_, err = env.progress.OnLessonCompleted(learner.ID, lessons[0].ID)
	require.NoError(t, err)
	p, err := env.progress.OnLessonCompleted(learner.ID, lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.Percentage)

	// 建档后课程又加了课时，完成数不能超过总数
	extra := env.createLessons(t, course.ID, 1)
	p, err = env.progress.OnLessonCompleted(learner.ID, extra[0].ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p.TotalLessons, p.CompletedCount)
	assert.Equal(t, 3, p.CompletedCount)
	assert.Equal(t, 100.0, p.Percentage)
}

func TestGetProgressWithoutRecord(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	learner := env.createUser(t, "learner", model.RoleLearner)
	course := env.createCourse(t, owner.ID)
	env.createLessons(t, course.ID, 5)

	// 没有任何完成记录时返回零值汇总
	p, err := env.progress.GetProgress(learner.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.CompletedCount)
	assert.Equal(t, 5, p.TotalLessons)
	assert.Equal(t, 0.0, p.Percentage)
}
