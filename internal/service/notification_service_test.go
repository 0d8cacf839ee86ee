package service

import (
	"fmt"
	"testing"
	"time"

	"learnhub_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrollLearners(t *testing.T, env *testEnv, courseID uint, n int) []*model.User {
	t.Helper()
	users := make([]*model.User, 0, n)
	for i := 0; i < n; i++ {
		u := env.createUser(t, fmt.Sprintf("student%d", i), model.RoleLearner)
		_, err := env.access.Enroll(u.ID, courseID)
		require.NoError(t, err)
		users = append(users, u)
	}
	return users
}

func TestFanOut(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	course := env.createCourse(t, owner.ID)
	enrollLearners(t, env, course.ID, 5)

	ev := PublishEvent{
		CourseID:   course.ID,
		ContentRef: "lesson:1",
		Title:      "新课时",
		Body:       "第一课上线了",
	}

	t.Run("每个报名学员一条通知", func(t *testing.T) {
		result, err := env.notification.FanOut(ev)
		require.NoError(t, err)
		assert.Equal(t, 5, result.Created)
		assert.Equal(t, 5, result.Succeeded)
		assert.Empty(t, result.Failures)
		assert.Len(t, env.notifier.sent, 5)

		var count int64
		env.db.Model(&model.Notification{}).
			Where("content_ref = ?", ev.ContentRef).Count(&count)
		assert.EqualValues(t, 5, count)
	})

	t.Run("重复发布不产生新通知也不重发", func(t *testing.T) {
		sentBefore := len(env.notifier.sent)

		result, err := env.notification.FanOut(ev)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Created)
		assert.Equal(t, 0, result.Succeeded)
		assert.Len(t, env.notifier.sent, sentBefore)

		var count int64
		env.db.Model(&model.Notification{}).
			Where("content_ref = ?", ev.ContentRef).Count(&count)
		assert.EqualValues(t, 5, count)
	})

	t.Run("收件人集合是发布时刻的快照", func(t *testing.T) {
		late := env.createUser(t, "latecomer", model.RoleLearner)
		_, err := env.access.Enroll(late.ID, course.ID)
		require.NoError(t, err)

		// 晚报名的学员会在下次重发时补上，而此前的发布不回溯
		var count int64
		env.db.Model(&model.Notification{}).
			Where("user_id = ? AND content_ref = ?", late.ID, ev.ContentRef).Count(&count)
		assert.EqualValues(t, 0, count)
	})
}

func TestFanOutPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	course := env.createCourse(t, owner.ID)
	learners := enrollLearners(t, env, course.ID, 4)

	// 第二个收件人投递失败
	env.notifier.failFor[learners[1].ID] = true

	result, err := env.notification.FanOut(PublishEvent{
		CourseID:   course.ID,
		ContentRef: "quiz:1",
		Title:      "新测验",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Created)
	assert.Equal(t, 3, result.Succeeded)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, learners[1].ID, result.Failures[0].UserID)

	// 失败记录落库并带上错误信息
	var failed model.Notification
	require.NoError(t, env.db.
		Where("user_id = ? AND content_ref = ?", learners[1].ID, "quiz:1").
		First(&failed).Error)
	assert.Equal(t, model.NotificationFailed, failed.Status)
	assert.NotEmpty(t, failed.LastError)

	var sent model.Notification
	require.NoError(t, env.db.
		Where("user_id = ? AND content_ref = ?", learners[0].ID, "quiz:1").
		First(&sent).Error)
	assert.Equal(t, model.NotificationSent, sent.Status)
	assert.NotNil(t, sent.SentAt)
}

func TestRetryFailed(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	course := env.createCourse(t, owner.ID)
	learners := enrollLearners(t, env, course.ID, 2)

	env.notifier.failFor[learners[0].ID] = true
	_, err := env.notification.FanOut(PublishEvent{
		CourseID:   course.ID,
		ContentRef: "lesson:7",
		Title:      "新课时",
	})
	require.NoError(t, err)

	// 故障恢复后重投
	delete(env.notifier.failFor, learners[0].ID)
	retried, err := env.notification.RetryFailed(100)
	require.NoError(t, err)
	assert.Equal(t, 1, retried)

	var n model.Notification
	require.NoError(t, env.db.
		Where("user_id = ? AND content_ref = ?", learners[0].ID, "lesson:7").
		First(&n).Error)
	assert.Equal(t, model.NotificationSent, n.Status)

	// 重投不会产生第二条记录
	var count int64
	env.db.Model(&model.Notification{}).
		Where("content_ref = ?", "lesson:7").Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestRetryPicksUpStalePending(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleOwner)
	course := env.createCourse(t, owner.ID)
	learners := enrollLearners(t, env, course.ID, 1)

	// 模拟进程在落库和投递之间挂掉：记录停在 pending
	orphan := &model.Notification{
		UserID:     learners[0].ID,
		ContentRef: "lesson:9",
		CourseID:   course.ID,
		Title:      "新课时",
		Status:     model.NotificationPending,
	}
	created, err := env.notifications.CreateIfAbsent(orphan)
	require.NoError(t, err)
	require.True(t, created)

	// 刚落库的 pending 可能还在投递中，不纳入重试
	retried, err := env.notification.RetryFailed(100)
	require.NoError(t, err)
	assert.Equal(t, 0, retried)

	// 把记录回拨到重试窗口之外
	stale := time.Now().Add(-10 * time.Minute)
	require.NoError(t, env.db.Model(&model.Notification{}).
		Where("id = ?", orphan.ID).
		UpdateColumn("updated_at", stale).Error)

	retried, err = env.notification.RetryFailed(100)
	require.NoError(t, err)
	assert.Equal(t, 1, retried)

	var n model.Notification
	require.NoError(t, env.db.
		Where("user_id = ? AND content_ref = ?", learners[0].ID, "lesson:9").
		First(&n).Error)
	assert.Equal(t, model.NotificationSent, n.Status)
}
