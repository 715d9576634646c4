package service

import (
	"Homeroom/internal/model"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionUser = "parent-1"

func seedInbox(store *fakeStore) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store.seed(
		&model.Message{ID: "m1", Title: "春游通知", Content: "下周三出发", Type: model.TypeAnnouncement, SenderID: "teacher-1", SenderName: "王老师", ReceiverID: sessionUser, Timestamp: base, Status: model.StatusUnread},
		&model.Message{ID: "m2", Title: "午休情况", Content: "睡得很好", Type: model.TypeDailyRecord, SenderID: "system", SenderName: "Homeroom", ReceiverID: sessionUser, Timestamp: base.Add(time.Minute), Status: model.StatusUnread},
		&model.Message{ID: "m3", Title: "请假申请", Content: "明天请假", Type: model.TypeChat, SenderID: sessionUser, SenderName: "李家长", ReceiverID: "teacher-1", Timestamp: base.Add(2 * time.Minute), Status: model.StatusUnread},
	)
}

func openSession(t *testing.T, store *fakeStore, interval time.Duration) *InboxSession {
	t.Helper()
	sess := NewInboxSession(store, sessionUser, interval)
	t.Cleanup(sess.Close)

	// 等初次加载完成
	require.Eventually(t, func() bool {
		snap, err := sess.Snapshot(context.Background())
		return err == nil && snap.Status == string(SessionReady)
	}, 2*time.Second, 10*time.Millisecond)
	return sess
}

func TestSessionInitialLoad(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	sess := openSession(t, store, time.Hour)

	snap, err := sess.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Messages, 3)
	// 只有收到的未读计入角标，自己发出的不算
	assert.Equal(t, 2, snap.UnreadCount)
	assert.NotEmpty(t, snap.Conversations)
}

func TestSessionInitialLoadError(t *testing.T) {
	store := newFakeStore()
	store.setListErr(errors.New("mongo down"))

	sess := NewInboxSession(store, sessionUser, time.Hour)
	t.Cleanup(sess.Close)

	require.Eventually(t, func() bool {
		snap, err := sess.Snapshot(context.Background())
		return err == nil && snap.Status == string(SessionError)
	}, 2*time.Second, 10*time.Millisecond)

	snap, err := sess.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Contains(t, snap.Error, "mongo down")

	// 故障恢复后显式刷新能回到 READY
	store.setListErr(nil)
	seedInbox(store)
	require.NoError(t, sess.Refresh(context.Background()))
	require.Eventually(t, func() bool {
		snap, err := sess.Snapshot(context.Background())
		return err == nil && snap.Status == string(SessionReady) && len(snap.Messages) == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionErrorRecoversViaBackgroundRefresh(t *testing.T) {
	store := newFakeStore()
	store.setListErr(errors.New("mongo down"))

	sess := NewInboxSession(store, sessionUser, 30*time.Millisecond)
	t.Cleanup(sess.Close)

	require.Eventually(t, func() bool {
		snap, err := sess.Snapshot(context.Background())
		return err == nil && snap.Status == string(SessionError)
	}, 2*time.Second, 10*time.Millisecond)

	// 不做任何显式操作，存储恢复后周期刷新自行把会话拉回 READY
	store.setListErr(nil)
	seedInbox(store)
	require.Eventually(t, func() bool {
		snap, err := sess.Snapshot(context.Background())
		return err == nil && snap.Status == string(SessionReady) && len(snap.Messages) == 3 && snap.Error == ""
	}, 2*time.Second, 10*time.Millisecond)
}

func TestExplicitRefreshUpgradesInflightSilent(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	sess := openSession(t, store, time.Hour)
	ctx := context.Background()

	// 卡住存储，让静默刷新悬在途中
	gate := make(chan struct{})
	store.setListGate(gate)
	require.NoError(t, sess.RefreshSilent(ctx))
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.listCalls >= 2
	}, 2*time.Second, 10*time.Millisecond)

	// 显式刷新不能被在途的静默刷新吞掉：就地升级并进入 LOADING
	require.NoError(t, sess.Refresh(ctx))
	snap, err := sess.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(SessionLoading), snap.Status)

	close(gate)
	store.setListGate(nil)
	require.Eventually(t, func() bool {
		snap, err := sess.Snapshot(ctx)
		return err == nil && snap.Status == string(SessionReady)
	}, 2*time.Second, 10*time.Millisecond)

	// 升级复用在途的那次拉取，不另起一次
	store.mu.Lock()
	calls := store.listCalls
	store.mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestMarkReadOptimisticAndIdempotent(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	sess := openSession(t, store, time.Hour)
	ctx := context.Background()

	require.NoError(t, sess.MarkRead(ctx, "m1"))

	// 本地立即生效，不等落库
	snap, err := sess.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.UnreadCount)

	// 落库最终完成
	require.Eventually(t, func() bool {
		m := store.get("m1")
		return m != nil && m.IsRead()
	}, 2*time.Second, 10*time.Millisecond)

	// 重复标记是幂等空操作
	require.NoError(t, sess.MarkRead(ctx, "m1"))
	snap, err = sess.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.UnreadCount)

	// 不存在的消息报错
	assert.ErrorIs(t, sess.MarkRead(ctx, "nope"), ErrMessageNotFound)
}

func TestMarkReadRollbackOnStoreError(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	store.setStatusErrFor["m1"] = errors.New("write refused")
	sess := openSession(t, store, time.Hour)
	ctx := context.Background()

	require.NoError(t, sess.MarkRead(ctx, "m1"))

	// 落库失败后本地回滚为未读
	require.Eventually(t, func() bool {
		snap, err := sess.Snapshot(ctx)
		return err == nil && snap.UnreadCount == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOptimisticReadSurvivesSilentRefresh(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	// 落库"成功"但存储端暂不可见，静默刷新拉回的是旧状态
	store.setStatusNoop = true
	sess := openSession(t, store, 30*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, sess.MarkRead(ctx, "m1"))

	// 等几轮静默刷新跑过
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.listCalls >= 3
	}, 2*time.Second, 10*time.Millisecond)

	// 待确认的乐观已读盖过旧快照，不会闪回未读
	snap, err := sess.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.UnreadCount)
}

func TestSilentRefreshErrorKeepsData(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	sess := openSession(t, store, 30*time.Millisecond)
	ctx := context.Background()

	before, err := sess.Snapshot(ctx)
	require.NoError(t, err)

	store.setListErr(errors.New("network blip"))

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.listCalls >= 5
	}, 2*time.Second, 10*time.Millisecond)

	// 静默刷新失败保留现有数据，状态仍是 READY
	after, err := sess.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(SessionReady), after.Status)
	assert.Empty(t, after.Error)
	assert.Len(t, after.Messages, len(before.Messages))
}

func TestMarkAllReadPartialFailure(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	store.setStatusErrFor["m2"] = errors.New("write refused")
	sess := openSession(t, store, time.Hour)
	ctx := context.Background()

	result, err := sess.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)
	assert.Equal(t, 1, result.Failed)

	// 成功的保持已读，失败的回滚为未读
	snap, err := sess.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.UnreadCount)

	m1 := store.get("m1")
	require.NotNil(t, m1)
	assert.True(t, m1.IsRead())

	// 没有未读时一键已读是空操作
	store.setStatusErrFor = map[string]error{}
	result, err = sess.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)
	result, err = sess.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Marked)
	assert.Zero(t, result.Failed)
}

func TestSessionDeleteRules(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	sess := openSession(t, store, time.Hour)
	ctx := context.Background()

	// 只能删自己发出的
	assert.ErrorIs(t, sess.Delete(ctx, "m1"), ErrDeleteNotSender)

	require.NoError(t, sess.Delete(ctx, "m3"))
	snap, err := sess.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Messages, 2)

	require.Eventually(t, func() bool {
		return store.get("m3") == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionFilterAndSearch(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	sess := openSession(t, store, time.Hour)
	ctx := context.Background()

	snap, err := sess.SetTypeFilter(ctx, string(model.TypeAnnouncement))
	require.NoError(t, err)
	require.Len(t, snap.Filtered, 1)
	assert.Equal(t, "m1", snap.Filtered[0].ID)
	// 全量列表不受过滤影响
	assert.Len(t, snap.Messages, 3)

	snap, err = sess.SetSearch(ctx, "午休")
	require.NoError(t, err)
	// 过滤与搜索同时生效
	assert.Empty(t, snap.Filtered)

	snap, err = sess.SetTypeFilter(ctx, "")
	require.NoError(t, err)
	require.Len(t, snap.Filtered, 1)
	assert.Equal(t, "m2", snap.Filtered[0].ID)
}

func TestSessionSubscribe(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	sess := openSession(t, store, time.Hour)
	ctx := context.Background()

	ch, unsubscribe, err := sess.Subscribe(ctx)
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, sess.MarkRead(ctx, "m1"))

	select {
	case snap := <-ch:
		assert.Equal(t, 1, snap.UnreadCount)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot pushed after mutation")
	}
}

func TestSessionClose(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	sess := openSession(t, store, time.Hour)

	sess.Close()
	// 重复关闭安全
	sess.Close()

	_, err := sess.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}
