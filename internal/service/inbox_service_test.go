package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openService(t *testing.T, store *fakeStore) *inboxServiceImpl {
	t.Helper()
	svc := NewInboxService(store, 3600).(*inboxServiceImpl)
	t.Cleanup(svc.Close)

	require.Eventually(t, func() bool {
		snap, err := svc.Snapshot(context.Background(), sessionUser)
		return err == nil && snap.Status == string(SessionReady)
	}, 2*time.Second, 10*time.Millisecond)
	return svc
}

func TestServiceRefreshSilentHidesTransientFailure(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	svc := openService(t, store)
	ctx := context.Background()

	ch, cancel, err := svc.Subscribe(ctx, sessionUser)
	require.NoError(t, err)
	defer cancel()

	// 事件触发的静默刷新遇到瞬时故障：不进 LOADING，订阅者一帧都收不到
	store.setListErr(errors.New("network blip"))
	require.NoError(t, svc.RefreshSilent(ctx, sessionUser))
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.listCalls >= 2
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case snap := <-ch:
		t.Fatalf("不该有帧推给订阅者，收到状态 %s", snap.Status)
	case <-time.After(200 * time.Millisecond):
	}

	snap, err := svc.Snapshot(ctx, sessionUser)
	require.NoError(t, err)
	assert.Equal(t, string(SessionReady), snap.Status)
	assert.Empty(t, snap.Error)
	assert.Len(t, snap.Messages, 3)

	// 故障消失后，下一次事件刷新正常推送全量快照
	store.setListErr(nil)
	require.NoError(t, svc.RefreshSilent(ctx, sessionUser))
	select {
	case snap := <-ch:
		assert.Equal(t, string(SessionReady), snap.Status)
		assert.Len(t, snap.Messages, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("刷新成功后没有推送快照")
	}
}

func TestServiceEvictsIdleSessions(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	svc := openService(t, store)
	ctx := context.Background()

	svc.mu.Lock()
	entry := svc.sessions[sessionUser]
	svc.mu.Unlock()
	require.NotNil(t, entry)

	// 有订阅者的会话不回收
	_, cancel, err := svc.Subscribe(ctx, sessionUser)
	require.NoError(t, err)
	svc.evictIdle(time.Now().Add(2 * sessionIdleTTL))
	svc.mu.Lock()
	_, alive := svc.sessions[sessionUser]
	svc.mu.Unlock()
	assert.True(t, alive)

	// 退订且闲置超时后回收，会话协程随之退出
	cancel()
	svc.evictIdle(time.Now().Add(2 * sessionIdleTTL))
	svc.mu.Lock()
	_, alive = svc.sessions[sessionUser]
	svc.mu.Unlock()
	assert.False(t, alive)
	select {
	case <-entry.sess.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("被回收的会话协程仍在运行")
	}

	// 后续调用重建会话
	require.Eventually(t, func() bool {
		snap, err := svc.Snapshot(ctx, sessionUser)
		return err == nil && snap.Status == string(SessionReady)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServiceCloseIdempotent(t *testing.T) {
	store := newFakeStore()
	seedInbox(store)
	svc := openService(t, store)

	svc.Close()
	svc.Close()

	_, err := svc.Snapshot(context.Background(), sessionUser)
	assert.ErrorIs(t, err, ErrSessionClosed)
}
