package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"Homeroom/internal/api/dto"
	"Homeroom/internal/pkg/consts"
	"Homeroom/internal/pkg/redis"
	"Homeroom/internal/repository"

	log "log/slog"
)

const (
	// sessionIdleTTL 无订阅者且无调用超过该时长的会话会被回收
	sessionIdleTTL = 30 * time.Minute
	// sessionSweepEvery 回收巡检周期
	sessionSweepEvery = 5 * time.Minute
)

// InboxService 收件箱服务接口定义。每个用户一个会话协程，惰性创建，闲置回收。
type InboxService interface {
	Snapshot(ctx context.Context, userID string) (*dto.InboxStateDTO, error)
	Conversations(ctx context.Context, userID string) ([]*dto.ConversationDTO, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, messageID string) error
	MarkAllRead(ctx context.Context, userID string) (*dto.MarkAllReadDTO, error)
	Delete(ctx context.Context, userID, messageID string) error
	SetTypeFilter(ctx context.Context, userID, msgType string) (*dto.InboxStateDTO, error)
	SetSearch(ctx context.Context, userID, query string) (*dto.InboxStateDTO, error)
	Refresh(ctx context.Context, userID string) (*dto.InboxStateDTO, error)
	RefreshSilent(ctx context.Context, userID string) error
	Subscribe(ctx context.Context, userID string) (<-chan *dto.InboxStateDTO, func(), error)
	Close()
}

// sessionEntry 会话与回收记账：活跃订阅数、最近一次调用时间
type sessionEntry struct {
	sess     *InboxSession
	subs     int
	lastUsed time.Time
}

type inboxServiceImpl struct {
	store    repository.MessageStore
	interval time.Duration
	idleTTL  time.Duration

	mu       sync.Mutex
	sessions map[string]*sessionEntry
	closed   bool
	stopCh   chan struct{}
}

// NewInboxService 构造函数，refreshIntervalSec 为静默刷新周期（秒）
func NewInboxService(store repository.MessageStore, refreshIntervalSec int) InboxService {
	if refreshIntervalSec <= 0 {
		refreshIntervalSec = 60
	}
	s := &inboxServiceImpl{
		store:    store,
		interval: time.Duration(refreshIntervalSec) * time.Second,
		idleTTL:  sessionIdleTTL,
		sessions: make(map[string]*sessionEntry),
		stopCh:   make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// session 取用户会话，没有就建，顺带刷新活跃时间
func (s *inboxServiceImpl) session(userID string) (*InboxSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	entry, ok := s.sessions[userID]
	if !ok {
		entry = &sessionEntry{sess: NewInboxSession(s.store, userID, s.interval)}
		s.sessions[userID] = entry
		log.Info("inbox session opened", "user_id", userID)
	}
	entry.lastUsed = time.Now()
	return entry.sess, nil
}

// sweepLoop 周期回收闲置会话
func (s *inboxServiceImpl) sweepLoop() {
	ticker := time.NewTicker(sessionSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.evictIdle(time.Now())
		case <-s.stopCh:
			return
		}
	}
}

// evictIdle 关停超过闲置时限且没有订阅者的会话
func (s *inboxServiceImpl) evictIdle(now time.Time) {
	s.mu.Lock()
	victims := make(map[string]*InboxSession)
	for userID, entry := range s.sessions {
		if entry.subs == 0 && now.Sub(entry.lastUsed) >= s.idleTTL {
			victims[userID] = entry.sess
			delete(s.sessions, userID)
		}
	}
	s.mu.Unlock()

	for userID, sess := range victims {
		sess.Close()
		log.Info("idle inbox session evicted", "user_id", userID)
	}
}

func (s *inboxServiceImpl) Snapshot(ctx context.Context, userID string) (*dto.InboxStateDTO, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	return sess.Snapshot(ctx)
}

func (s *inboxServiceImpl) Conversations(ctx context.Context, userID string) ([]*dto.ConversationDTO, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snap.Conversations, nil
}

// UnreadCount 未读角标，顺带写一份短时缓存给推送网关侧查询
func (s *inboxServiceImpl) UnreadCount(ctx context.Context, userID string) (int, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := redis.SetWithExpiration(ctx, consts.MsgUnreadCountKey+userID, strconv.Itoa(snap.UnreadCount), 5*time.Minute); err != nil {
		log.WarnContext(ctx, "cache unread count failed", "user_id", userID, "error", err)
	}
	return snap.UnreadCount, nil
}

func (s *inboxServiceImpl) MarkRead(ctx context.Context, userID, messageID string) error {
	sess, err := s.session(userID)
	if err != nil {
		return err
	}
	return sess.MarkRead(ctx, messageID)
}

func (s *inboxServiceImpl) MarkAllRead(ctx context.Context, userID string) (*dto.MarkAllReadDTO, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	return sess.MarkAllRead(ctx)
}

func (s *inboxServiceImpl) Delete(ctx context.Context, userID, messageID string) error {
	sess, err := s.session(userID)
	if err != nil {
		return err
	}
	return sess.Delete(ctx, messageID)
}

func (s *inboxServiceImpl) SetTypeFilter(ctx context.Context, userID, msgType string) (*dto.InboxStateDTO, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	return sess.SetTypeFilter(ctx, msgType)
}

func (s *inboxServiceImpl) SetSearch(ctx context.Context, userID, query string) (*dto.InboxStateDTO, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	return sess.SetSearch(ctx, query)
}

func (s *inboxServiceImpl) Refresh(ctx context.Context, userID string) (*dto.InboxStateDTO, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	if err := sess.Refresh(ctx); err != nil {
		return nil, err
	}
	return sess.Snapshot(ctx)
}

// RefreshSilent 事件触发的后台刷新：不进 LOADING，失败不外泄
func (s *inboxServiceImpl) RefreshSilent(ctx context.Context, userID string) error {
	sess, err := s.session(userID)
	if err != nil {
		return err
	}
	return sess.RefreshSilent(ctx)
}

func (s *inboxServiceImpl) Subscribe(ctx context.Context, userID string) (<-chan *dto.InboxStateDTO, func(), error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, nil, err
	}
	ch, unsubscribe, err := sess.Subscribe(ctx)
	if err != nil {
		return nil, nil, err
	}

	// 有订阅者的会话不参与闲置回收
	s.mu.Lock()
	entry, ok := s.sessions[userID]
	if ok {
		entry.subs++
	}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			unsubscribe()
			s.mu.Lock()
			if entry, ok := s.sessions[userID]; ok && entry.subs > 0 {
				entry.subs--
				entry.lastUsed = time.Now()
			}
			s.mu.Unlock()
		})
	}
	return ch, cancel, nil
}

// Close 关闭所有会话，等待各自的协程退出
func (s *inboxServiceImpl) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.stopCh)
	sessions := s.sessions
	s.sessions = make(map[string]*sessionEntry)
	s.mu.Unlock()

	for userID, entry := range sessions {
		entry.sess.Close()
		log.Info("inbox session closed", "user_id", userID)
	}
}
