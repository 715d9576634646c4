package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"Homeroom/internal/api/dto"
	"Homeroom/internal/model"
	"Homeroom/internal/repository"

	log "log/slog"
)

// SessionStatus 收件箱状态机取值
type SessionStatus string

const (
	SessionIdle    SessionStatus = "IDLE"
	SessionLoading SessionStatus = "LOADING"
	SessionReady   SessionStatus = "READY"
	SessionError   SessionStatus = "ERROR"
)

// InboxSession 单用户收件箱会话。所有状态由 run 协程独占，
// 外部通过命令通道交互，乐观变更在刷新快照到达时重放。
type InboxSession struct {
	userID   string
	store    repository.MessageStore
	interval time.Duration

	cmdCh     chan sessionCmd
	doneCh    chan struct{}
	stopCh    chan struct{}
	closeOnce sync.Once
}

type sessionCmd interface{ isSessionCmd() }

type cmdSnapshot struct {
	reply chan *dto.InboxStateDTO
}

type cmdRefresh struct {
	silent bool
	reply  chan error
}

type cmdRefreshResult struct {
	messages []*model.Message
	err      error
}

type cmdMarkRead struct {
	messageID string
	reply     chan error
}

type cmdMarkReadResult struct {
	messageID string
	err       error
}

type cmdMarkAllRead struct {
	reply chan *dto.MarkAllReadDTO
}

type cmdMarkAllReadResult struct {
	succeeded []string
	failed    []string
	reply     chan *dto.MarkAllReadDTO
}

type cmdDelete struct {
	messageID string
	reply     chan error
}

type cmdDeleteResult struct {
	messageID string
	err       error
}

type cmdSetFilter struct {
	msgType string
	reply   chan *dto.InboxStateDTO
}

type cmdSetSearch struct {
	query string
	reply chan *dto.InboxStateDTO
}

type cmdSubscribe struct {
	ch    chan *dto.InboxStateDTO
	reply chan struct{}
}

type cmdUnsubscribe struct {
	ch chan *dto.InboxStateDTO
}

func (cmdSnapshot) isSessionCmd()          {}
func (cmdRefresh) isSessionCmd()           {}
func (cmdRefreshResult) isSessionCmd()     {}
func (cmdMarkRead) isSessionCmd()          {}
func (cmdMarkReadResult) isSessionCmd()    {}
func (cmdMarkAllRead) isSessionCmd()       {}
func (cmdMarkAllReadResult) isSessionCmd() {}
func (cmdDelete) isSessionCmd()            {}
func (cmdDeleteResult) isSessionCmd()      {}
func (cmdSetFilter) isSessionCmd()         {}
func (cmdSetSearch) isSessionCmd()         {}
func (cmdSubscribe) isSessionCmd()         {}
func (cmdUnsubscribe) isSessionCmd()       {}

// sessionState run 协程内部状态
type sessionState struct {
	status     SessionStatus
	messages   []*model.Message
	typeFilter string
	search     string
	lastErr    error

	// 待确认的乐观变更：已读以消息 ID 记账，删除暂存原消息用于失败回滚
	pendingReads   map[string]struct{}
	pendingDeletes map[string]*model.Message

	inFlight      bool
	refreshSilent bool // 当前在途刷新是否静默，显式刷新可就地升级
	subscribers   map[chan *dto.InboxStateDTO]struct{}
}

// NewInboxSession 创建会话并启动 run 协程，interval 为静默刷新周期
func NewInboxSession(store repository.MessageStore, userID string, interval time.Duration) *InboxSession {
	s := &InboxSession{
		userID:   userID,
		store:    store,
		interval: interval,
		cmdCh:    make(chan sessionCmd, 64),
		doneCh:   make(chan struct{}),
		stopCh:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *InboxSession) run() {
	defer close(s.doneCh)

	st := &sessionState{
		status:         SessionIdle,
		pendingReads:   make(map[string]struct{}),
		pendingDeletes: make(map[string]*model.Message),
		subscribers:    make(map[chan *dto.InboxStateDTO]struct{}),
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// 打开即加载
	s.startRefresh(st, false)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			// 到点就静默刷新，与用户操作无关；ERROR 态也靠它自愈
			if !st.inFlight {
				s.startRefresh(st, true)
			}
		case cmd := <-s.cmdCh:
			s.handle(st, cmd)
		}
	}
}

func (s *InboxSession) handle(st *sessionState, cmd sessionCmd) {
	switch c := cmd.(type) {
	case cmdSnapshot:
		c.reply <- s.snapshot(st)

	case cmdRefresh:
		if !st.inFlight {
			s.startRefresh(st, c.silent)
		} else if !c.silent && st.refreshSilent {
			// 显式刷新撞上在途的静默刷新：就地升级，结果按显式处理
			st.refreshSilent = false
			st.status = SessionLoading
			s.broadcast(st)
		}
		c.reply <- nil

	case cmdRefreshResult:
		s.applyRefresh(st, c)

	case cmdMarkRead:
		c.reply <- s.markRead(st, c.messageID)

	case cmdMarkReadResult:
		if c.err != nil {
			// 落库失败，回滚本地乐观已读
			log.Error("mark read failed, rolling back", "user_id", s.userID, "message_id", c.messageID, "error", c.err)
			delete(st.pendingReads, c.messageID)
			if m := findMessage(st.messages, c.messageID); m != nil {
				m.Status = model.StatusUnread
				m.ReadAt = nil
			}
			s.broadcast(st)
		}

	case cmdMarkAllRead:
		s.markAllRead(st, c.reply)

	case cmdMarkAllReadResult:
		for _, id := range c.failed {
			delete(st.pendingReads, id)
			if m := findMessage(st.messages, id); m != nil {
				m.Status = model.StatusUnread
				m.ReadAt = nil
			}
		}
		if len(c.failed) > 0 {
			s.broadcast(st)
		}
		c.reply <- &dto.MarkAllReadDTO{Marked: len(c.succeeded), Failed: len(c.failed)}

	case cmdDelete:
		c.reply <- s.deleteMessage(st, c.messageID)

	case cmdDeleteResult:
		if c.err != nil {
			// 删除失败，把暂存的原消息放回快照
			log.Error("delete failed, restoring", "user_id", s.userID, "message_id", c.messageID, "error", c.err)
			if m, ok := st.pendingDeletes[c.messageID]; ok {
				st.messages = append(st.messages, m)
				sortMessagesDesc(st.messages)
			}
			delete(st.pendingDeletes, c.messageID)
			s.broadcast(st)
		}

	case cmdSetFilter:
		st.typeFilter = c.msgType
		snap := s.snapshot(st)
		s.broadcast(st)
		c.reply <- snap

	case cmdSetSearch:
		st.search = c.query
		snap := s.snapshot(st)
		s.broadcast(st)
		c.reply <- snap

	case cmdSubscribe:
		st.subscribers[c.ch] = struct{}{}
		c.reply <- struct{}{}

	case cmdUnsubscribe:
		delete(st.subscribers, c.ch)
	}
}

// startRefresh 在独立协程拉取快照，结果回投命令通道，不阻塞状态机
func (s *InboxSession) startRefresh(st *sessionState, silent bool) {
	st.inFlight = true
	st.refreshSilent = silent
	if !silent {
		st.status = SessionLoading
		s.broadcast(st)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		msgs, err := s.store.ListForUser(ctx, s.userID)
		select {
		case s.cmdCh <- cmdRefreshResult{messages: msgs, err: err}:
		case <-s.stopCh:
		}
	}()
}

// applyRefresh 用新快照替换本地数据，并在其上重放未确认的乐观变更
func (s *InboxSession) applyRefresh(st *sessionState, c cmdRefreshResult) {
	st.inFlight = false
	silent := st.refreshSilent

	if c.err != nil {
		if silent {
			// 静默刷新失败保留现有数据，状态不变
			log.Warn("silent refresh failed, keeping stale data", "user_id", s.userID, "error", c.err)
			return
		}
		st.status = SessionError
		st.lastErr = c.err
		s.broadcast(st)
		return
	}

	msgs := c.messages

	// 重放待确认已读：快照已体现则销账，否则继续覆盖
	for id := range st.pendingReads {
		m := findMessage(msgs, id)
		if m == nil {
			delete(st.pendingReads, id)
			continue
		}
		if m.IsRead() {
			delete(st.pendingReads, id)
			continue
		}
		m.Status = model.StatusRead
		now := time.Now()
		m.ReadAt = &now
	}

	// 重放待确认删除：快照已不含则销账，否则继续过滤
	if len(st.pendingDeletes) > 0 {
		kept := msgs[:0]
		present := make(map[string]struct{}, len(st.pendingDeletes))
		for _, m := range msgs {
			if _, ok := st.pendingDeletes[m.ID]; ok {
				present[m.ID] = struct{}{}
				continue
			}
			kept = append(kept, m)
		}
		for id := range st.pendingDeletes {
			if _, ok := present[id]; !ok {
				delete(st.pendingDeletes, id)
			}
		}
		msgs = kept
	}

	st.messages = msgs
	st.status = SessionReady
	st.lastErr = nil
	s.broadcast(st)
}

// markRead 乐观已读：本地立即生效，落库异步确认，重复标记为幂等空操作
func (s *InboxSession) markRead(st *sessionState, messageID string) error {
	m := findMessage(st.messages, messageID)
	if m == nil {
		return ErrMessageNotFound
	}
	if m.ReceiverID != s.userID {
		return ErrMessageNotFound
	}
	if m.IsRead() {
		return nil
	}

	m.Status = model.StatusRead
	now := time.Now()
	m.ReadAt = &now
	st.pendingReads[messageID] = struct{}{}
	s.broadcast(st)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.store.SetStatus(ctx, messageID, model.StatusRead)
		select {
		case s.cmdCh <- cmdMarkReadResult{messageID: messageID, err: err}:
		case <-s.stopCh:
		}
	}()
	return nil
}

// markAllRead 一键已读：逐条落库，成功的保持已读，失败的回滚为未读
func (s *InboxSession) markAllRead(st *sessionState, reply chan *dto.MarkAllReadDTO) {
	var unreadIDs []string
	now := time.Now()
	for _, m := range st.messages {
		if m.ReceiverID == s.userID && !m.IsRead() {
			unreadIDs = append(unreadIDs, m.ID)
			m.Status = model.StatusRead
			readAt := now
			m.ReadAt = &readAt
			st.pendingReads[m.ID] = struct{}{}
		}
	}
	if len(unreadIDs) == 0 {
		reply <- &dto.MarkAllReadDTO{}
		return
	}
	s.broadcast(st)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		var succeeded, failed []string
		for _, id := range unreadIDs {
			if err := s.store.SetStatus(ctx, id, model.StatusRead); err != nil {
				log.Error("mark all read: item failed", "user_id", s.userID, "message_id", id, "error", err)
				failed = append(failed, id)
				continue
			}
			succeeded = append(succeeded, id)
		}
		select {
		case s.cmdCh <- cmdMarkAllReadResult{succeeded: succeeded, failed: failed, reply: reply}:
		case <-s.stopCh:
		}
	}()
}

// deleteMessage 乐观删除：仅发送方可删，且对方已读后不可删
func (s *InboxSession) deleteMessage(st *sessionState, messageID string) error {
	m := findMessage(st.messages, messageID)
	if m == nil {
		return ErrMessageNotFound
	}
	if m.SenderID != s.userID {
		return ErrDeleteNotSender
	}
	if m.IsRead() {
		return ErrDeleteAlreadyRead
	}

	st.pendingDeletes[messageID] = m
	kept := st.messages[:0]
	for _, mm := range st.messages {
		if mm.ID != messageID {
			kept = append(kept, mm)
		}
	}
	st.messages = kept
	s.broadcast(st)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.store.Delete(ctx, messageID)
		select {
		case s.cmdCh <- cmdDeleteResult{messageID: messageID, err: err}:
		case <-s.stopCh:
		}
	}()
	return nil
}

// snapshot 构造只读视图：过滤、搜索、会话分组都在这里现算
func (s *InboxSession) snapshot(st *sessionState) *dto.InboxStateDTO {
	snap := &dto.InboxStateDTO{
		Status:     string(st.status),
		TypeFilter: st.typeFilter,
		Search:     st.search,
	}
	if st.lastErr != nil {
		snap.Error = st.lastErr.Error()
	}

	snap.Messages = make([]*dto.MessageDTO, 0, len(st.messages))
	for _, m := range st.messages {
		snap.Messages = append(snap.Messages, dto.ToMessageDTO(m))
		if m.ReceiverID == s.userID && !m.IsRead() {
			snap.UnreadCount++
		}
	}

	filtered := ApplyFilters(st.messages, model.MessageType(st.typeFilter), st.search)
	snap.Filtered = make([]*dto.MessageDTO, 0, len(filtered))
	for _, m := range filtered {
		snap.Filtered = append(snap.Filtered, dto.ToMessageDTO(m))
	}

	convs := GroupConversations(st.messages, s.userID)
	snap.Conversations = make([]*dto.ConversationDTO, 0, len(convs))
	for _, cv := range convs {
		snap.Conversations = append(snap.Conversations, &dto.ConversationDTO{
			Key:                cv.Key,
			OtherParticipantID: cv.OtherParticipantID,
			ContextID:          cv.ContextID,
			LastMessage:        dto.ToMessageDTO(cv.LastMessage),
			LastMessageAt:      cv.LastMessageAt(),
			UnreadCount:        cv.UnreadCount,
			MessageCount:       len(cv.Messages),
		})
	}
	return snap
}

func (s *InboxSession) broadcast(st *sessionState) {
	if len(st.subscribers) == 0 {
		return
	}
	snap := s.snapshot(st)
	for ch := range st.subscribers {
		select {
		case ch <- snap:
		default:
			// 订阅者消费不过来就丢弃本帧，下一帧是全量快照
		}
	}
}

// --- 对外接口，所有调用都经命令通道串行化 ---

// Snapshot 当前状态快照
func (s *InboxSession) Snapshot(ctx context.Context) (*dto.InboxStateDTO, error) {
	reply := make(chan *dto.InboxStateDTO, 1)
	if err := s.send(ctx, cmdSnapshot{reply: reply}); err != nil {
		return nil, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stopCh:
		return nil, ErrSessionClosed
	}
}

// Refresh 显式刷新，进入 LOADING 态
func (s *InboxSession) Refresh(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, cmdRefresh{silent: false, reply: reply}); err != nil {
		return err
	}
	return s.await(ctx, reply)
}

// RefreshSilent 静默刷新：不进入 LOADING，失败不改变状态，供事件桥接等后台触发使用
func (s *InboxSession) RefreshSilent(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, cmdRefresh{silent: true, reply: reply}); err != nil {
		return err
	}
	return s.await(ctx, reply)
}

// MarkRead 标记单条已读
func (s *InboxSession) MarkRead(ctx context.Context, messageID string) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, cmdMarkRead{messageID: messageID, reply: reply}); err != nil {
		return err
	}
	return s.await(ctx, reply)
}

// MarkAllRead 一键已读，返回成功与失败条数
func (s *InboxSession) MarkAllRead(ctx context.Context) (*dto.MarkAllReadDTO, error) {
	reply := make(chan *dto.MarkAllReadDTO, 1)
	if err := s.send(ctx, cmdMarkAllRead{reply: reply}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stopCh:
		return nil, ErrSessionClosed
	}
}

// Delete 删除消息
func (s *InboxSession) Delete(ctx context.Context, messageID string) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, cmdDelete{messageID: messageID, reply: reply}); err != nil {
		return err
	}
	return s.await(ctx, reply)
}

// SetTypeFilter 设置类型过滤并返回新快照
func (s *InboxSession) SetTypeFilter(ctx context.Context, msgType string) (*dto.InboxStateDTO, error) {
	reply := make(chan *dto.InboxStateDTO, 1)
	if err := s.send(ctx, cmdSetFilter{msgType: msgType, reply: reply}); err != nil {
		return nil, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stopCh:
		return nil, ErrSessionClosed
	}
}

// SetSearch 设置搜索文本并返回新快照
func (s *InboxSession) SetSearch(ctx context.Context, query string) (*dto.InboxStateDTO, error) {
	reply := make(chan *dto.InboxStateDTO, 1)
	if err := s.send(ctx, cmdSetSearch{query: query, reply: reply}); err != nil {
		return nil, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stopCh:
		return nil, ErrSessionClosed
	}
}

// Subscribe 订阅快照推送，返回退订函数
func (s *InboxSession) Subscribe(ctx context.Context) (<-chan *dto.InboxStateDTO, func(), error) {
	ch := make(chan *dto.InboxStateDTO, 8)
	reply := make(chan struct{}, 1)
	if err := s.send(ctx, cmdSubscribe{ch: ch, reply: reply}); err != nil {
		return nil, nil, err
	}
	select {
	case <-reply:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-s.stopCh:
		return nil, nil, ErrSessionClosed
	}
	cancel := func() {
		select {
		case s.cmdCh <- cmdUnsubscribe{ch: ch}:
		case <-s.stopCh:
		}
	}
	return ch, cancel, nil
}

// Close 停止会话并等待 run 协程退出
func (s *InboxSession) Close() {
	s.closeOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

func (s *InboxSession) send(ctx context.Context, cmd sessionCmd) error {
	select {
	case s.cmdCh <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopCh:
		return ErrSessionClosed
	}
}

func (s *InboxSession) await(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopCh:
		return ErrSessionClosed
	}
}

func findMessage(msgs []*model.Message, id string) *model.Message {
	for _, m := range msgs {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func sortMessagesDesc(msgs []*model.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].ID > msgs[j].ID
		}
		return msgs[i].Timestamp.After(msgs[j].Timestamp)
	})
}
