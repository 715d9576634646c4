package service

import (
	"Homeroom/internal/model"
	"Homeroom/internal/repository"
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// fakeStore 内存消息存储，支持按收件人/消息 ID 注入故障
type fakeStore struct {
	mu              sync.Mutex
	msgs            map[string]*model.Message
	putErrFor       map[string]error // 按 receiver_id 注入写入失败
	setStatusErrFor map[string]error // 按消息 ID 注入标记失败
	setStatusNoop   bool             // 标记成功但不落库，模拟写入尚未可见
	listErr         error
	listGate        chan struct{} // 非空时列表查询阻塞到通道关闭，模拟慢存储
	listCalls       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		msgs:            make(map[string]*model.Message),
		putErrFor:       make(map[string]error),
		setStatusErrFor: make(map[string]error),
	}
}

func (s *fakeStore) seed(msgs ...*model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		s.msgs[m.ID] = copyMessage(m)
	}
}

func (s *fakeStore) setListErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

func (s *fakeStore) setListGate(gate chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listGate = gate
}

func (s *fakeStore) get(id string) *model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.msgs[id]; ok {
		return copyMessage(m)
	}
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.msgs[id]
	if !ok {
		return nil, repository.ErrMessageNotFound
	}
	return copyMessage(m), nil
}

func (s *fakeStore) Put(ctx context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.putErrFor[msg.ReceiverID]; err != nil {
		return err
	}
	s.msgs[msg.ID] = copyMessage(msg)
	return nil
}

func (s *fakeStore) ListForUser(ctx context.Context, userID string) ([]*model.Message, error) {
	s.mu.Lock()
	s.listCalls++
	gate := s.listGate
	listErr := s.listErr
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if listErr != nil {
		return nil, listErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*model.Message
	for _, m := range s.msgs {
		if m.ReceiverID == userID || m.SenderID == userID {
			res = append(res, copyMessage(m))
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Timestamp.Equal(res[j].Timestamp) {
			return res[i].Timestamp.After(res[j].Timestamp)
		}
		return res[i].ID > res[j].ID
	})
	return res, nil
}

func (s *fakeStore) SetStatus(ctx context.Context, id string, status model.MessageStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setStatusErrFor[id]; err != nil {
		return err
	}
	m, ok := s.msgs[id]
	if !ok {
		return repository.ErrMessageNotFound
	}
	if s.setStatusNoop {
		return nil
	}
	m.Status = status
	if status == model.StatusRead {
		now := time.Now()
		m.ReadAt = &now
	}
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.msgs[id]; !ok {
		return repository.ErrMessageNotFound
	}
	delete(s.msgs, id)
	return nil
}

func (s *fakeStore) PurgeSystemBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, m := range s.msgs {
		if m.Type == model.TypeSystem && m.Timestamp.Before(cutoff) {
			delete(s.msgs, id)
			n++
		}
	}
	return n, nil
}

func copyMessage(m *model.Message) *model.Message {
	c := *m
	if m.ReadAt != nil {
		t := *m.ReadAt
		c.ReadAt = &t
	}
	if m.Metadata != nil {
		c.Metadata = make(map[string]string, len(m.Metadata))
		for k, v := range m.Metadata {
			c.Metadata[k] = v
		}
	}
	c.Attachments = append([]model.Attachment(nil), m.Attachments...)
	return &c
}

// fakeUserRepo 内存用户仓库
type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return u, nil
}

func (r *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username != nil && *u.Username == username {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *fakeUserRepo) GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	var res []*model.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

// noopNotifier 测试用空通知器
type noopNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *noopNotifier) Notify(ctx context.Context, recipientID, title, preview string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, recipientID)
}

func (n *noopNotifier) notified() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}
