package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"Homeroom/internal/api/dto"
	"Homeroom/internal/model"
	"Homeroom/internal/pkg/consts"
	"Homeroom/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	log "log/slog"
)

// ComposeService 消息撰写与群发服务接口定义
type ComposeService interface {
	SendMessage(ctx context.Context, senderID string, req *dto.SendMessageReq) (*dto.SendReceiptDTO, error)
	ReplyMessage(ctx context.Context, senderID string, originalID string, req *dto.SendMessageReq) (*dto.SendReceiptDTO, error)
	SendSystemMessage(ctx context.Context, req *dto.SendMessageReq) (*dto.SendReceiptDTO, error)
	GetMessageDetail(ctx context.Context, userID string, messageID string) (*dto.MessageDetailDTO, error)
	DeleteMessage(ctx context.Context, userID string, messageID string) error
}

type composeServiceImpl struct {
	store       repository.MessageStore
	userRepo    repository.UserRepo
	notifier    Notifier
	concurrency int
	now         func() time.Time
}

// NewComposeService 构造函数
func NewComposeService(store repository.MessageStore, userRepo repository.UserRepo, notifier Notifier, concurrency int) ComposeService {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &composeServiceImpl{
		store:       store,
		userRepo:    userRepo,
		notifier:    notifier,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// draft 校验后的待发草稿，群发时按收件人逐份落库
type draft struct {
	title          string
	content        string
	msgType        model.MessageType
	priority       model.MessagePriority
	senderID       string
	senderName     string
	receiverIDs    []string
	conversationID string
	replyToID      string
	metadata       map[string]string
	attachments    []model.Attachment
	relatedID      string
	relatedType    string
}

// SendMessage 发送消息，支持单发与群发
func (s *composeServiceImpl) SendMessage(ctx context.Context, senderID string, req *dto.SendMessageReq) (*dto.SendReceiptDTO, error) {
	sender, err := s.userRepo.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	d, err := s.buildDraft(senderID, sender.DisplayName(), req)
	if err != nil {
		return nil, err
	}
	return s.fanout(ctx, d)
}

// ReplyMessage 回复消息：收件人回落到原消息发送方，标题补 RE: 前缀
func (s *composeServiceImpl) ReplyMessage(ctx context.Context, senderID string, originalID string, req *dto.SendMessageReq) (*dto.SendReceiptDTO, error) {
	sender, err := s.userRepo.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	original, err := s.store.GetByID(ctx, originalID)
	if err != nil {
		return nil, ErrReplyTargetMissing
	}

	d, err := s.buildDraft(senderID, sender.DisplayName(), req)
	if err != nil {
		return nil, err
	}

	// 回复链规则：收件人默认为原发送方，会话 ID 沿用或以原消息 ID 开链
	if len(d.receiverIDs) == 0 {
		d.receiverIDs = []string{original.SenderID}
	}
	d.replyToID = original.ID
	if original.ConversationID != "" {
		d.conversationID = original.ConversationID
	} else {
		d.conversationID = original.ID
	}

	// RE: 前缀恰好出现一次，已带前缀的标题不再叠加
	if !strings.HasPrefix(d.title, consts.ReplyPrefix) {
		d.title = consts.ReplyPrefix + d.title
	}

	return s.fanout(ctx, d)
}

// SendSystemMessage 系统消息入口，供事件摄取与定时任务使用
func (s *composeServiceImpl) SendSystemMessage(ctx context.Context, req *dto.SendMessageReq) (*dto.SendReceiptDTO, error) {
	d, err := s.buildDraft(consts.SystemSenderID, consts.SystemSenderName, req)
	if err != nil {
		return nil, err
	}
	return s.fanout(ctx, d)
}

// buildDraft 请求校验与草稿组装
func (s *composeServiceImpl) buildDraft(senderID, senderName string, req *dto.SendMessageReq) (*draft, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" {
		return nil, ErrTitleBlank
	}
	if content == "" {
		return nil, ErrContentBlank
	}

	// 收件人去重，保持原始顺序
	seen := make(map[string]struct{}, len(req.ReceiverIDs))
	receivers := make([]string, 0, len(req.ReceiverIDs))
	for _, id := range req.ReceiverIDs {
		id = strings.TrimSpace(id)
		if id == "" || id == senderID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		receivers = append(receivers, id)
	}

	return &draft{
		title:       title,
		content:     content,
		msgType:     model.ParseMessageType(req.Type),
		priority:    model.ParsePriority(req.Priority),
		senderID:    senderID,
		senderName:  senderName,
		receiverIDs: receivers,
		metadata:    req.Metadata,
		attachments: req.Attachments,
		relatedID:   req.RelatedID,
		relatedType: req.RelatedType,
	}, nil
}

// fanout 按收件人生成互不关联的消息副本并发落库，逐收件人上报成败
func (s *composeServiceImpl) fanout(ctx context.Context, d *draft) (*dto.SendReceiptDTO, error) {
	if len(d.receiverIDs) == 0 {
		return nil, ErrNoRecipient
	}

	// 群发时以批次 ID 标记同批副本，副本之间无任何状态关联
	metadata := d.metadata
	if len(d.receiverIDs) > 1 {
		metadata = make(map[string]string, len(d.metadata)+1)
		for k, v := range d.metadata {
			metadata[k] = v
		}
		metadata[model.MetaKeyBatchID] = uuid.NewString()
	}

	var (
		mu      sync.Mutex
		ids     = make([]string, 0, len(d.receiverIDs))
		failed  []dto.RecipientFailure
		sentNow = s.now()
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, receiverID := range d.receiverIDs {
		receiverID := receiverID
		g.Go(func() error {
			m := &model.Message{
				ID:                uuid.NewString(),
				Title:             d.title,
				Content:           d.content,
				Type:              d.msgType,
				Priority:          d.priority,
				SenderID:          d.senderID,
				SenderName:        d.senderName,
				ReceiverID:        receiverID,
				ConversationID:    d.conversationID,
				ReplyToID:         d.replyToID,
				Timestamp:         sentNow,
				Status:            model.StatusUnread,
				Metadata:          metadata,
				Attachments:       d.attachments,
				RelatedEntityID:   d.relatedID,
				RelatedEntityType: d.relatedType,
			}

			if err := s.store.Put(gctx, m); err != nil {
				log.ErrorContext(gctx, "fanout put failed", "receiver_id", receiverID, "error", err)
				mu.Lock()
				failed = append(failed, dto.RecipientFailure{RecipientID: receiverID, Reason: err.Error()})
				mu.Unlock()
				// 单个收件人失败不终止整批
				return nil
			}

			mu.Lock()
			ids = append(ids, m.ID)
			mu.Unlock()

			// 通知派发尽力而为，失败只记日志
			s.notifier.Notify(gctx, receiverID, m.Title, m.Preview())
			return nil
		})
	}
	_ = g.Wait()

	if len(ids) == 0 {
		return nil, UnExpectedError
	}

	return &dto.SendReceiptDTO{
		MessageIDs: ids,
		Sent:       len(ids),
		Failed:     failed,
	}, nil
}

// GetMessageDetail 消息详情，回复消息时附带被引用原文
func (s *composeServiceImpl) GetMessageDetail(ctx context.Context, userID string, messageID string) (*dto.MessageDetailDTO, error) {
	m, err := s.store.GetByID(ctx, messageID)
	if err != nil {
		return nil, ErrMessageNotFound
	}
	if m.ReceiverID != userID && m.SenderID != userID {
		return nil, ErrMessageNotFound
	}

	detail := &dto.MessageDetailDTO{Message: dto.ToMessageDTO(m)}
	if m.ReplyToID != "" {
		// 原文缺失时降级为只返回消息本身
		if original, err := s.store.GetByID(ctx, m.ReplyToID); err == nil {
			detail.Original = dto.ToMessageDTO(original)
		}
	}
	return detail, nil
}

// DeleteMessage 撤回消息：仅发送方可撤回，且收件人已读后不可撤回
func (s *composeServiceImpl) DeleteMessage(ctx context.Context, userID string, messageID string) error {
	m, err := s.store.GetByID(ctx, messageID)
	if err != nil {
		return ErrMessageNotFound
	}
	if m.SenderID != userID {
		return ErrDeleteNotSender
	}
	if m.IsRead() {
		return ErrDeleteAlreadyRead
	}
	return s.store.Delete(ctx, messageID)
}
