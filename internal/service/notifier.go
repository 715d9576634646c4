package service

import (
	"Homeroom/internal/pkg/consts"
	"Homeroom/internal/pkg/push"
	"Homeroom/internal/pkg/redis"
	"context"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
)

// Notifier 通知分发器，尽力而为：失败只记录日志，绝不回滚消息写入
type Notifier interface {
	Notify(ctx context.Context, recipientID, title, preview string)
}

// notifyEvent 应用内推送载荷，经 Redis 频道桥接到 WS 连接
type notifyEvent struct {
	Kind        string `json:"kind"`
	RecipientID string `json:"recipientId"`
	Title       string `json:"title"`
	Preview     string `json:"preview"`
	SentAt      int64  `json:"sentAt"`
}

type redisNotifier struct{}

// NewRedisNotifier 构造基于 Redis 频道的应用内通知器
func NewRedisNotifier() Notifier {
	return &redisNotifier{}
}

func (s *redisNotifier) Notify(ctx context.Context, recipientID, title, preview string) {
	data, err := json.Marshal(&notifyEvent{
		Kind:        "NEW_MESSAGE",
		RecipientID: recipientID,
		Title:       title,
		Preview:     preview,
		SentAt:      time.Now().UnixMilli(),
	})
	if err != nil {
		log.ErrorContext(ctx, "通知载荷序列化失败", "err", err)
		return
	}
	if err := redis.Publish(ctx, consts.MsgUserChannelKey+recipientID, data); err != nil {
		log.WarnContext(ctx, "应用内通知发布失败", "recipient", recipientID, "err", err)
	}
}

type pushNotifier struct {
	client *push.Client
}

// NewPushNotifier 构造基于推送网关的离线通知器
func NewPushNotifier(client *push.Client) Notifier {
	return &pushNotifier{client: client}
}

func (s *pushNotifier) Notify(ctx context.Context, recipientID, title, preview string) {
	// 网关调用不阻塞发送主流程
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	go func() {
		defer cancel()
		if err := s.client.Send(sendCtx, recipientID, title, preview); err != nil {
			log.Warn("推送网关调用失败", "recipient", recipientID, "err", err)
		}
	}()
}

type multiNotifier struct {
	targets []Notifier
}

// NewMultiNotifier 顺序分发到多个通知器
func NewMultiNotifier(targets ...Notifier) Notifier {
	return &multiNotifier{targets: targets}
}

func (s *multiNotifier) Notify(ctx context.Context, recipientID, title, preview string) {
	for _, t := range s.targets {
		t.Notify(ctx, recipientID, title, preview)
	}
}
