package handler

import (
	"Homeroom/internal/pkg/consts"
	"Homeroom/internal/pkg/redis"
	"Homeroom/internal/pkg/response"
	"Homeroom/internal/pkg/security"
	"Homeroom/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	inboxSvc service.InboxService
}

func NewWsHandler(inboxSvc service.InboxService) *WsHandler {
	return &WsHandler{inboxSvc: inboxSvc}
}

// Connect 建立收件箱推送连接：下发状态快照帧，并桥接新消息事件
func (s *WsHandler) Connect(c *gin.Context) {
	// 浏览器 WS 不带自定义头，令牌走 query
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 订阅会话快照推送
	snapCh, unsubscribe, err := s.inboxSvc.Subscribe(ctx, userID)
	if err != nil {
		log.Error("订阅收件箱失败", "userID", userID, "err", err)
		return
	}
	defer unsubscribe()

	// 订阅 Redis 新消息总线，收到事件就触发一次静默刷新
	pubsub := redis.Subscribe(ctx, consts.MsgUserChannelKey+userID)
	defer func() {
		_ = pubsub.Close()
	}()

	// 连接建立先推一帧当前状态
	if snap, err := s.inboxSvc.Snapshot(ctx, userID); err == nil {
		if payload, err := json.Marshal(snap); err == nil {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = conn.WriteMessage(websocket.TextMessage, payload)
		}
	}

	log.Info("用户 WS 连接已建立", "userID", userID)

	stopChan := make(chan struct{})

	// 读循环：监听客户端主动断开
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(stopChan)
				return
			}
		}
	}()

	redisCh := pubsub.Channel()
	for {
		select {
		case snap := <-snapCh:
			payload, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Error("WS 推送失败", "userID", userID, "err", err)
				return
			}
		case <-redisCh:
			// 事件触发走静默刷新：不进 LOADING，瞬时故障不往订阅者广播
			if err := s.inboxSvc.RefreshSilent(ctx, userID); err != nil {
				log.Warn("事件触发刷新失败", "userID", userID, "err", err)
			}
		case <-stopChan:
			log.Info("用户 WS 连接已断开", "userID", userID)
			return
		}
	}
}
