package handler

import (
	"Homeroom/internal/api/dto"
	"Homeroom/internal/pkg/response"
	"Homeroom/internal/service"

	"github.com/gin-gonic/gin"
)

type InboxHandler struct {
	inboxSvc service.InboxService
}

func NewInboxHandler(inboxSvc service.InboxService) *InboxHandler {
	return &InboxHandler{inboxSvc: inboxSvc}
}

// Snapshot 收件箱快照，query 参数可顺带设置过滤与搜索
func (s *InboxHandler) Snapshot(c *gin.Context) {
	userID := c.GetString("user_id")

	if t, ok := c.GetQuery("type"); ok {
		if _, err := s.inboxSvc.SetTypeFilter(c.Request.Context(), userID, t); err != nil {
			response.Error(c, err)
			return
		}
	}
	if q, ok := c.GetQuery("search"); ok {
		if _, err := s.inboxSvc.SetSearch(c.Request.Context(), userID, q); err != nil {
			response.Error(c, err)
			return
		}
	}

	snap, err := s.inboxSvc.Snapshot(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snap)
}

// Conversations 会话列表
func (s *InboxHandler) Conversations(c *gin.Context) {
	userID := c.GetString("user_id")
	convs, err := s.inboxSvc.Conversations(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, convs)
}

// UnreadCount 未读角标
func (s *InboxHandler) UnreadCount(c *gin.Context) {
	userID := c.GetString("user_id")
	count, err := s.inboxSvc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.UnreadCountDTO{UnreadCount: count})
}

// MarkRead 标记单条已读，重复标记幂等
func (s *InboxHandler) MarkRead(c *gin.Context) {
	var req dto.MarkReadReq
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, err)
		return
	}
	userID := c.GetString("user_id")
	if err := s.inboxSvc.MarkRead(c.Request.Context(), userID, req.MessageID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// MarkAllRead 一键已读，返回成功与失败条数
func (s *InboxHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetString("user_id")
	result, err := s.inboxSvc.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Refresh 显式刷新
func (s *InboxHandler) Refresh(c *gin.Context) {
	userID := c.GetString("user_id")
	snap, err := s.inboxSvc.Refresh(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snap)
}
