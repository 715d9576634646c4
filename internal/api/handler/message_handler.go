package handler

import (
	"Homeroom/internal/api/dto"
	"Homeroom/internal/pkg/response"
	"Homeroom/internal/service"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	composeSvc service.ComposeService
}

func NewMessageHandler(composeSvc service.ComposeService) *MessageHandler {
	return &MessageHandler{composeSvc: composeSvc}
}

// Send 发送消息，支持多收件人群发
func (s *MessageHandler) Send(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, err)
		return
	}
	userID := c.GetString("user_id")
	receipt, err := s.composeSvc.SendMessage(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, receipt)
}

// Reply 回复指定消息
func (s *MessageHandler) Reply(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, err)
		return
	}
	userID := c.GetString("user_id")
	originalID := c.Param("message_id")
	receipt, err := s.composeSvc.ReplyMessage(c.Request.Context(), userID, originalID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, receipt)
}

// Detail 消息详情，回复消息时附带被引用原文
func (s *MessageHandler) Detail(c *gin.Context) {
	userID := c.GetString("user_id")
	messageID := c.Param("message_id")
	detail, err := s.composeSvc.GetMessageDetail(c.Request.Context(), userID, messageID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// Delete 撤回消息
func (s *MessageHandler) Delete(c *gin.Context) {
	userID := c.GetString("user_id")
	messageID := c.Param("message_id")
	if err := s.composeSvc.DeleteMessage(c.Request.Context(), userID, messageID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
