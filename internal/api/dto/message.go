package dto

import (
	"Homeroom/internal/model"
	"time"
)

// SendMessageReq 发送消息请求体
type SendMessageReq struct {
	Title       string             `json:"title" binding:"required"`
	Content     string             `json:"content" binding:"required"`
	Type        string             `json:"type"`
	Priority    string             `json:"priority"`
	ReceiverIDs []string           `json:"receiver_ids"`
	ReplyToID   string             `json:"reply_to_id"`
	Metadata    map[string]string  `json:"metadata"`
	Attachments []model.Attachment `json:"attachments"`
	RelatedID   string             `json:"related_entity_id"`
	RelatedType string             `json:"related_entity_type"`
}

// RecipientFailure 群发中单个收件人的失败明细
type RecipientFailure struct {
	RecipientID string `json:"recipient_id"`
	Reason      string `json:"reason"`
}

// SendReceiptDTO 发送回执：逐收件人报告成败，而非单个布尔值
type SendReceiptDTO struct {
	MessageIDs []string           `json:"message_ids"`
	Sent       int                `json:"sent"`
	Failed     []RecipientFailure `json:"failed,omitempty"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Content        string             `json:"content"`
	Type           string             `json:"type"`
	Priority       string             `json:"priority"`
	SenderID       string             `json:"sender_id"`
	SenderName     string             `json:"sender_name"`
	ReceiverID     string             `json:"receiver_id"`
	ConversationID string             `json:"conversation_id,omitempty"`
	ReplyToID      string             `json:"reply_to_id,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
	Status         string             `json:"status"`
	Metadata       map[string]string  `json:"metadata,omitempty"`
	Attachments    []model.Attachment `json:"attachments,omitempty"`
	Icon           string             `json:"icon"`
	Color          string             `json:"color"`
}

// MessageDetailDTO 消息详情，回复消息时附带被引用的原始消息
type MessageDetailDTO struct {
	Message  *MessageDTO `json:"message"`
	Original *MessageDTO `json:"original,omitempty"`
}

// ToMessageDTO 模型转响应体，展示元数据来自类型查表
func ToMessageDTO(m *model.Message) *MessageDTO {
	meta := model.MetaForType(m.Type)
	return &MessageDTO{
		ID:             m.ID,
		Title:          m.Title,
		Content:        m.Content,
		Type:           string(m.Type),
		Priority:       string(m.Priority),
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		ReceiverID:     m.ReceiverID,
		ConversationID: m.ConversationID,
		ReplyToID:      m.ReplyToID,
		Timestamp:      m.Timestamp,
		Status:         string(m.Status),
		Metadata:       m.Metadata,
		Attachments:    m.Attachments,
		Icon:           meta.Icon,
		Color:          meta.Color,
	}
}
