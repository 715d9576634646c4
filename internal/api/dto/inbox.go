package dto

import "time"

// InboxStateDTO 收件箱快照，推送给 UI 层的只读视图
type InboxStateDTO struct {
	Status        string             `json:"status"` // IDLE / LOADING / READY / ERROR
	Messages      []*MessageDTO      `json:"messages"`
	Filtered      []*MessageDTO      `json:"filtered"`
	Conversations []*ConversationDTO `json:"conversations"`
	TypeFilter    string             `json:"type_filter,omitempty"`
	Search        string             `json:"search,omitempty"`
	UnreadCount   int                `json:"unread_count"`
	Error         string             `json:"error,omitempty"`
}

// ConversationDTO 会话列表项响应
type ConversationDTO struct {
	Key                string      `json:"key"`
	OtherParticipantID string      `json:"other_participant_id"`
	ContextID          string      `json:"context_id,omitempty"`
	LastMessage        *MessageDTO `json:"last_message"`
	LastMessageAt      time.Time   `json:"last_message_at"`
	UnreadCount        int         `json:"unread_count"`
	MessageCount       int         `json:"message_count"`
}

// MarkReadReq 标记已读请求
type MarkReadReq struct {
	MessageID string `json:"message_id" binding:"required"`
}

// SetFilterReq 设置类型过滤请求
type SetFilterReq struct {
	Type string `json:"type"`
}

// SetSearchReq 设置搜索文本请求
type SetSearchReq struct {
	Query string `json:"query"`
}

// MarkAllReadDTO 一键已读结果，部分失败如实上报
type MarkAllReadDTO struct {
	Marked int `json:"marked"`
	Failed int `json:"failed"`
}

// UnreadCountDTO 未读数响应
type UnreadCountDTO struct {
	UnreadCount int `json:"unread_count"`
}
