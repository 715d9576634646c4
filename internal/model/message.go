package model

import (
	"time"
)

// MessageType 统一消息类型（封闭集合）
type MessageType string

const (
	TypeChat         MessageType = "CHAT"         // 聊天消息
	TypeAnnouncement MessageType = "ANNOUNCEMENT" // 公告
	TypeNotification MessageType = "NOTIFICATION" // 通知
	TypeIncident     MessageType = "INCIDENT"     // 突发事件
	TypeAttendance   MessageType = "ATTENDANCE"   // 考勤
	TypeDailyRecord  MessageType = "DAILY_RECORD" // 日常记录
	TypeSystem       MessageType = "SYSTEM"       // 系统消息
)

// MessagePriority 消息优先级
type MessagePriority string

const (
	PriorityLow    MessagePriority = "LOW"
	PriorityNormal MessagePriority = "NORMAL"
	PriorityHigh   MessagePriority = "HIGH"
	PriorityUrgent MessagePriority = "URGENT"
)

// MessageStatus 消息读取状态，只允许 UNREAD -> READ 单向迁移
type MessageStatus string

const (
	StatusUnread MessageStatus = "UNREAD"
	StatusRead   MessageStatus = "READ"
)

// ParseMessageType 解析类型字符串，未知值回退为 CHAT
func ParseMessageType(s string) MessageType {
	switch MessageType(s) {
	case TypeChat, TypeAnnouncement, TypeNotification, TypeIncident,
		TypeAttendance, TypeDailyRecord, TypeSystem:
		return MessageType(s)
	}
	return TypeChat
}

// ParsePriority 解析优先级字符串，未知值回退为 NORMAL
func ParsePriority(s string) MessagePriority {
	switch MessagePriority(s) {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return MessagePriority(s)
	}
	return PriorityNormal
}

// Attachment 附件三元组，本层不做大小/格式校验
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Message 统一消息实体
// 除 Status/ReadAt 外所有字段持久化后不可变，修订以新消息表达
type Message struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Content           string            `json:"content"`
	Type              MessageType       `json:"type"`
	Priority          MessagePriority   `json:"priority"`
	SenderID          string            `json:"senderId"`
	SenderName        string            `json:"senderName"` // 发送时的名称快照，之后不再解析
	ReceiverID        string            `json:"receiverId"`
	ConversationID    string            `json:"conversationId,omitempty"`
	ReplyToID         string            `json:"replyToId,omitempty"`
	Timestamp         time.Time         `json:"timestamp"`
	Status            MessageStatus     `json:"status"`
	ReadAt            *time.Time        `json:"readAt,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	RelatedEntityID   string            `json:"relatedEntityId,omitempty"`
	RelatedEntityType string            `json:"relatedEntityType,omitempty"`
	Attachments       []Attachment      `json:"attachments,omitempty"`
}

// IsPersonal 是否为单发消息
func (m *Message) IsPersonal() bool {
	return !m.IsGroup()
}

// IsGroup 是否为群发批次的副本，副本之间只共享 batchId 不共享状态
func (m *Message) IsGroup() bool {
	return m.Metadata[MetaKeyBatchID] != ""
}

func (m *Message) IsHighPriority() bool {
	return m.Priority == PriorityHigh || m.Priority == PriorityUrgent
}

func (m *Message) IsUrgent() bool {
	return m.Priority == PriorityUrgent
}

func (m *Message) IsRead() bool {
	return m.Status == StatusRead
}

// OtherParticipant 返回会话另一方的用户 ID
func (m *Message) OtherParticipant(currentUserID string) string {
	if m.ReceiverID == currentUserID {
		return m.SenderID
	}
	return m.ReceiverID
}

// ContextID 返回可选的上下文维度（如学生 ID），用于拆分同一对用户的多个会话
func (m *Message) ContextID() string {
	if m.RelatedEntityType == RelatedEntityStudent && m.RelatedEntityID != "" {
		return m.RelatedEntityID
	}
	if m.Metadata != nil {
		return m.Metadata[MetaKeyStudentID]
	}
	return ""
}

// Preview 消息预览文案，用于通知推送
func (m *Message) Preview() string {
	const max = 80
	runes := []rune(m.Content)
	if len(runes) <= max {
		return m.Content
	}
	return string(runes[:max]) + "..."
}

const (
	RelatedEntityStudent = "student"

	MetaKeyStudentID          = "studentId"
	MetaKeyBatchID            = "batchId"
	MetaKeyRequireConfirm     = "requireConfirmation"
	MetaKeySourceEventID      = "sourceEventId"
	MetaKeyAttendanceCategory = "attendanceCategory"
)

// TypeMeta 消息类型的展示元数据
type TypeMeta struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// typeMetaTable 以查表替代散落各处的类型分支，键集合与 MessageType 封闭集合一致
var typeMetaTable = map[MessageType]TypeMeta{
	TypeIncident:     {Icon: "incident", Color: "#e53935"},
	TypeAttendance:   {Icon: "attendance", Color: "#1e88e5"},
	TypeAnnouncement: {Icon: "announcement", Color: "#43a047"},
	TypeDailyRecord:  {Icon: "assignment", Color: "#fb8c00"},
	TypeChat:         {Icon: "chat", Color: "#8e24aa"},
	TypeNotification: {Icon: "notifications", Color: "#546e7a"},
	TypeSystem:       {Icon: "system_update", Color: "#757575"},
}

// MetaForType 返回类型对应的图标与颜色，未知类型按 CHAT 处理
func MetaForType(t MessageType) TypeMeta {
	if meta, ok := typeMetaTable[t]; ok {
		return meta
	}
	return typeMetaTable[TypeChat]
}
