package model

import "time"

// Conversation 派生会话，不作为独立实体持久化
// 每次聚合时从扁平消息集合重新计算，仅在至少有一条消息命中分组键时存在
type Conversation struct {
	Key                string     `json:"key"`
	OtherParticipantID string     `json:"otherParticipantId"`
	ContextID          string     `json:"contextId,omitempty"`
	Messages           []*Message `json:"messages"` // 按 timestamp 降序
	LastMessage        *Message   `json:"lastMessage"`
	UnreadCount        int        `json:"unreadCount"`
}

// LastMessageAt 会话最近一条消息的时间，供会话列表排序
func (c *Conversation) LastMessageAt() time.Time {
	if c.LastMessage == nil {
		return time.Time{}
	}
	return c.LastMessage.Timestamp
}
