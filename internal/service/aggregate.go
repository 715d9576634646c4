package service

import (
	"Homeroom/internal/model"
	"sort"
)

// ConversationKey 计算消息的会话分组键
// 键格式为 otherParticipantId 或 otherParticipantId:contextId
// 格式变更只需改这里，调用方不感知
func ConversationKey(m *model.Message, currentUserID string) string {
	other := m.OtherParticipant(currentUserID)
	if ctx := m.ContextID(); ctx != "" {
		return other + ":" + ctx
	}
	return other
}

// GroupConversations 将扁平消息集合聚合为会话列表
// 纯函数：无副作用，相同输入必然产出相同结果（顺序与内容）
func GroupConversations(messages []*model.Message, currentUserID string) []*model.Conversation {
	groups := make(map[string]*model.Conversation)

	for _, m := range messages {
		key := ConversationKey(m, currentUserID)
		conv, ok := groups[key]
		if !ok {
			conv = &model.Conversation{
				Key:                key,
				OtherParticipantID: m.OtherParticipant(currentUserID),
				ContextID:          m.ContextID(),
			}
			groups[key] = conv
		}
		conv.Messages = append(conv.Messages, m)
		if m.Status == model.StatusUnread && m.ReceiverID == currentUserID {
			conv.UnreadCount++
		}
	}

	res := make([]*model.Conversation, 0, len(groups))
	for _, conv := range groups {
		// 会话内按时间降序，时间相同时以 ID 兜底保证确定性
		sort.SliceStable(conv.Messages, func(i, j int) bool {
			a, b := conv.Messages[i], conv.Messages[j]
			if !a.Timestamp.Equal(b.Timestamp) {
				return a.Timestamp.After(b.Timestamp)
			}
			return a.ID > b.ID
		})
		conv.LastMessage = conv.Messages[0]
		res = append(res, conv)
	}

	// 会话列表按最近一条消息时间降序，同样以键兜底
	sort.SliceStable(res, func(i, j int) bool {
		a, b := res[i], res[j]
		if !a.LastMessageAt().Equal(b.LastMessageAt()) {
			return a.LastMessageAt().After(b.LastMessageAt())
		}
		return a.Key < b.Key
	})

	return res
}
