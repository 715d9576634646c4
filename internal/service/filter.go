package service

import (
	"Homeroom/internal/model"
	"strings"
)

// MatchesType 类型过滤，未选择类型时全部放行
func MatchesType(m *model.Message, selected model.MessageType) bool {
	if selected == "" {
		return true
	}
	return m.Type == selected
}

// MatchesSearch 大小写不敏感的子串匹配，命中标题/内容/发送者名任一即可
func MatchesSearch(m *model.Message, query string) bool {
	if strings.TrimSpace(query) == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(m.Title), q) ||
		strings.Contains(strings.ToLower(m.Content), q) ||
		strings.Contains(strings.ToLower(m.SenderName), q)
}

// ApplyFilters 对消息集合做纯投影，每次状态变化都重算，不缓存
func ApplyFilters(messages []*model.Message, selected model.MessageType, query string) []*model.Message {
	filtered := make([]*model.Message, 0, len(messages))
	for _, m := range messages {
		if MatchesType(m, selected) && MatchesSearch(m, query) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
