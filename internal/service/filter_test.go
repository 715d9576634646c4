package service

import (
	"Homeroom/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesType(t *testing.T) {
	m := &model.Message{Type: model.TypeAnnouncement}

	assert.True(t, MatchesType(m, ""))
	assert.True(t, MatchesType(m, model.TypeAnnouncement))
	assert.False(t, MatchesType(m, model.TypeChat))
}

func TestMatchesSearch(t *testing.T) {
	m := &model.Message{
		Title:      "春游通知",
		Content:    "下周三去植物园，请准备好午餐",
		SenderName: "王老师",
	}

	assert.True(t, MatchesSearch(m, ""))
	assert.True(t, MatchesSearch(m, "   "))
	assert.True(t, MatchesSearch(m, "春游"))
	assert.True(t, MatchesSearch(m, "植物园"))
	assert.True(t, MatchesSearch(m, "王老师"))
	assert.False(t, MatchesSearch(m, "运动会"))
}

func TestMatchesSearchCaseInsensitive(t *testing.T) {
	m := &model.Message{Title: "Field Trip", SenderName: "Ms. Wang"}

	assert.True(t, MatchesSearch(m, "field"))
	assert.True(t, MatchesSearch(m, "TRIP"))
	assert.True(t, MatchesSearch(m, "ms. wang"))
}

func TestApplyFiltersCombined(t *testing.T) {
	now := time.Now()
	msgs := []*model.Message{
		{ID: "1", Type: model.TypeChat, Title: "春游安排", Timestamp: now},
		{ID: "2", Type: model.TypeAnnouncement, Title: "春游通知", Timestamp: now},
		{ID: "3", Type: model.TypeAnnouncement, Title: "收费通知", Timestamp: now},
	}

	got := ApplyFilters(msgs, model.TypeAnnouncement, "春游")
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	// 过滤是纯投影，原集合不受影响
	assert.Len(t, msgs, 3)

	// 无条件时原样放行
	assert.Len(t, ApplyFilters(msgs, "", ""), 3)
}
