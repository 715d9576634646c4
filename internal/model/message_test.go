package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMessageType(t *testing.T) {
	assert.Equal(t, TypeAnnouncement, ParseMessageType("ANNOUNCEMENT"))
	assert.Equal(t, TypeIncident, ParseMessageType("INCIDENT"))
	// 未知类型回落为 CHAT
	assert.Equal(t, TypeChat, ParseMessageType("BOGUS"))
	assert.Equal(t, TypeChat, ParseMessageType(""))
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityUrgent, ParsePriority("URGENT"))
	assert.Equal(t, PriorityNormal, ParsePriority("whatever"))
}

func TestOtherParticipant(t *testing.T) {
	m := &Message{SenderID: "teacher-1", ReceiverID: "parent-1"}
	assert.Equal(t, "teacher-1", m.OtherParticipant("parent-1"))
	assert.Equal(t, "parent-1", m.OtherParticipant("teacher-1"))
}

func TestContextID(t *testing.T) {
	m := &Message{}
	assert.Empty(t, m.ContextID())

	m.RelatedEntityType = RelatedEntityStudent
	m.RelatedEntityID = "student-9"
	assert.Equal(t, "student-9", m.ContextID())

	// 非学生关联不参与会话分组
	m.RelatedEntityType = "invoice"
	assert.Empty(t, m.ContextID())
}

func TestPreview(t *testing.T) {
	short := &Message{Content: "你好"}
	assert.Equal(t, "你好", short.Preview())

	long := &Message{Content: strings.Repeat("长", 200)}
	p := long.Preview()
	assert.Less(t, len([]rune(p)), 200)
}

func TestMetaForType(t *testing.T) {
	meta := MetaForType(TypeIncident)
	assert.Equal(t, "#e53935", meta.Color)
	assert.NotEmpty(t, meta.Icon)

	// 未登记的类型给通用样式而不是空值
	fallback := MetaForType(MessageType("BOGUS"))
	assert.NotEmpty(t, fallback.Color)
}
