package service

import (
	"Homeroom/internal/model"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msgAt(id, sender, receiver string, ts time.Time) *model.Message {
	return &model.Message{
		ID:         id,
		Title:      "标题 " + id,
		Content:    "内容 " + id,
		Type:       model.TypeChat,
		Priority:   model.PriorityNormal,
		SenderID:   sender,
		ReceiverID: receiver,
		Timestamp:  ts,
		Status:     model.StatusUnread,
	}
}

func TestConversationKey(t *testing.T) {
	base := time.Now()

	m := msgAt("m1", "teacher-1", "parent-1", base)
	assert.Equal(t, "teacher-1", ConversationKey(m, "parent-1"))
	assert.Equal(t, "parent-1", ConversationKey(m, "teacher-1"))

	// 带学生上下文的消息按 对方:学生 分组
	m.RelatedEntityType = model.RelatedEntityStudent
	m.RelatedEntityID = "student-9"
	assert.Equal(t, "teacher-1:student-9", ConversationKey(m, "parent-1"))
}

func TestGroupConversationsSplitsByContext(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	withCtx := msgAt("m2", "teacher-1", "parent-1", base.Add(time.Minute))
	withCtx.RelatedEntityType = model.RelatedEntityStudent
	withCtx.RelatedEntityID = "student-9"

	msgs := []*model.Message{
		msgAt("m1", "teacher-1", "parent-1", base),
		withCtx,
		msgAt("m3", "teacher-2", "parent-1", base.Add(2*time.Minute)),
	}

	convs := GroupConversations(msgs, "parent-1")
	require.Len(t, convs, 3)

	// 同一位老师，带学生上下文与不带的是两个会话
	keys := []string{convs[0].Key, convs[1].Key, convs[2].Key}
	assert.Contains(t, keys, "teacher-1")
	assert.Contains(t, keys, "teacher-1:student-9")
	assert.Contains(t, keys, "teacher-2")
}

func TestGroupConversationsOrderAndUnread(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	read := msgAt("m1", "teacher-1", "parent-1", base)
	read.Status = model.StatusRead

	sent := msgAt("m2", "parent-1", "teacher-1", base.Add(time.Minute))

	msgs := []*model.Message{
		read,
		sent,
		msgAt("m3", "teacher-1", "parent-1", base.Add(2*time.Minute)),
		msgAt("m4", "teacher-2", "parent-1", base.Add(3*time.Minute)),
	}

	convs := GroupConversations(msgs, "parent-1")
	require.Len(t, convs, 2)

	// 最近活跃的会话在前
	assert.Equal(t, "teacher-2", convs[0].Key)
	assert.Equal(t, "teacher-1", convs[1].Key)

	// 会话内按时间降序，最新一条是 LastMessage
	teacher1 := convs[1]
	require.Len(t, teacher1.Messages, 3)
	assert.Equal(t, "m3", teacher1.LastMessage.ID)
	assert.Equal(t, base.Add(2*time.Minute), teacher1.LastMessageAt())

	// 自己发出的和已读的不计入未读
	assert.Equal(t, 1, teacher1.UnreadCount)
	assert.Equal(t, 1, convs[0].UnreadCount)
}

func TestGroupConversationsDeterministic(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// 同一时刻的消息靠 ID 兜底排序，打乱输入顺序结果不变
	var msgs []*model.Message
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		msgs = append(msgs, msgAt("m-"+id, "teacher-"+id, "parent-1", base))
	}
	msgs = append(msgs, msgAt("tie-1", "teacher-a", "parent-1", base))

	ref := GroupConversations(msgs, "parent-1")

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]*model.Message(nil), msgs...)
		r.Shuffle(len(shuffled), func(x, y int) { shuffled[x], shuffled[y] = shuffled[y], shuffled[x] })

		got := GroupConversations(shuffled, "parent-1")
		require.Len(t, got, len(ref))
		for j := range ref {
			assert.Equal(t, ref[j].Key, got[j].Key)
			assert.Equal(t, ref[j].LastMessage.ID, got[j].LastMessage.ID)
		}
	}
}
