package service

import (
	"Homeroom/internal/api/dto"
	"Homeroom/internal/model"
	"Homeroom/internal/pkg/consts"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newComposeFixture(t *testing.T) (*fakeStore, *fakeUserRepo, *noopNotifier, ComposeService) {
	t.Helper()
	store := newFakeStore()
	users := newFakeUserRepo(
		&model.User{ID: "teacher-1", FirstName: "华", LastName: "王", Role: consts.RoleTeacher},
		&model.User{ID: "parent-1", FirstName: "明", LastName: "李", Role: consts.RoleGuardian},
		&model.User{ID: "parent-2", FirstName: "丽", LastName: "张", Role: consts.RoleGuardian},
		&model.User{ID: "parent-3", FirstName: "强", LastName: "赵", Role: consts.RoleGuardian},
	)
	notifier := &noopNotifier{}
	svc := NewComposeService(store, users, notifier, 4)
	return store, users, notifier, svc
}

func TestSendMessageValidation(t *testing.T) {
	_, _, _, svc := newComposeFixture(t)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "teacher-1", &dto.SendMessageReq{
		Title: "  ", Content: "内容", ReceiverIDs: []string{"parent-1"},
	})
	assert.ErrorIs(t, err, ErrTitleBlank)

	_, err = svc.SendMessage(ctx, "teacher-1", &dto.SendMessageReq{
		Title: "标题", Content: "\t\n", ReceiverIDs: []string{"parent-1"},
	})
	assert.ErrorIs(t, err, ErrContentBlank)

	_, err = svc.SendMessage(ctx, "teacher-1", &dto.SendMessageReq{
		Title: "标题", Content: "内容",
	})
	assert.ErrorIs(t, err, ErrNoRecipient)

	// 只把自己写成收件人等价于没有收件人
	_, err = svc.SendMessage(ctx, "teacher-1", &dto.SendMessageReq{
		Title: "标题", Content: "内容", ReceiverIDs: []string{"teacher-1"},
	})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSendMessageFanout(t *testing.T) {
	store, _, notifier, svc := newComposeFixture(t)
	ctx := context.Background()

	receipt, err := svc.SendMessage(ctx, "teacher-1", &dto.SendMessageReq{
		Title:       "运动会通知",
		Content:     "周五上午八点集合",
		Type:        string(model.TypeAnnouncement),
		ReceiverIDs: []string{"parent-1", "parent-2", "parent-3", "parent-1"},
	})
	require.NoError(t, err)

	// 收件人去重后每人一份互不关联的副本
	assert.Equal(t, 3, receipt.Sent)
	assert.Empty(t, receipt.Failed)
	require.Len(t, receipt.MessageIDs, 3)

	seenReceivers := make(map[string]bool)
	var batchID string
	for _, id := range receipt.MessageIDs {
		m := store.get(id)
		require.NotNil(t, m)
		assert.Equal(t, "运动会通知", m.Title)
		assert.Equal(t, model.TypeAnnouncement, m.Type)
		assert.Equal(t, model.StatusUnread, m.Status)
		assert.Equal(t, "teacher-1", m.SenderID)
		assert.Equal(t, "华 王", m.SenderName)
		seenReceivers[m.ReceiverID] = true

		// 同批副本共享 batchId，但状态彼此独立
		require.NotEmpty(t, m.Metadata[model.MetaKeyBatchID])
		if batchID == "" {
			batchID = m.Metadata[model.MetaKeyBatchID]
		}
		assert.Equal(t, batchID, m.Metadata[model.MetaKeyBatchID])
	}
	assert.Len(t, seenReceivers, 3)

	// 每个收件人都触达通知
	assert.ElementsMatch(t, []string{"parent-1", "parent-2", "parent-3"}, notifier.notified())
}

func TestSendMessageSingleRecipientNoBatchID(t *testing.T) {
	store, _, _, svc := newComposeFixture(t)

	receipt, err := svc.SendMessage(context.Background(), "teacher-1", &dto.SendMessageReq{
		Title: "面谈", Content: "周四方便吗", ReceiverIDs: []string{"parent-1"},
	})
	require.NoError(t, err)
	require.Len(t, receipt.MessageIDs, 1)

	m := store.get(receipt.MessageIDs[0])
	require.NotNil(t, m)
	assert.Empty(t, m.Metadata[model.MetaKeyBatchID])
	// 未指定类型回落为 CHAT
	assert.Equal(t, model.TypeChat, m.Type)
}

func TestSendMessagePartialFailure(t *testing.T) {
	store, _, _, svc := newComposeFixture(t)
	store.putErrFor["parent-2"] = errors.New("write timeout")

	receipt, err := svc.SendMessage(context.Background(), "teacher-1", &dto.SendMessageReq{
		Title: "通知", Content: "内容", ReceiverIDs: []string{"parent-1", "parent-2", "parent-3"},
	})
	require.NoError(t, err)

	// 单个收件人失败不拖垮整批，回执如实上报
	assert.Equal(t, 2, receipt.Sent)
	require.Len(t, receipt.Failed, 1)
	assert.Equal(t, "parent-2", receipt.Failed[0].RecipientID)
	assert.Contains(t, receipt.Failed[0].Reason, "write timeout")
}

func TestReplyMessage(t *testing.T) {
	store, _, _, svc := newComposeFixture(t)
	ctx := context.Background()

	original := &model.Message{
		ID: "orig-1", Title: "午休问题", Content: "今天没睡好",
		Type: model.TypeChat, SenderID: "parent-1", SenderName: "明 李",
		ReceiverID: "teacher-1", Timestamp: time.Now(), Status: model.StatusRead,
	}
	store.seed(original)

	receipt, err := svc.ReplyMessage(ctx, "teacher-1", "orig-1", &dto.SendMessageReq{
		Title: "午休问题", Content: "下午补睡了一小时",
	})
	require.NoError(t, err)
	require.Len(t, receipt.MessageIDs, 1)

	reply := store.get(receipt.MessageIDs[0])
	require.NotNil(t, reply)
	// 收件人默认回落到原发送方
	assert.Equal(t, "parent-1", reply.ReceiverID)
	assert.Equal(t, "orig-1", reply.ReplyToID)
	// 原消息没有会话 ID 时以其自身 ID 开链
	assert.Equal(t, "orig-1", reply.ConversationID)
	assert.Equal(t, "RE: 午休问题", reply.Title)
}

func TestReplyPrefixAppliedOnce(t *testing.T) {
	store, _, _, svc := newComposeFixture(t)
	ctx := context.Background()

	store.seed(&model.Message{
		ID: "orig-2", Title: "RE: 午休问题", Content: "回复",
		Type: model.TypeChat, SenderID: "parent-1",
		ReceiverID: "teacher-1", ConversationID: "orig-1",
		Timestamp: time.Now(), Status: model.StatusUnread,
	})

	receipt, err := svc.ReplyMessage(ctx, "teacher-1", "orig-2", &dto.SendMessageReq{
		Title: "RE: 午休问题", Content: "继续回复",
	})
	require.NoError(t, err)

	reply := store.get(receipt.MessageIDs[0])
	require.NotNil(t, reply)
	// 已带前缀的标题不再叠加
	assert.Equal(t, "RE: 午休问题", reply.Title)
	// 会话 ID 沿用原消息已有的链
	assert.Equal(t, "orig-1", reply.ConversationID)
}

func TestReplyMissingOriginal(t *testing.T) {
	_, _, _, svc := newComposeFixture(t)

	_, err := svc.ReplyMessage(context.Background(), "teacher-1", "nope", &dto.SendMessageReq{
		Title: "标题", Content: "内容",
	})
	assert.ErrorIs(t, err, ErrReplyTargetMissing)
}

func TestSendSystemMessage(t *testing.T) {
	store, _, _, svc := newComposeFixture(t)

	receipt, err := svc.SendSystemMessage(context.Background(), &dto.SendMessageReq{
		Title: "考勤提醒", Content: "今日缺勤",
		Type:        string(model.TypeAttendance),
		ReceiverIDs: []string{"parent-1"},
	})
	require.NoError(t, err)

	m := store.get(receipt.MessageIDs[0])
	require.NotNil(t, m)
	assert.Equal(t, consts.SystemSenderID, m.SenderID)
	assert.Equal(t, consts.SystemSenderName, m.SenderName)
	assert.Equal(t, model.TypeAttendance, m.Type)
}

func TestGetMessageDetailWithOriginal(t *testing.T) {
	store, _, _, svc := newComposeFixture(t)
	ctx := context.Background()

	store.seed(
		&model.Message{ID: "orig", Title: "问题", Content: "原文", Type: model.TypeChat, SenderID: "parent-1", ReceiverID: "teacher-1", Timestamp: time.Now(), Status: model.StatusRead},
		&model.Message{ID: "rep", Title: "RE: 问题", Content: "回复", Type: model.TypeChat, SenderID: "teacher-1", ReceiverID: "parent-1", ReplyToID: "orig", Timestamp: time.Now(), Status: model.StatusUnread},
	)

	detail, err := svc.GetMessageDetail(ctx, "parent-1", "rep")
	require.NoError(t, err)
	assert.Equal(t, "rep", detail.Message.ID)
	require.NotNil(t, detail.Original)
	assert.Equal(t, "orig", detail.Original.ID)

	// 与消息无关的用户看不到详情
	_, err = svc.GetMessageDetail(ctx, "parent-2", "rep")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestDeleteMessageRules(t *testing.T) {
	store, _, _, svc := newComposeFixture(t)
	ctx := context.Background()

	store.seed(
		&model.Message{ID: "unread", Title: "a", Content: "b", Type: model.TypeChat, SenderID: "teacher-1", ReceiverID: "parent-1", Timestamp: time.Now(), Status: model.StatusUnread},
		&model.Message{ID: "readed", Title: "a", Content: "b", Type: model.TypeChat, SenderID: "teacher-1", ReceiverID: "parent-1", Timestamp: time.Now(), Status: model.StatusRead},
	)

	// 非发送者不能删除
	assert.ErrorIs(t, svc.DeleteMessage(ctx, "parent-1", "unread"), ErrDeleteNotSender)
	// 已读消息不能撤回
	assert.ErrorIs(t, svc.DeleteMessage(ctx, "teacher-1", "readed"), ErrDeleteAlreadyRead)

	require.NoError(t, svc.DeleteMessage(ctx, "teacher-1", "unread"))
	assert.Nil(t, store.get("unread"))
}
