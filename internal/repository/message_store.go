package repository

import (
	"Homeroom/internal/model"
	"context"
	"errors"
	"time"
)

// ErrMessageNotFound 目标消息不存在
var ErrMessageNotFound = errors.New("message not found")

// MessageStore 消息存储抽象，按单条消息读写，不承诺跨消息事务
// 多消息操作的调用方必须容忍部分失败
type MessageStore interface {
	GetByID(ctx context.Context, id string) (*model.Message, error)
	Put(ctx context.Context, msg *model.Message) error
	// ListForUser 返回用户收发的全部消息快照（receiverId 或 senderId 命中）
	ListForUser(ctx context.Context, userID string) ([]*model.Message, error)
	SetStatus(ctx context.Context, id string, status model.MessageStatus) error
	Delete(ctx context.Context, id string) error
	// PurgeSystemBefore 清理指定时间之前的系统消息，返回清理条数
	PurgeSystemBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
