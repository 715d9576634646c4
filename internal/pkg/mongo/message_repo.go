package mongo

import (
	"Homeroom/internal/model"
	"Homeroom/internal/repository"
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type messageStoreImpl struct {
	col *mongo.Collection
}

// NewMessageStore 构造基于 MongoDB 的消息存储
func NewMessageStore(db *mongo.Database) repository.MessageStore {
	return &messageStoreImpl{
		col: db.Collection("messages"),
	}
}

// GetByID 精确查询单条消息
func (s *messageStoreImpl) GetByID(ctx context.Context, id string) (*model.Message, error) {
	var doc messageDoc
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrMessageNotFound
		}
		return nil, pkgerrors.Wrap(err, "mongo: get message")
	}
	return doc.toModel(), nil
}

// Put 写入单条消息
func (s *messageStoreImpl) Put(ctx context.Context, msg *model.Message) error {
	if _, err := s.col.InsertOne(ctx, toDoc(msg)); err != nil {
		return pkgerrors.Wrap(err, "mongo: put message")
	}
	return nil
}

// ListForUser 拉取用户收发的全部消息，按时间降序
func (s *messageStoreImpl) ListForUser(ctx context.Context, userID string) ([]*model.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"receiver_id": userID},
		bson.M{"sender_id": userID},
	}}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := s.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "mongo: list messages")
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var docs []*messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, pkgerrors.Wrap(err, "mongo: decode messages")
	}

	messages := make([]*model.Message, 0, len(docs))
	for _, d := range docs {
		messages = append(messages, d.toModel())
	}
	return messages, nil
}

// SetStatus 更新读取状态，READ 时补写 read_at
func (s *messageStoreImpl) SetStatus(ctx context.Context, id string, status model.MessageStatus) error {
	set := bson.M{"status": string(status)}
	if status == model.StatusRead {
		set["read_at"] = time.Now()
	}
	result, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return pkgerrors.Wrap(err, "mongo: set status")
	}
	if result.MatchedCount == 0 {
		return repository.ErrMessageNotFound
	}
	return nil
}

// Delete 删除单条消息
func (s *messageStoreImpl) Delete(ctx context.Context, id string) error {
	result, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return pkgerrors.Wrap(err, "mongo: delete message")
	}
	if result.DeletedCount == 0 {
		return repository.ErrMessageNotFound
	}
	return nil
}

// PurgeSystemBefore 清理过期系统消息，保留策略由定时任务驱动
func (s *messageStoreImpl) PurgeSystemBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"type":      string(model.TypeSystem),
		"timestamp": bson.M{"$lt": cutoff},
	}
	result, err := s.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "mongo: purge system messages")
	}
	return result.DeletedCount, nil
}
