package mongo

import (
	"Homeroom/internal/model"
	"time"
)

// messageDoc MongoDB 消息明细文档
type messageDoc struct {
	ID                string            `bson:"_id"`
	Title             string            `bson:"title"`
	Content           string            `bson:"content"`
	Type              string            `bson:"type"`
	Priority          string            `bson:"priority"`
	SenderID          string            `bson:"sender_id"`
	SenderName        string            `bson:"sender_name"`
	ReceiverID        string            `bson:"receiver_id"`
	ConversationID    string            `bson:"conversation_id,omitempty"`
	ReplyToID         string            `bson:"reply_to_id,omitempty"`
	Timestamp         time.Time         `bson:"timestamp"`
	Status            string            `bson:"status"`
	ReadAt            *time.Time        `bson:"read_at,omitempty"`
	Metadata          map[string]string `bson:"metadata,omitempty"`
	RelatedEntityID   string            `bson:"related_entity_id,omitempty"`
	RelatedEntityType string            `bson:"related_entity_type,omitempty"`
	Attachments       []attachmentDoc   `bson:"attachments,omitempty"`
}

type attachmentDoc struct {
	Name string `bson:"name"`
	URL  string `bson:"url"`
	Type string `bson:"type"`
}

func toDoc(m *model.Message) *messageDoc {
	doc := &messageDoc{
		ID:                m.ID,
		Title:             m.Title,
		Content:           m.Content,
		Type:              string(m.Type),
		Priority:          string(m.Priority),
		SenderID:          m.SenderID,
		SenderName:        m.SenderName,
		ReceiverID:        m.ReceiverID,
		ConversationID:    m.ConversationID,
		ReplyToID:         m.ReplyToID,
		Timestamp:         m.Timestamp,
		Status:            string(m.Status),
		ReadAt:            m.ReadAt,
		Metadata:          m.Metadata,
		RelatedEntityID:   m.RelatedEntityID,
		RelatedEntityType: m.RelatedEntityType,
	}
	for _, a := range m.Attachments {
		doc.Attachments = append(doc.Attachments, attachmentDoc(a))
	}
	return doc
}

func (d *messageDoc) toModel() *model.Message {
	m := &model.Message{
		ID:                d.ID,
		Title:             d.Title,
		Content:           d.Content,
		Type:              model.ParseMessageType(d.Type),
		Priority:          model.ParsePriority(d.Priority),
		SenderID:          d.SenderID,
		SenderName:        d.SenderName,
		ReceiverID:        d.ReceiverID,
		ConversationID:    d.ConversationID,
		ReplyToID:         d.ReplyToID,
		Timestamp:         d.Timestamp,
		Status:            model.MessageStatus(d.Status),
		ReadAt:            d.ReadAt,
		Metadata:          d.Metadata,
		RelatedEntityID:   d.RelatedEntityID,
		RelatedEntityType: d.RelatedEntityType,
	}
	if m.Status != model.StatusRead {
		m.Status = model.StatusUnread
	}
	for _, a := range d.Attachments {
		m.Attachments = append(m.Attachments, model.Attachment(a))
	}
	return m
}
