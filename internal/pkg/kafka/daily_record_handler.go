package kafka

import (
	"Homeroom/internal/api/dto"
	"Homeroom/internal/model"
	"Homeroom/internal/repository"
	"Homeroom/internal/service"
	"context"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/IBM/sarama"
)

// DailyRecordHandler 消费在园日报事件
type DailyRecordHandler struct {
	studentRepo repository.StudentRepo
	composeSvc  service.ComposeService
}

func NewDailyRecordHandler(studentRepo repository.StudentRepo, composeSvc service.ComposeService) *DailyRecordHandler {
	return &DailyRecordHandler{
		studentRepo: studentRepo,
		composeSvc:  composeSvc,
	}
}

func (s *DailyRecordHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("daily record consumer setup")
	return nil
}

func (s *DailyRecordHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("daily record consumer cleanup")
	return nil
}

func (s *DailyRecordHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	return pullMessageBatch(session, claim, s.logic)
}

func (s *DailyRecordHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event DailyRecordEvent
	if err := decodeEvent(msg, &event); err != nil {
		log.ErrorContext(ctx, "invalid daily record event", "err", err)
		return nil
	}
	if isDuplicateEvent(ctx, event.EventID) {
		return nil
	}

	student, err := s.studentRepo.GetStudentByID(ctx, event.StudentID)
	if err != nil {
		return err
	}
	guardianIDs, err := s.studentRepo.GetGuardianIDs(ctx, event.StudentID)
	if err != nil {
		return err
	}
	if len(guardianIDs) == 0 {
		return nil
	}

	var parts []string
	if event.Meals != "" {
		parts = append(parts, "用餐："+event.Meals)
	}
	if event.Nap != "" {
		parts = append(parts, "午休："+event.Nap)
	}
	if event.Mood != "" {
		parts = append(parts, "情绪："+event.Mood)
	}
	if event.Notes != "" {
		parts = append(parts, event.Notes)
	}
	content := strings.Join(parts, "；")
	if content == "" {
		content = "今日在园一切正常。"
	}

	_, err = s.composeSvc.SendSystemMessage(ctx, &dto.SendMessageReq{
		Title:       fmt.Sprintf("%s 的在园日报（%s）", student.Name, event.Date),
		Content:     content,
		Type:        string(model.TypeDailyRecord),
		Priority:    string(model.PriorityLow),
		ReceiverIDs: guardianIDs,
		Metadata: map[string]string{
			model.MetaKeySourceEventID: event.EventID,
			model.MetaKeyStudentID:     event.StudentID,
		},
		RelatedID:   event.StudentID,
		RelatedType: model.RelatedEntityStudent,
	})
	return err
}
