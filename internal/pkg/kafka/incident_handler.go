package kafka

import (
	"Homeroom/internal/api/dto"
	"Homeroom/internal/model"
	"Homeroom/internal/repository"
	"Homeroom/internal/service"
	"context"
	"fmt"
	log "log/slog"

	"github.com/IBM/sarama"
)

// IncidentHandler 消费事故事件，按严重程度升级消息优先级
type IncidentHandler struct {
	studentRepo repository.StudentRepo
	composeSvc  service.ComposeService
}

func NewIncidentHandler(studentRepo repository.StudentRepo, composeSvc service.ComposeService) *IncidentHandler {
	return &IncidentHandler{
		studentRepo: studentRepo,
		composeSvc:  composeSvc,
	}
}

func (s *IncidentHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("incident consumer setup")
	return nil
}

func (s *IncidentHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("incident consumer cleanup")
	return nil
}

func (s *IncidentHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	return pullMessageBatch(session, claim, s.logic)
}

func incidentPriority(severity string) model.MessagePriority {
	switch severity {
	case "SEVERE":
		return model.PriorityUrgent
	case "MODERATE":
		return model.PriorityHigh
	default:
		return model.PriorityNormal
	}
}

func (s *IncidentHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event IncidentEvent
	if err := decodeEvent(msg, &event); err != nil {
		log.ErrorContext(ctx, "invalid incident event", "err", err)
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
		log.WarnContext(ctx, "incident event has no guardians", "student_id", event.StudentID)
		return nil
	}

	metadata := map[string]string{
		model.MetaKeySourceEventID: event.EventID,
		model.MetaKeyStudentID:     event.StudentID,
	}
	priority := incidentPriority(event.Severity)
	if priority == model.PriorityUrgent {
		// 重大事故要求家长确认
		metadata[model.MetaKeyRequireConfirm] = "true"
	}

	_, err = s.composeSvc.SendSystemMessage(ctx, &dto.SendMessageReq{
		Title:       fmt.Sprintf("事故通报：%s", student.Name),
		Content:     event.Description,
		Type:        string(model.TypeIncident),
		Priority:    string(priority),
		ReceiverIDs: guardianIDs,
		Metadata:    metadata,
		RelatedID:   event.StudentID,
		RelatedType: model.RelatedEntityStudent,
	})
	return err
}
