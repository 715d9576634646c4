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

// AttendanceHandler 消费考勤事件，扇出系统通知给学生的全部监护人
type AttendanceHandler struct {
	studentRepo repository.StudentRepo
	composeSvc  service.ComposeService
}

func NewAttendanceHandler(studentRepo repository.StudentRepo, composeSvc service.ComposeService) *AttendanceHandler {
	return &AttendanceHandler{
		studentRepo: studentRepo,
		composeSvc:  composeSvc,
	}
}

func (s *AttendanceHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("attendance consumer setup")
	return nil
}

func (s *AttendanceHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("attendance consumer cleanup")
	return nil
}

func (s *AttendanceHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	return pullMessageBatch(session, claim, s.logic)
}

var attendanceCategoryText = map[string]string{
	"ABSENT":      "缺勤",
	"LATE":        "迟到",
	"EARLY_LEAVE": "早退",
}

func (s *AttendanceHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event AttendanceEvent
	if err := decodeEvent(msg, &event); err != nil {
		// 格式坏掉的事件重试也救不回来，记日志后丢弃
		log.ErrorContext(ctx, "invalid attendance event", "err", err)
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
		log.WarnContext(ctx, "attendance event has no guardians", "student_id", event.StudentID)
		return nil
	}

	category := attendanceCategoryText[event.Category]
	if category == "" {
		category = event.Category
	}
	content := fmt.Sprintf("%s 于 %s %s。", student.Name, event.Date, category)
	if event.Note != "" {
		content += " 备注：" + event.Note
	}

	_, err = s.composeSvc.SendSystemMessage(ctx, &dto.SendMessageReq{
		Title:       fmt.Sprintf("考勤提醒：%s", student.Name),
		Content:     content,
		Type:        string(model.TypeAttendance),
		Priority:    string(model.PriorityNormal),
		ReceiverIDs: guardianIDs,
		Metadata: map[string]string{
			model.MetaKeySourceEventID:      event.EventID,
			model.MetaKeyStudentID:          event.StudentID,
			model.MetaKeyAttendanceCategory: event.Category,
		},
		RelatedID:   event.StudentID,
		RelatedType: model.RelatedEntityStudent,
	})
	return err
}
