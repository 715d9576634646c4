package kafka

// 校务系统投递的领域事件，消息体为 JSON

// AttendanceEvent 考勤事件
type AttendanceEvent struct {
	EventID    string `json:"event_id" validate:"required"`
	StudentID  string `json:"student_id" validate:"required"`
	Category   string `json:"category" validate:"required"` // ABSENT / LATE / EARLY_LEAVE
	Date       string `json:"date" validate:"required"`
	Note       string `json:"note"`
	RecordedBy string `json:"recorded_by"`
}

// DailyRecordEvent 在园日报事件
type DailyRecordEvent struct {
	EventID   string `json:"event_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Meals     string `json:"meals"`
	Nap       string `json:"nap"`
	Mood      string `json:"mood"`
	Notes     string `json:"notes"`
}

// IncidentEvent 事故事件
type IncidentEvent struct {
	EventID     string `json:"event_id" validate:"required"`
	StudentID   string `json:"student_id" validate:"required"`
	Severity    string `json:"severity" validate:"required"` // MINOR / MODERATE / SEVERE
	Description string `json:"description" validate:"required"`
	OccurredAt  string `json:"occurred_at"`
	ReportedBy  string `json:"reported_by"`
}
