package consts

const (
	// SystemSenderID 系统消息的发送者标识
	SystemSenderID = "system"
	// SystemSenderName 系统消息的发送者名称快照
	SystemSenderName = "Homeroom"

	// ReplyPrefix 回复消息的标题前缀，只追加一次
	ReplyPrefix = "RE: "
)

const (
	RoleTeacher  = "TEACHER"
	RoleGuardian = "GUARDIAN"
	RoleAdmin    = "ADMIN"
)
