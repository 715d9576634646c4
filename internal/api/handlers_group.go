package api

import "Homeroom/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	UserHandler       *handler.UserHandler
	MessageHandler    *handler.MessageHandler
	InboxHandler      *handler.InboxHandler
	WSHandler         *handler.WsHandler
	AttachmentHandler *handler.AttachmentHandler
}
