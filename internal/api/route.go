package api

import (
	"Homeroom/internal/api/middleware"
	"Homeroom/internal/pkg/consts"
	"Homeroom/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		userGroup := apiGroup.Group("/user")
		{
			userGroup.POST("/login", group.UserHandler.Login)

			authGroup := userGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/logout", group.UserHandler.Logout)
				authGroup.GET("/info", group.UserHandler.GetUserInfo)
			}
		}

		messageGroup := apiGroup.Group("/messages")
		messageGroup.Use(middleware.AuthMiddleware())
		{
			messageGroup.POST("/send", group.MessageHandler.Send)
			messageGroup.POST("/reply/:message_id", group.MessageHandler.Reply)
			messageGroup.GET("/:message_id", group.MessageHandler.Detail)
			messageGroup.DELETE("/:message_id", group.MessageHandler.Delete)
		}

		inboxGroup := apiGroup.Group("/inbox")
		{
			// WS 鉴权走 query token，不过中间件
			inboxGroup.GET("/ws", group.WSHandler.Connect)

			authGroup := inboxGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.GET("", group.InboxHandler.Snapshot)
				authGroup.GET("/conversations", group.InboxHandler.Conversations)
				authGroup.GET("/unread/count", group.InboxHandler.UnreadCount)
				authGroup.POST("/read", group.InboxHandler.MarkRead)
				authGroup.POST("/read/all", group.InboxHandler.MarkAllRead)
				authGroup.POST("/refresh", group.InboxHandler.Refresh)
			}
		}

		// 附件上传仅面向教师与管理端，家长端只读
		attachmentGroup := apiGroup.Group("/attachments")
		{
			attachmentGroup.Use(middleware.AuthMiddleware(), middleware.CheckRoles(consts.RoleTeacher, consts.RoleAdmin))
			attachmentGroup.POST("/upload", group.AttachmentHandler.Upload)
		}
	}

	return r
}
