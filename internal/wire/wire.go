package wire

import (
	"Homeroom/internal/api"
	"Homeroom/internal/api/config"
	"Homeroom/internal/api/handler"
	"Homeroom/internal/job"
	"Homeroom/internal/pkg/cron"
	"Homeroom/internal/pkg/kafka"
	"Homeroom/internal/pkg/mongo"
	"Homeroom/internal/pkg/push"
	"Homeroom/internal/repository"
	"Homeroom/internal/service"

	"github.com/gin-gonic/gin"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
	InboxService service.InboxService
}

func BuildApplication(db *gorm.DB, mongoDB *mongodriver.Database, cfg *config.Config) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db)
	studentRepo := repository.NewStudentRepo(db)
	messageStore := mongo.NewMessageStore(mongoDB)

	pushClient := push.NewClient(cfg.Push)
	notifier := service.NewMultiNotifier(
		service.NewRedisNotifier(),
		service.NewPushNotifier(pushClient),
	)

	userService := service.NewUserService(userRepo)
	composeService := service.NewComposeService(messageStore, userRepo, notifier, cfg.Messaging.FanoutConcurrency)
	inboxService := service.NewInboxService(messageStore, cfg.Messaging.RefreshIntervalSec)

	handlers := &api.HandlersGroup{
		UserHandler:       handler.NewUserHandler(userService),
		MessageHandler:    handler.NewMessageHandler(composeService),
		InboxHandler:      handler.NewInboxHandler(inboxService),
		WSHandler:         handler.NewWsHandler(inboxService),
		AttachmentHandler: handler.NewAttachmentHandler(),
	}

	router := api.SetupRouter(handlers)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, studentRepo, composeService)
	if err != nil {
		return nil, err
	}

	retentionJob := job.NewSystemMessageRetentionJob(messageStore, cfg.Messaging.SystemRetentionDays)
	cronMgr := cron.NewCronManager(retentionJob)

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		KafkaManager: kafkaMgr,
		CronMgr:      cronMgr,
		InboxService: inboxService,
	}, nil
}
