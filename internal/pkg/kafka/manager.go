package kafka

import (
	"Homeroom/internal/api/config"
	"Homeroom/internal/repository"
	"Homeroom/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	attendanceConsumer sarama.ConsumerGroup
	attendanceHandler  sarama.ConsumerGroupHandler

	dailyRecordConsumer sarama.ConsumerGroup
	dailyRecordHandler  sarama.ConsumerGroupHandler

	incidentConsumer sarama.ConsumerGroup
	incidentHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(
	cfg *config.Config,
	studentRepo repository.StudentRepo,
	composeSvc service.ComposeService,
) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	attendanceConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaAttendanceConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}
	attendanceHandler := NewAttendanceHandler(studentRepo, composeSvc)

	dailyRecordConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaDailyRecordConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}
	dailyRecordHandler := NewDailyRecordHandler(studentRepo, composeSvc)

	incidentConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaIncidentConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}
	incidentHandler := NewIncidentHandler(studentRepo, composeSvc)

	return &ConsumerManager{
		attendanceConsumer:  attendanceConsumer,
		attendanceHandler:   attendanceHandler,
		dailyRecordConsumer: dailyRecordConsumer,
		dailyRecordHandler:  dailyRecordHandler,
		incidentConsumer:    incidentConsumer,
		incidentHandler:     incidentHandler,
	}, nil
}

// Start 启动所有消费者
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	// 启动考勤消费者
	go func() {
		topic := cfg.KafkaAttendanceConsumer.Topic
		log.Info("Attendance consumer started", "topic", topic)
		for {
			if err := m.attendanceConsumer.Consume(ctx, []string{topic}, m.attendanceHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	// 启动日报消费者
	go func() {
		topic := cfg.KafkaDailyRecordConsumer.Topic
		log.Info("Daily record consumer started", "topic", topic)
		for {
			if err := m.dailyRecordConsumer.Consume(ctx, []string{topic}, m.dailyRecordHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	// 启动事故消费者
	go func() {
		topic := cfg.KafkaIncidentConsumer.Topic
		log.Info("Incident consumer started", "topic", topic)
		for {
			if err := m.incidentConsumer.Consume(ctx, []string{topic}, m.incidentHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.attendanceConsumer.Close(); err != nil {
		log.Error("Failed to close attendance consumer", "err", err)
	}
	if err := m.dailyRecordConsumer.Close(); err != nil {
		log.Error("Failed to close daily record consumer", "err", err)
	}
	if err := m.incidentConsumer.Close(); err != nil {
		log.Error("Failed to close incident consumer", "err", err)
	}

	return nil
}
