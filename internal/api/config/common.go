package config

// Config 配置主体
type Config struct {
	Server                   ServerConfig         `mapstructure:"server"`
	DB                       DBConfig             `mapstructure:"database"`
	Redis                    RedisConfig          `mapstructure:"redis"`
	Mongo                    MongoConfig          `mapstructure:"mongo"`
	MinIO                    MinIOConfig          `mapstructure:"minio"`
	Push                     PushConfig           `mapstructure:"push"`
	Logstash                 LogstashConfig       `mapstructure:"logstash"`
	Messaging                MessagingConfig      `mapstructure:"messaging"`
	Kafka                    KafkaConfig          `mapstructure:"kafka"`
	KafkaAttendanceConsumer  KafkaConsumerBinding `mapstructure:"kafka_attendance_consumer"`
	KafkaDailyRecordConsumer KafkaConsumerBinding `mapstructure:"kafka_daily_record_consumer"`
	KafkaIncidentConsumer    KafkaConsumerBinding `mapstructure:"kafka_incident_consumer"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MongoConfig 消息存储配置
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	BucketName string `mapstructure:"bucket_name"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// PushConfig 推送网关配置
type PushConfig struct {
	GatewayURL string `mapstructure:"gateway_url"`
	ApiKey     string `mapstructure:"api_key"`
	TimeoutMs  int    `mapstructure:"timeout_ms"`
}

// LogstashConfig 远程日志配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// MessagingConfig 消息核心配置
type MessagingConfig struct {
	RefreshIntervalSec  int `mapstructure:"refresh_interval_sec"`  // 后台静默刷新周期，默认 60
	FanoutConcurrency   int `mapstructure:"fanout_concurrency"`    // 群发写入并发度
	SystemRetentionDays int `mapstructure:"system_retention_days"` // 系统消息保留天数
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaConsumerBinding 单个消费者的主题绑定
type KafkaConsumerBinding struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}
