package job

import (
	"Homeroom/internal/repository"
	"context"
	log "log/slog"
	"time"
)

// SystemMessageRetentionJob 清理超过保留期的系统消息
type SystemMessageRetentionJob struct {
	store         repository.MessageStore
	retentionDays int
}

func NewSystemMessageRetentionJob(store repository.MessageStore, retentionDays int) *SystemMessageRetentionJob {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &SystemMessageRetentionJob{
		store:         store,
		retentionDays: retentionDays,
	}
}

func (s *SystemMessageRetentionJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	log.Info("start system message retention job", "cutoff", cutoff)

	deleted, err := s.store.PurgeSystemBefore(ctx, cutoff)
	if err != nil {
		log.Error("system message retention job failed", "err", err)
		return
	}
	log.Info("system message retention job finished", "deleted_count", deleted)
}
