package cron

import log "log/slog"

// InitCron 注册消息清理等定时任务并启动调度
func InitCron(mgr *Manager) error {
	log.Info("message maintenance jobs starting...")
	if err := mgr.RegisterJobs(); err != nil {
		return err
	}
	mgr.Start()
	return nil
}
