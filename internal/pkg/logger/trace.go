package logger

import (
	"context"
	log "log/slog"
)

// TraceIDKey 请求链路标识在 Context 与日志属性中共用的键名
const TraceIDKey = "trace_id"

// ContextHandler 把 ctx 里的 trace_id 附加到每条日志上，
// 一次发信引出的存储写入与通知分发由此串成一条链路
type ContextHandler struct {
	log.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r log.Record) error {
	if ctx != nil {
		if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
			r.AddAttrs(log.String("trace_id", traceID))
		}
	}
	return h.Handler.Handle(ctx, r)
}
