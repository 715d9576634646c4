package consts

const (
	// MsgUserChannelKey 用户个人消息频道前缀，WS 桥接与应用内推送共用
	MsgUserChannelKey = "msg:user:"
	// MsgUnreadCountKey 用户未读角标缓存前缀
	MsgUnreadCountKey = "msg:unread:count:"
	// TokenRevokedKey 已吊销 Token 签名前缀
	TokenRevokedKey = "auth:token:revoked:"
	// EventDedupKey 事件消费去重前缀，值为事件 ID
	EventDedupKey = "msg:event:seen:"
)
