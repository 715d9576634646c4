package push

import (
	"Homeroom/internal/api/config"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client 推送网关客户端，消息送达走第三方网关（FCM 等由网关内部对接）
type Client struct {
	http       *resty.Client
	gatewayURL string
}

// NewClient 构造推送客户端
func NewClient(cfg config.PushConfig) *Client {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+cfg.ApiKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:       client,
		gatewayURL: cfg.GatewayURL,
	}
}

// PushPayload 推送请求体
type PushPayload struct {
	RecipientID string `json:"recipient_id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

// Send 发送一条推送，网关返回非 2xx 视为失败
func (s *Client) Send(ctx context.Context, recipientID, title, body string) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(&PushPayload{
			RecipientID: recipientID,
			Title:       title,
			Body:        body,
		}).
		Post(s.gatewayURL + "/v1/push")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("push gateway responded %s", resp.Status())
	}
	return nil
}
