/*
 * @module client/notification_client
 * @description 通知远程服务 HTTP 客户端，在 Dapr 环境中经由 sidecar 服务调用
 * @architecture 客户端架构 - REST API客户端
 * @stateFlow 构造请求 -> 发送 -> 状态码检查 -> 解包统一响应
 * @rules
 *   - 每次请求受超时约束，失败以 error 返回，由调用方决定是否回退
 *   - 响应若为 {status,msg,data} 统一结构则返回 data
 * @dependencies net/http, go.uber.org/zap
 * @refs service/notification/service.go
 */

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// NotificationClient 通知服务客户端
type NotificationClient struct {
	BaseURL    string
	HTTPClient *http.Client
	logger     *zap.Logger
}

// ErrorResponse 远程错误响应
type ErrorResponse struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Error  string `json:"error"`
}

// ResolveBaseURL 确定通知服务地址：显式地址优先，其次走 Dapr sidecar 服务调用
func ResolveBaseURL(baseURL, appID string) string {
	if baseURL != "" {
		return strings.TrimSuffix(baseURL, "/")
	}
	if appID == "" {
		return ""
	}
	daprPort := os.Getenv("DAPR_HTTP_PORT")
	if daprPort == "" {
		daprPort = "3500"
	}
	return fmt.Sprintf("http://localhost:%s/v1.0/invoke/%s/method", daprPort, appID)
}

// NewNotificationClient 创建通知服务客户端
func NewNotificationClient(baseURL string, timeout time.Duration, logger *zap.Logger) *NotificationClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationClient{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("notification_client"),
	}
}

// Submit 提交一条通知，返回远程创建的记录
func (c *NotificationClient) Submit(ctx context.Context, message string) (json.RawMessage, error) {
	return c.makeRequest(ctx, http.MethodPost, "/notifications", map[string]string{"message": message})
}

// Confirm 确认通知
func (c *NotificationClient) Confirm(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.makeRequest(ctx, http.MethodPost, fmt.Sprintf("/notifications/%d/confirm", id), nil)
}

// Fetch 拉取远程通知列表
func (c *NotificationClient) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	body, err := c.makeRequest(ctx, http.MethodGet, "/notifications", nil)
	if err != nil {
		return nil, err
	}
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("解析通知列表失败: %w", err)
	}
	return list, nil
}

// makeRequest 发送HTTP请求
func (c *NotificationClient) makeRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	fullURL := c.BaseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("序列化请求体失败: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.Debug("通知服务请求失败", zap.String("method", method), zap.String("url", fullURL), zap.Error(err))
		return nil, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && (errResp.Msg != "" || errResp.Error != "") {
			msg := errResp.Msg
			if msg == "" {
				msg = errResp.Error
			}
			return nil, fmt.Errorf("API错误 [%d]: %s", resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("HTTP错误 [%d]: %s", resp.StatusCode, string(respBody))
	}

	return unwrapEnvelope(respBody), nil
}

// unwrapEnvelope 去掉 {status,msg,data} 外层
func unwrapEnvelope(body []byte) []byte {
	var envelope struct {
		Status *int            `json:"status"`
		Msg    *string         `json:"msg"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return body
	}
	if envelope.Status != nil && envelope.Msg != nil && len(envelope.Data) > 0 {
		return envelope.Data
	}
	return body
}
