// Package whiteboard 实现对外部白板会话服务的 HTTP 调用。
package whiteboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/domain"
)

// Client 通过 HTTP API 管理白板会话，实现 service.Whiteboard。
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient 创建白板客户端。baseURL 形如 https://api.example.com/v5。
func NewClient(baseURL, accessToken string) *Client {
	if baseURL == "" || accessToken == "" {
		panic("baseURL and accessToken are required for whiteboard client")
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type createRoomResponse struct {
	UUID string `json:"uuid"`
}

// CreateRoom 创建一个白板会话并返回其 UUID。
func (c *Client) CreateRoom(ctx context.Context, region domain.Region) (string, error) {
	body, err := json.Marshal(map[string]interface{}{"isRecord": false})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rooms", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req, region)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whiteboard: create room: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whiteboard: create room: unexpected status %d", resp.StatusCode)
	}

	var parsed createRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("whiteboard: decode create room response: %w", err)
	}
	if parsed.UUID == "" {
		return "", fmt.Errorf("whiteboard: create room: empty uuid in response")
	}
	return parsed.UUID, nil
}

// BanRoom 封禁一个白板会话。会话已不存在时视为成功，任务队列可能
// 把同一个封禁重试多次。
func (c *Client) BanRoom(ctx context.Context, region domain.Region, whiteboardRoomUUID string) error {
	body, err := json.Marshal(map[string]interface{}{"isBan": true})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/rooms/"+whiteboardRoomUUID, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req, region)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whiteboard: ban room: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		logrus.WithField("whiteboard_room_uuid", whiteboardRoomUUID).
			Warn("whiteboard room already gone, treating ban as success")
		return nil
	default:
		return fmt.Errorf("whiteboard: ban room: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) setHeaders(req *http.Request, region domain.Region) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("token", c.accessToken)
	req.Header.Set("region", string(region))
}
