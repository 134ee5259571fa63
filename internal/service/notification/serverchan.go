package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const serverChanBaseURL = "https://sctapi.ftqq.com"

// serverChanSender Server酱微信推送
type serverChanSender struct {
	key     string
	baseURL string
	client  *http.Client
}

func NewServerChanSender(key string, baseURL string) Sender {
	if baseURL == "" {
		baseURL = serverChanBaseURL
	}
	return &serverChanSender{
		key:     key,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *serverChanSender) Name() string {
	return "serverchan"
}

type serverChanResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *serverChanSender) Send(ctx context.Context, title, body string) error {
	if s.key == "" {
		return fmt.Errorf("serverchan: send key not configured")
	}
	form := url.Values{"title": {title}, "desp": {body}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s.send", s.baseURL, s.key), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("serverchan: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("serverchan: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("serverchan: unexpected status %d", resp.StatusCode)
	}
	var res serverChanResp
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("serverchan: decode response: %w", err)
	}
	if res.Code != 0 {
		return fmt.Errorf("serverchan: code %d %s", res.Code, res.Message)
	}
	return nil
}
