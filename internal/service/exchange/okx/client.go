package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/KNICEX/volume-radar/internal/service/exchange"
)

const DefaultBaseURL = "https://www.okx.com"

const (
	codeOK          = "0"
	codeRateLimited = "50011"
	codeNotExist    = "51001"
)

// Client OKX v5 公共行情 REST 客户端, 只访问无需签名的接口
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 15 * time.Second}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
}

func (c *Client) buildURL(endpoint string, params url.Values) (string, error) {
	u, err := url.Parse(c.BaseURL + endpoint)
	if err != nil {
		return "", fmt.Errorf("okx url %s: %w", endpoint, err)
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// get 请求并解出 data 字段
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, data any) error {
	fullURL, err := c.buildURL(endpoint, params)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("okx %s: %w", endpoint, err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("okx %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("okx %s read body: %w", endpoint, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("okx %s: %w", endpoint, exchange.ErrRateLimited)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &HTTPStatusError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("okx %s: %w: %v", endpoint, exchange.ErrMalformed, err)
	}
	switch env.Code {
	case codeOK:
	case codeRateLimited:
		return fmt.Errorf("okx %s: %w: %s", endpoint, exchange.ErrRateLimited, env.Msg)
	case codeNotExist:
		return fmt.Errorf("okx %s: %w: %s", endpoint, exchange.ErrPermanent, env.Msg)
	default:
		if resp.StatusCode >= http.StatusInternalServerError {
			return &HTTPStatusError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("okx %s: %w: code %s %s", endpoint, exchange.ErrPermanent, env.Code, env.Msg)
	}
	if err := json.Unmarshal(env.Data, data); err != nil {
		return fmt.Errorf("okx %s data: %w: %v", endpoint, exchange.ErrMalformed, err)
	}
	return nil
}

// HTTPStatusError 非 200 且无法解析的响应, 视为临时错误
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return "okx non-200 status code: " + http.StatusText(e.StatusCode)
}
