package binance

import (
	"context"
	"net/http"
)

type statusKey struct{}

// statusTransport 把响应状态码写回请求 ctx 里的 holder
// go-binance 的 APIError 不带状态码, 空 body 的 429/5xx 只能靠这里区分
type statusTransport struct {
	base http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	res, err := t.base.RoundTrip(req)
	if res != nil {
		if holder, ok := req.Context().Value(statusKey{}).(*int); ok {
			*holder = res.StatusCode
		}
	}
	return res, err
}

func withStatus(ctx context.Context) (context.Context, *int) {
	status := new(int)
	return context.WithValue(ctx, statusKey{}, status), status
}

// wrapHTTPClient 复制一份 client, 不改动 http.DefaultClient
func wrapHTTPClient(hc *http.Client) *http.Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	wrapped := *hc
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if _, ok := base.(*statusTransport); !ok {
		wrapped.Transport = &statusTransport{base: base}
	}
	return &wrapped
}
