package binance

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/adshao/go-binance/v2/common"
)

const (
	codeTooManyRequests = -1003
	codeTooManyOrders   = -1015

	// 418 是频繁 429 之后的临时封禁
	statusIPBanned = 418
)

// fromBinanceError 区分限频、业务错误和网络错误
// status 为 0 表示没拿到响应
func fromBinanceError(op string, status int, err error) error {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("binance %s: %w", op, err)
	}
	switch {
	case status == http.StatusTooManyRequests || status == statusIPBanned,
		apiErr.Code == codeTooManyRequests || apiErr.Code == codeTooManyOrders:
		return fmt.Errorf("binance %s: %w: status %d %s", op, exchange.ErrRateLimited, status, apiErr.Message)
	case status >= http.StatusInternalServerError, apiErr.Code == 0:
		// 网关错误或者 body 解析不出来, 当作临时错误
		return fmt.Errorf("binance %s: status %d: %w", op, status, err)
	default:
		return fmt.Errorf("binance %s: %w: code %d %s", op, exchange.ErrPermanent, apiErr.Code, apiErr.Message)
	}
}
