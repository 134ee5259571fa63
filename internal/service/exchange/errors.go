package exchange

import "errors"

var (
	// ErrRateLimited 触发交易所限频 (HTTP 429 或对应错误码), 可以短暂等待后重试一次
	ErrRateLimited = errors.New("rate limited")
	// ErrPermanent 重试无意义的错误, 例如交易对不存在
	ErrPermanent = errors.New("permanent upstream error")
	// ErrMalformed 返回数据格式不对
	ErrMalformed = errors.New("malformed response")
)

// IsTransient 网络错误、超时、限频等可以在下一轮恢复的错误
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrPermanent) && !errors.Is(err, ErrMalformed)
}
