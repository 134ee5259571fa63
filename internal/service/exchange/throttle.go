package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

var _ CandleSource = (*throttledSource)(nil)

type throttledSource struct {
	CandleSource
	limiter      *rate.Limiter
	retryBackoff time.Duration
}

// Throttle 给数据源加上请求限速, 遇到限频时固定等待 retryBackoff 后重试一次
func Throttle(src CandleSource, rps float64, retryBackoff time.Duration) CandleSource {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &throttledSource{
		CandleSource: src,
		limiter:      rate.NewLimiter(limit, burst),
		retryBackoff: retryBackoff,
	}
}

func (s *throttledSource) ListInstruments(ctx context.Context) ([]Instrument, error) {
	var res []Instrument
	err := s.call(ctx, func() error {
		var err error
		res, err = s.CandleSource.ListInstruments(ctx)
		return err
	})
	return res, err
}

func (s *throttledSource) GetKlines(ctx context.Context, instrumentID string, interval Interval, limit int) ([]Kline, error) {
	var res []Kline
	err := s.call(ctx, func() error {
		var err error
		res, err = s.CandleSource.GetKlines(ctx, instrumentID, interval, limit)
		return err
	})
	return res, err
}

func (s *throttledSource) call(ctx context.Context, op func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryBackoff), 1), ctx)
	return backoff.Retry(func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		err := op()
		if err == nil || errors.Is(err, ErrRateLimited) {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}
