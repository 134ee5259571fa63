package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

func (s *Source) GetKlines(ctx context.Context, instrumentID string, interval exchange.Interval, limit int) ([]exchange.Kline, error) {
	svc := s.cli.NewKlinesService().Symbol(instrumentID).Interval(interval.ToString())
	if limit > 0 {
		svc.Limit(limit)
	}
	ctx, status := withStatus(ctx)
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, fromBinanceError(fmt.Sprintf("klines %s %s", instrumentID, interval), *status, err)
	}
	return convertKlines(res)
}

func convertKlines(klines []*futures.Kline) ([]exchange.Kline, error) {
	kls := make([]exchange.Kline, len(klines))
	for i, k := range klines {
		fields := []string{k.Open, k.Close, k.High, k.Low, k.Volume, k.QuoteAssetVolume}
		values := make([]decimal.Decimal, len(fields))
		for j, f := range fields {
			v, err := decimal.NewFromString(f)
			if err != nil {
				return nil, fmt.Errorf("binance kline %d field %q: %w", k.OpenTime, f, exchange.ErrMalformed)
			}
			values[j] = v
		}
		kls[i] = exchange.Kline{
			OpenTime:         time.UnixMilli(k.OpenTime),
			CloseTime:        time.UnixMilli(k.CloseTime),
			Open:             values[0],
			Close:            values[1],
			High:             values[2],
			Low:              values[3],
			Volume:           values[4],
			QuoteAssetVolume: values[5],
		}
	}
	return kls, nil
}
