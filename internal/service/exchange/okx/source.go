package okx

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	SourceName = "okx"

	instTypeSwap = "SWAP"
	stateLive    = "live"
)

var _ exchange.CandleSource = (*Source)(nil)

type Source struct {
	cli *Client
}

func NewSource(cli *Client) *Source {
	return &Source{cli: cli}
}

func (s *Source) Name() string {
	return SourceName
}

func (s *Source) ListInstruments(ctx context.Context) ([]exchange.Instrument, error) {
	var res []instrument
	if err := s.cli.get(ctx, "/api/v5/public/instruments", url.Values{"instType": {instTypeSwap}}, &res); err != nil {
		return nil, err
	}
	return lo.Map(res, func(item instrument, index int) exchange.Instrument {
		return fromOkxInstrument(item)
	}), nil
}

// fromOkxInstrument instId 形如 BTC-USDT-SWAP
func fromOkxInstrument(inst instrument) exchange.Instrument {
	parts := strings.Split(inst.InstID, "-")
	res := exchange.Instrument{
		Source: SourceName,
		ID:     inst.InstID,
		Live:   inst.State == stateLive,
		Dated:  inst.InstType != instTypeSwap || inst.ExpTime != "",
	}
	if len(parts) >= 2 {
		res.Base, res.Quote = parts[0], parts[1]
	} else {
		res.Base, res.Quote = inst.CtValCcy, inst.SettleCcy
	}
	return res
}

func (s *Source) GetKlines(ctx context.Context, instrumentID string, interval exchange.Interval, limit int) ([]exchange.Kline, error) {
	bar, ok := toOkxBar(interval)
	if !ok {
		return nil, fmt.Errorf("okx interval %s: %w", interval, exchange.ErrPermanent)
	}
	params := url.Values{"instId": {instrumentID}, "bar": {bar}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var rows []candle
	if err := s.cli.get(ctx, "/api/v5/market/candles", params, &rows); err != nil {
		return nil, err
	}
	kls := make([]exchange.Kline, len(rows))
	// OKX 返回最新的在前
	for i, row := range rows {
		k, err := convertCandle(row, interval)
		if err != nil {
			return nil, fmt.Errorf("okx candles %s: %w", instrumentID, err)
		}
		kls[len(rows)-1-i] = k
	}
	return kls, nil
}

func convertCandle(row candle, interval exchange.Interval) (exchange.Kline, error) {
	if len(row) < candleFields {
		return exchange.Kline{}, fmt.Errorf("candle with %d fields: %w", len(row), exchange.ErrMalformed)
	}
	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("candle ts %q: %w", row[0], exchange.ErrMalformed)
	}
	values := make([]decimal.Decimal, 0, 6)
	for _, idx := range []int{1, 2, 3, 4, 6, 7} {
		v, err := decimal.NewFromString(row[idx])
		if err != nil {
			return exchange.Kline{}, fmt.Errorf("candle field %d %q: %w", idx, row[idx], exchange.ErrMalformed)
		}
		values = append(values, v)
	}
	open := time.UnixMilli(ts)
	return exchange.Kline{
		OpenTime:         open,
		CloseTime:        open.Add(interval.Duration() - time.Millisecond),
		Open:             values[0],
		High:             values[1],
		Low:              values[2],
		Close:            values[3],
		Volume:           values[4],
		QuoteAssetVolume: values[5],
	}, nil
}

func toOkxBar(interval exchange.Interval) (string, bool) {
	switch interval {
	case exchange.Interval5m, exchange.Interval15m, exchange.Interval30m:
		return string(interval), true
	case exchange.Interval1h:
		return "1H", true
	case exchange.Interval2h:
		return "2H", true
	case exchange.Interval4h:
		return "4H", true
	case exchange.Interval6h:
		return "6H", true
	case exchange.Interval12h:
		return "12H", true
	case exchange.Interval1d:
		return "1D", true
	case exchange.Interval3d:
		return "3D", true
	case exchange.Interval1w:
		return "1W", true
	default:
		return "", false
	}
}
