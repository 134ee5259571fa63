package binance

import (
	"context"
	"strings"

	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/samber/lo"
)

const statusTrading = "TRADING"

func (s *Source) ListInstruments(ctx context.Context) ([]exchange.Instrument, error) {
	ctx, status := withStatus(ctx)
	info, err := s.cli.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fromBinanceError("exchange info", *status, err)
	}
	return lo.Map(info.Symbols, func(item futures.Symbol, index int) exchange.Instrument {
		return fromBinanceSymbol(item)
	}), nil
}

// fromBinanceSymbol 非 PERPETUAL 或者带 '_' 的 (BTCUSDT_240628) 都是交割合约
func fromBinanceSymbol(s futures.Symbol) exchange.Instrument {
	return exchange.Instrument{
		Source: SourceName,
		ID:     s.Symbol,
		Base:   s.BaseAsset,
		Quote:  s.QuoteAsset,
		Live:   s.Status == statusTrading,
		Dated:  s.ContractType != futures.ContractTypePerpetual || strings.Contains(s.Symbol, "_"),
	}
}
