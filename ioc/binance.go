package ioc

import (
	"github.com/KNICEX/volume-radar/internal/config"
	"github.com/KNICEX/volume-radar/internal/service/exchange"
	binancesrc "github.com/KNICEX/volume-radar/internal/service/exchange/binance"
	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
)

// InitBinanceCli 行情接口不需要签名, key 可以为空
func InitBinanceCli(cfg config.Binance) *futures.Client {
	return binance.NewFuturesClient(cfg.ApiKey, cfg.ApiSecret)
}

func InitBinanceSource(cfg config.Exchange) exchange.CandleSource {
	src := binancesrc.NewSource(InitBinanceCli(cfg.Binance))
	return exchange.Throttle(src, cfg.Binance.RPS, cfg.RetryBackoff)
}
