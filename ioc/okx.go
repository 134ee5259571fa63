package ioc

import (
	"github.com/KNICEX/volume-radar/internal/config"
	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/KNICEX/volume-radar/internal/service/exchange/okx"
)

func InitOkxSource(cfg config.Exchange) exchange.CandleSource {
	src := okx.NewSource(okx.NewClient(cfg.Okx.BaseURL))
	return exchange.Throttle(src, cfg.Okx.RPS, cfg.RetryBackoff)
}
