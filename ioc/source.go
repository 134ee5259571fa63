package ioc

import (
	"fmt"

	"github.com/KNICEX/volume-radar/internal/config"
	"github.com/KNICEX/volume-radar/internal/service/monitor"
	"github.com/samber/lo"
)

func InitSources(cfg config.Config) []monitor.WeightedSource {
	return lo.Map(cfg.Sources, func(item config.Source, index int) monitor.WeightedSource {
		switch item.Name {
		case config.SourceBinance:
			return monitor.WeightedSource{Source: InitBinanceSource(cfg.Exchange), Weight: item.Weight}
		case config.SourceOkx:
			return monitor.WeightedSource{Source: InitOkxSource(cfg.Exchange), Weight: item.Weight}
		default:
			panic(fmt.Errorf("unknown source %q", item.Name))
		}
	})
}
