package binance

import (
	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/adshao/go-binance/v2/futures"
)

const SourceName = "binance"

var _ exchange.CandleSource = (*Source)(nil)

// Source 币安U本位合约行情源
type Source struct {
	cli *futures.Client
}

func NewSource(cli *futures.Client) *Source {
	cli.HTTPClient = wrapHTTPClient(cli.HTTPClient)
	return &Source{cli: cli}
}

func (s *Source) Name() string {
	return SourceName
}
