package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exchangeInfoBody = `{"timezone":"UTC","serverTime":1700000000000,"symbols":[
{"symbol":"BTCUSDT","pair":"BTCUSDT","contractType":"PERPETUAL","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT"},
{"symbol":"BTCUSDT_250627","pair":"BTCUSDT","contractType":"CURRENT_QUARTER","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT"},
{"symbol":"LUNAUSDT","pair":"LUNAUSDT","contractType":"PERPETUAL","status":"SETTLING","baseAsset":"LUNA","quoteAsset":"USDT"},
{"symbol":"ETHUSDC","pair":"ETHUSDC","contractType":"PERPETUAL","status":"TRADING","baseAsset":"ETH","quoteAsset":"USDC"}
]}`

const klinesBody = `[
[1700000000000,"10.0","11.0","9.0","10.5","100",1700003599999,"1050",10,"50","525","0"],
[1700003600000,"10.5","12.0","10.0","11.0","800",1700007199999,"8800",20,"400","4400","0"]
]`

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cli := futures.NewClient("", "")
	cli.BaseURL = srv.URL
	return NewSource(cli)
}

func TestSource_ListInstruments(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/exchangeInfo", r.URL.Path)
		_, _ = w.Write([]byte(exchangeInfoBody))
	})

	got, err := src.ListInstruments(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, exchange.Instrument{Source: "binance", ID: "BTCUSDT", Base: "BTC", Quote: "USDT", Live: true}, got[0])
	assert.True(t, got[1].Dated)
	assert.False(t, got[2].Live)
	assert.Equal(t, "USDC", got[3].Quote)
}

func TestSource_GetKlines(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(klinesBody))
	})

	got, err := src.GetKlines(context.Background(), "BTCUSDT", exchange.Interval1h, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "100", got[0].Volume.String())
	assert.Equal(t, "800", got[1].Volume.String())
	assert.Equal(t, "8800", got[1].QuoteAssetVolume.String())
	assert.Equal(t, int64(1700003600000), got[1].OpenTime.UnixMilli())
	assert.True(t, got[0].OpenTime.Before(got[1].OpenTime))
}

func TestSource_Errors(t *testing.T) {
	testCases := []struct {
		name          string
		status        int
		body          string
		wantErr       error
		wantTransient bool
	}{
		{name: "too many requests", status: http.StatusTooManyRequests, body: `{"code":-1003,"msg":"Too many requests"}`, wantErr: exchange.ErrRateLimited, wantTransient: true},
		{name: "too many requests empty body", status: http.StatusTooManyRequests, body: ``, wantErr: exchange.ErrRateLimited, wantTransient: true},
		{name: "ip banned", status: 418, body: `<html>banned</html>`, wantErr: exchange.ErrRateLimited, wantTransient: true},
		{name: "gateway html", status: http.StatusServiceUnavailable, body: `<html><body>503 Service Unavailable</body></html>`, wantTransient: true},
		{name: "bad gateway with code", status: http.StatusBadGateway, body: `{"code":-1001,"msg":"Internal error"}`, wantTransient: true},
		{name: "invalid symbol", status: http.StatusBadRequest, body: `{"code":-1121,"msg":"Invalid symbol."}`, wantErr: exchange.ErrPermanent},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := src.GetKlines(context.Background(), "XXXUSDT", exchange.Interval1h, 2)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			assert.Equal(t, tc.wantTransient, exchange.IsTransient(err))
			if tc.wantTransient {
				assert.NotErrorIs(t, err, exchange.ErrPermanent)
			}
		})
	}
}

func TestNewSource_KeepsDefaultClient(t *testing.T) {
	cli := futures.NewClient("", "")
	NewSource(cli)
	assert.NotSame(t, http.DefaultClient, cli.HTTPClient)
	assert.Nil(t, http.DefaultClient.Transport)
	_, ok := cli.HTTPClient.Transport.(*statusTransport)
	assert.True(t, ok)
}

func TestFromBinanceError_Network(t *testing.T) {
	err := fromBinanceError("klines", 0, context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, exchange.IsTransient(err))
}
