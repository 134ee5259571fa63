package okx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSource(NewClient(srv.URL))
}

func TestSource_ListInstruments(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/public/instruments", r.URL.Path)
		assert.Equal(t, "SWAP", r.URL.Query().Get("instType"))
		_, _ = w.Write([]byte(`{"code":"0","msg":"","data":[
{"instType":"SWAP","instId":"BTC-USDT-SWAP","state":"live","settleCcy":"USDT","ctValCcy":"BTC","expTime":""},
{"instType":"SWAP","instId":"ETH-USD-SWAP","state":"live","settleCcy":"ETH","ctValCcy":"USD","expTime":""},
{"instType":"SWAP","instId":"LUNA-USDT-SWAP","state":"suspend","settleCcy":"USDT","ctValCcy":"LUNA","expTime":""}
]}`))
	})

	got, err := src.ListInstruments(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, exchange.Instrument{Source: "okx", ID: "BTC-USDT-SWAP", Base: "BTC", Quote: "USDT", Live: true}, got[0])
	assert.Equal(t, "USD", got[1].Quote)
	assert.False(t, got[2].Live)
}

func TestSource_GetKlines(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/market/candles", r.URL.Path)
		assert.Equal(t, "BTC-USDT-SWAP", r.URL.Query().Get("instId"))
		assert.Equal(t, "4H", r.URL.Query().Get("bar"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"code":"0","msg":"","data":[
["1700014400000","11","12","10","11.5","9000","900","9900","0"],
["1700000000000","10","11","9","10.5","1000","100","1000","1"]
]}`))
	})

	got, err := src.GetKlines(context.Background(), "BTC-USDT-SWAP", exchange.Interval4h, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// 最旧的在前
	assert.Equal(t, int64(1700000000000), got[0].OpenTime.UnixMilli())
	assert.Equal(t, "100", got[0].Volume.String())
	assert.Equal(t, "900", got[1].Volume.String())
	assert.Equal(t, "9900", got[1].QuoteAssetVolume.String())
	assert.Equal(t, int64(1700014400000+4*3600*1000-1), got[1].CloseTime.UnixMilli())
}

func TestSource_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "http 429", status: http.StatusTooManyRequests, body: `{}`, wantErr: exchange.ErrRateLimited},
		{name: "code 50011", status: http.StatusOK, body: `{"code":"50011","msg":"Too Many Requests","data":[]}`, wantErr: exchange.ErrRateLimited},
		{name: "instrument not exist", status: http.StatusOK, body: `{"code":"51001","msg":"Instrument ID does not exist","data":[]}`, wantErr: exchange.ErrPermanent},
		{name: "short row", status: http.StatusOK, body: `{"code":"0","msg":"","data":[["1700000000000","1","2"]]}`, wantErr: exchange.ErrMalformed},
		{name: "bad number", status: http.StatusOK, body: `{"code":"0","msg":"","data":[["1700000000000","x","2","1","1","1","1","1","1"]]}`, wantErr: exchange.ErrMalformed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := src.GetKlines(context.Background(), "BTC-USDT-SWAP", exchange.Interval1h, 2)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSource_ServerErrorIsTransient(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})
	_, err := src.GetKlines(context.Background(), "BTC-USDT-SWAP", exchange.Interval1h, 2)
	require.Error(t, err)
	var statusErr *HTTPStatusError
	assert.ErrorAs(t, err, &statusErr)
	assert.True(t, exchange.IsTransient(err))
}

func TestSource_UnsupportedInterval(t *testing.T) {
	src := NewSource(NewClient("http://127.0.0.1:0"))
	_, err := src.GetKlines(context.Background(), "BTC-USDT-SWAP", exchange.Interval8h, 2)
	assert.ErrorIs(t, err, exchange.ErrPermanent)
}
