package okx

import "encoding/json"

type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type instrument struct {
	InstType  string `json:"instType"`
	InstID    string `json:"instId"`
	State     string `json:"state"`
	SettleCcy string `json:"settleCcy"`
	CtValCcy  string `json:"ctValCcy"`
	ExpTime   string `json:"expTime"`
}

// candle [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm]
type candle []string

const candleFields = 8
