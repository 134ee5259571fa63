package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var _ CandleSource = (*MockSource)(nil)

// MockSource 内存行情源 (用于测试)
type MockSource struct {
	name string

	mu          sync.Mutex
	instruments []Instrument
	listErr     error
	klines      map[string][]Kline // key: instrumentID_interval
	errs        map[string]error   // key: instrumentID_interval
	calls       map[string]int

	inFlight    int
	maxInFlight int
	delay       time.Duration
}

// NewMockSource 创建模拟行情源
func NewMockSource(name string) *MockSource {
	return &MockSource{
		name:   name,
		klines: make(map[string][]Kline),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (m *MockSource) Name() string {
	return m.name
}

// SetInstruments 设置合约列表, err 不为空时 ListInstruments 返回该错误
func (m *MockSource) SetInstruments(instruments []Instrument, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instruments = instruments
	m.listErr = err
}

// AddKlines 添加模拟K线数据
func (m *MockSource) AddKlines(instrumentID string, interval Interval, klines []Kline) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.klines[mockKey(instrumentID, interval)] = klines
}

// FailKlines 让某个合约某个周期的请求失败
func (m *MockSource) FailKlines(instrumentID string, interval Interval, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[mockKey(instrumentID, interval)] = err
}

// SetDelay 每次请求的模拟耗时, 用于观察并发
func (m *MockSource) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

func (m *MockSource) ListInstruments(ctx context.Context) ([]Instrument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["list"]++
	if m.listErr != nil {
		return nil, m.listErr
	}
	res := make([]Instrument, len(m.instruments))
	copy(res, m.instruments)
	return res, nil
}

func (m *MockSource) GetKlines(ctx context.Context, instrumentID string, interval Interval, limit int) ([]Kline, error) {
	key := mockKey(instrumentID, interval)

	m.mu.Lock()
	m.calls[key]++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	delay := m.delay
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.errs[key]; ok {
		return nil, err
	}
	ks := m.klines[key]
	if limit > 0 && len(ks) > limit {
		ks = ks[len(ks)-limit:]
	}
	res := make([]Kline, len(ks))
	copy(res, ks)
	return res, nil
}

// Calls 某个合约某个周期被请求的次数, ListInstruments 对应 key "list"
func (m *MockSource) Calls(instrumentID string, interval Interval) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if instrumentID == "list" {
		return m.calls["list"]
	}
	return m.calls[mockKey(instrumentID, interval)]
}

// MaxInFlight 观察到的最大并发请求数
func (m *MockSource) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// VolumeKlines 按给定成交量生成K线, 收盘价固定为 price, 成交额 = 成交量 * price
func VolumeKlines(interval Interval, start time.Time, price float64, volumes ...float64) []Kline {
	p := decimal.NewFromFloat(price)
	klines := make([]Kline, len(volumes))
	for i, v := range volumes {
		openTime := start.Add(time.Duration(i) * interval.Duration())
		vol := decimal.NewFromFloat(v)
		klines[i] = Kline{
			OpenTime:         openTime,
			CloseTime:        openTime.Add(interval.Duration() - time.Millisecond),
			Open:             p,
			Close:            p,
			High:             p,
			Low:              p,
			Volume:           vol,
			QuoteAssetVolume: vol.Mul(p),
		}
	}
	return klines
}

func mockKey(instrumentID string, interval Interval) string {
	return instrumentID + "_" + interval.ToString()
}
