package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/KNICEX/volume-radar/internal/service/scheduler"
	"github.com/KNICEX/volume-radar/internal/service/strategy"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type symbolResult struct {
	findings []strategy.Finding
	illiquid bool
	err      error
}

// evaluate 各数据源并行, 同一数据源内按窗口分批, 窗口内最多 Concurrency 个合约同时请求
func (t *SpikeMonitorTask) evaluate(ctx context.Context, plan scheduler.Plan, stats map[string]*sourceStat) []strategy.Finding {
	var (
		mu       sync.Mutex
		findings = make(map[string][]strategy.Finding, len(plan.Assignments))
	)
	var g errgroup.Group
	for _, as := range plan.Assignments {
		as := as
		src, ok := t.sources[as.Source]
		if !ok || len(as.Batch) == 0 {
			continue
		}
		stat := stats[as.Source]
		g.Go(func() error {
			res := t.evaluateSource(ctx, src, as.Batch, stat)
			mu.Lock()
			findings[as.Source] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// 按数据源的配置顺序输出
	var all []strategy.Finding
	for _, as := range plan.Assignments {
		all = append(all, findings[as.Source]...)
	}
	return all
}

func (t *SpikeMonitorTask) evaluateSource(ctx context.Context, src exchange.CandleSource, batch []exchange.Instrument, stat *sourceStat) []strategy.Finding {
	results := make([]symbolResult, len(batch))
	windows := lo.Chunk(lo.Range(len(batch)), t.cfg.Concurrency)
	for i, window := range windows {
		if i > 0 {
			if err := t.sleep(ctx, t.cfg.BatchDelay); err != nil {
				for _, idx := range lo.Flatten(windows[i:]) {
					results[idx] = symbolResult{err: err}
				}
				break
			}
		}
		var g errgroup.Group
		for _, idx := range window {
			idx := idx
			g.Go(func() error {
				results[idx] = t.evaluateSymbol(ctx, src, batch[idx])
				return nil
			})
		}
		_ = g.Wait()
	}

	var findings []strategy.Finding
	for i, res := range results {
		inst := batch[i]
		switch {
		case res.err != nil:
			stat.Failed++
			t.logSymbolError(inst, res.err)
		case res.illiquid:
			stat.Scanned++
			stat.Illiquid++
		default:
			stat.Scanned++
			findings = append(findings, res.findings...)
		}
	}
	return findings
}

// evaluateSymbol 先取日线做流动性过滤, 通过后再取各周期K线
func (t *SpikeMonitorTask) evaluateSymbol(ctx context.Context, src exchange.CandleSource, inst exchange.Instrument) symbolResult {
	cfg := t.detector.Config()
	daily, err := src.GetKlines(ctx, inst.ID, exchange.Interval1d, max(cfg.TurnoverHistoryDays, 1))
	if err != nil {
		return symbolResult{err: err}
	}
	if !t.detector.PassesLiquidity(daily) {
		return symbolResult{illiquid: true}
	}

	input := strategy.DetectInput{
		Source:     src.Name(),
		Instrument: inst,
		Daily:      daily,
		Klines:     make(map[exchange.Interval][]exchange.Kline, len(cfg.Intervals)),
	}
	for _, th := range cfg.Intervals {
		kLines, err := src.GetKlines(ctx, inst.ID, th.Interval, cfg.CandleLimit)
		if err != nil {
			return symbolResult{err: err}
		}
		input.Klines[th.Interval] = kLines
	}
	return symbolResult{findings: t.detector.Detect(input)}
}

func (t *SpikeMonitorTask) logSymbolError(inst exchange.Instrument, err error) {
	switch {
	case errors.Is(err, exchange.ErrMalformed):
		t.logger.Debug("skip symbol with malformed candles", "symbol", inst.String(), "error", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		t.logger.Debug("symbol evaluation cancelled", "symbol", inst.String())
	default:
		t.logger.Warn("failed to evaluate symbol", "symbol", inst.String(), "transient", exchange.IsTransient(err), "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
