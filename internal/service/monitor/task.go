package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KNICEX/volume-radar/internal/entity"
	"github.com/KNICEX/volume-radar/internal/metrics"
	"github.com/KNICEX/volume-radar/internal/repo"
	"github.com/KNICEX/volume-radar/internal/schedule"
	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/KNICEX/volume-radar/internal/service/notification"
	"github.com/KNICEX/volume-radar/internal/service/scheduler"
	"github.com/KNICEX/volume-radar/internal/service/strategy"
	"github.com/KNICEX/volume-radar/internal/service/universe"
	"github.com/samber/lo"
)

// SpikeMonitorTask 一次完整的扫描: 刷新合约列表, 分配批次, 检测, 通知, 写回状态
type SpikeMonitorTask struct {
	order    []string
	sources  map[string]exchange.CandleSource
	weights  map[string]int
	universe *universe.Manager
	planner  *scheduler.Planner
	detector *strategy.SpikeDetector
	notifier notification.Notifier
	state    repo.StateRepo

	spikes      repo.SpikeRepo
	commentator Commentator
	metrics     *metrics.RunMetrics
	pusher      *metrics.Pusher

	cfg    Config
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger
}

type Option func(t *SpikeMonitorTask)

func WithSpikeRepo(r repo.SpikeRepo) Option {
	return func(t *SpikeMonitorTask) {
		t.spikes = r
	}
}

func WithCommentator(c Commentator) Option {
	return func(t *SpikeMonitorTask) {
		t.commentator = c
	}
}

func WithMetrics(m *metrics.RunMetrics, pusher *metrics.Pusher) Option {
	return func(t *SpikeMonitorTask) {
		t.metrics = m
		t.pusher = pusher
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *SpikeMonitorTask) {
		t.now = now
	}
}

func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(t *SpikeMonitorTask) {
		t.sleep = sleep
	}
}

func NewSpikeMonitorTask(sources []WeightedSource, um *universe.Manager, planner *scheduler.Planner,
	detector *strategy.SpikeDetector, notifier notification.Notifier, state repo.StateRepo, cfg Config, opts ...Option) schedule.Task {
	return newSpikeMonitorTask(sources, um, planner, detector, notifier, state, cfg, opts...)
}

func newSpikeMonitorTask(sources []WeightedSource, um *universe.Manager, planner *scheduler.Planner,
	detector *strategy.SpikeDetector, notifier notification.Notifier, state repo.StateRepo, cfg Config, opts ...Option) *SpikeMonitorTask {
	defaults := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.Concurrency
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = defaults.PersistTimeout
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = defaults.MaxRows
	}

	t := &SpikeMonitorTask{
		sources:  make(map[string]exchange.CandleSource, len(sources)),
		weights:  make(map[string]int, len(sources)),
		universe: um,
		planner:  planner,
		detector: detector,
		notifier: notifier,
		state:    state,
		cfg:      cfg,
		now:      time.Now,
		sleep:    sleepContext,
		logger:   slog.With("component", "monitor"),
	}
	for _, ws := range sources {
		name := ws.Source.Name()
		t.order = append(t.order, name)
		t.sources[name] = ws.Source
		t.weights[name] = ws.Weight
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *SpikeMonitorTask) Name() string {
	return "volume spike monitor task"
}

// Run 除了所有数据源都没有合约之外, 单个环节失败只记录日志, 不影响本次运行结束
func (t *SpikeMonitorTask) Run(ctx context.Context) (err error) {
	start := t.now()
	phase := PhaseInit
	enter := func(p Phase) {
		phase = p
		t.logger.Debug("enter phase", "phase", p)
	}
	defer func() {
		if err != nil && !errors.Is(err, ErrNoUniverse) {
			t.logger.Error("run failed", "phase", phase, "error", err)
		}
		t.finishMetrics(ctx, start, err == nil)
	}()

	state := t.loadState(ctx)

	enter(PhaseRefreshing)
	pools, stats := t.refresh(ctx, state)
	universeTotal := lo.SumBy(pools, func(item scheduler.Pool) int { return len(item.Instruments) })
	if universeTotal == 0 {
		enter(PhaseNotifying)
		title, body := noUniverseMessage(t.cfg.TitlePrefix, t.now(), t.orderedStats(stats))
		t.notify(ctx, title, body)

		enter(PhasePersisting)
		next := state.Clone()
		next.Stats.TotalRuns++
		t.persist(ctx, next)
		enter(PhaseDone)
		return ErrNoUniverse
	}

	enter(PhaseScheduling)
	plan, next := t.planner.Plan(state, pools)
	t.logger.Info("batch planned", "total", plan.Total(), "universe", universeTotal)

	enter(PhaseEvaluating)
	findings := t.evaluate(ctx, plan, stats)
	if ctxErr := ctx.Err(); ctxErr != nil {
		// 本轮没有完整跑完, 游标保持不变, 下次重扫同一批
		t.logger.Warn("run aborted, keep cursors", "phase", phase, "error", ctxErr)
		enter(PhaseFailed)
		aborted := state.Clone()
		aborted.Stats.TotalRuns++
		t.persist(ctx, aborted)
		return fmt.Errorf("evaluate batch: %w", ctxErr)
	}
	t.recordFindings(findings, stats)

	enter(PhaseNotifying)
	now := t.now()
	next.Stats.TotalRuns++
	next.Stats.TotalFindings += int64(len(findings))
	if len(findings) > 0 {
		report := newReport(t.cfg, t.detector.Config(), now, t.orderedStats(stats), findings)
		body := report.Body()
		if comment := t.comment(ctx, findings); comment != "" {
			body = appendCommentary(body, comment)
		}
		if t.notify(ctx, report.Title(), notification.Truncate(body, t.cfg.MaxLength)) {
			next.Stats.LastHeartbeatAt = now
		}
		t.saveSpikes(ctx, findings, now)
	} else if state.HeartbeatDue(now, t.cfg.HeartbeatInterval) {
		title, body := heartbeatMessage(t.cfg.TitlePrefix, now, universeTotal, state.Stats.LastHeartbeatAt)
		if t.notify(ctx, title, body) {
			next.Stats.LastHeartbeatAt = now
		}
	}

	enter(PhasePersisting)
	t.persist(ctx, next)
	enter(PhaseDone)
	t.logger.Info("run finished", "scanned", plan.Total(), "findings", len(findings), "cost", t.now().Sub(start))
	return nil
}

// loadState 读取失败或者没有状态都从默认值开始
func (t *SpikeMonitorTask) loadState(ctx context.Context) entity.State {
	state, found, err := t.state.Load(ctx)
	if err != nil {
		t.logger.Error("failed to load state, start from defaults", "error", err)
		return entity.NewState()
	}
	if !found {
		t.logger.Info("no saved state, start from defaults")
		return entity.NewState()
	}
	return state
}

func (t *SpikeMonitorTask) refresh(ctx context.Context, state entity.State) ([]scheduler.Pool, map[string]*sourceStat) {
	pools := make([]scheduler.Pool, 0, len(t.order))
	stats := make(map[string]*sourceStat, len(t.order))
	for _, name := range t.order {
		stat := &sourceStat{Source: name}
		stats[name] = stat

		u, err := t.universe.RefreshIfStale(ctx, t.sources[name], state.Cursor(name).LastUniverseRefreshAt)
		if err != nil {
			stat.RefreshErr = err
			t.logger.Warn("failed to refresh universe, use cached", "source", name, "cached", u.Len(), "error", err)
		}
		stat.UniverseSize = u.Len()
		if t.metrics != nil {
			t.metrics.UniverseSize.WithLabelValues(name).Set(float64(u.Len()))
		}

		pool := scheduler.Pool{
			Source:      name,
			Weight:      t.weights[name],
			Instruments: u.Instruments,
		}
		if u.Refreshed {
			pool.RefreshedAt = u.RefreshedAt
		}
		pools = append(pools, pool)
	}
	return pools, stats
}

func (t *SpikeMonitorTask) orderedStats(stats map[string]*sourceStat) []sourceStat {
	return lo.FilterMap(t.order, func(name string, _ int) (sourceStat, bool) {
		s, ok := stats[name]
		if !ok {
			return sourceStat{}, false
		}
		return *s, true
	})
}

// notify 返回是否至少有一个渠道送达
func (t *SpikeMonitorTask) notify(ctx context.Context, title, body string) bool {
	res := t.notifier.Notify(ctx, title, body)
	if !res.Sent {
		t.logger.Error("failed to send notification", "title", title, "channel", res.Channel, "error", res.Err)
		if t.metrics != nil {
			t.metrics.NotifyFailures.Inc()
		}
		return false
	}
	return true
}

func (t *SpikeMonitorTask) comment(ctx context.Context, findings []strategy.Finding) string {
	if t.commentator == nil {
		return ""
	}
	comment, err := t.commentator.Comment(ctx, findings)
	if err != nil {
		t.logger.Warn("failed to get commentary", "error", err)
		return ""
	}
	return comment
}

// persist 运行被取消时也要把状态写回去
func (t *SpikeMonitorTask) persist(ctx context.Context, state entity.State) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.cfg.PersistTimeout)
	defer cancel()
	if err := t.state.Save(ctx, state); err != nil {
		t.logger.Error("failed to save state", "error", err)
		if t.metrics != nil {
			t.metrics.PersistFailures.Inc()
		}
	}
}

func (t *SpikeMonitorTask) saveSpikes(ctx context.Context, findings []strategy.Finding, now time.Time) {
	if t.spikes == nil {
		return
	}
	spikes := lo.Map(findings, func(item strategy.Finding, index int) entity.Spike {
		return toSpike(item, now)
	})
	if err := t.spikes.CreateBatch(ctx, spikes); err != nil {
		t.logger.Error("failed to save spike history", "count", len(spikes), "error", err)
	}
}

func (t *SpikeMonitorTask) recordFindings(findings []strategy.Finding, stats map[string]*sourceStat) {
	if t.metrics == nil {
		return
	}
	for _, f := range findings {
		t.metrics.Findings.WithLabelValues(f.Source, string(f.Kind)).Inc()
	}
	for name, s := range stats {
		t.metrics.SymbolsScanned.WithLabelValues(name).Add(float64(s.Scanned))
		t.metrics.SymbolsFailed.WithLabelValues(name).Add(float64(s.Failed))
	}
}

func (t *SpikeMonitorTask) finishMetrics(ctx context.Context, start time.Time, success bool) {
	if t.metrics == nil {
		return
	}
	t.metrics.ObserveRun(start, t.now(), success)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.cfg.PersistTimeout)
	defer cancel()
	if err := t.pusher.Push(ctx, t.metrics); err != nil {
		t.logger.Warn("failed to push metrics", "error", err)
	}
}

func toSpike(f strategy.Finding, now time.Time) entity.Spike {
	return entity.Spike{
		Source:           f.Source,
		InstId:           f.Instrument.ID,
		Kind:             string(f.Kind),
		Interval:         string(f.Interval),
		Price:            f.Price.String(),
		CurrentVolume:    f.CurrentVolume.String(),
		ReferenceVolume:  f.ReferenceVolume.String(),
		Ratio:            f.Ratio.String(),
		DailyQuoteVolume: f.DailyQuoteVolume.String(),
		CandleTime:       f.Timestamp,
		CreatedAt:        now,
	}
}
