package ioc

import (
	"github.com/KNICEX/volume-radar/internal/config"
	"github.com/KNICEX/volume-radar/internal/metrics"
	"github.com/KNICEX/volume-radar/internal/schedule"
	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/KNICEX/volume-radar/internal/service/monitor"
	"github.com/KNICEX/volume-radar/internal/service/scheduler"
	"github.com/KNICEX/volume-radar/internal/service/strategy"
	"github.com/KNICEX/volume-radar/internal/service/universe"
	"github.com/shopspring/decimal"
)

func InitSpikeConfig(d config.Detector) strategy.SpikeConfig {
	return strategy.SpikeConfig{
		Intervals: []strategy.IntervalThreshold{
			{
				Interval:  exchange.Interval1h,
				PrevRatio: decimal.NewFromFloat(d.HourRatio),
				MARatio:   decimal.NewFromFloat(d.HourMARatio),
			},
			{
				Interval:  exchange.Interval4h,
				PrevRatio: decimal.NewFromFloat(d.FourHourRatio),
				MARatio:   decimal.NewFromFloat(d.FourHourMARatio),
			},
		},
		MAPeriod:            d.MAPeriod,
		CandleLimit:         d.CandleLimit,
		MinDailyQuoteVolume: decimal.NewFromFloat(d.MinDailyQuoteVolume),
		TurnoverAlert:       decimal.NewFromFloat(d.TurnoverAlert),
		TurnoverHistoryDays: d.TurnoverHistoryDays,
	}
}

func InitMonitorConfig(cfg config.Config) monitor.Config {
	res := monitor.DefaultConfig()
	res.Concurrency = cfg.Scan.Concurrency
	res.BatchDelay = cfg.Scan.BatchDelay
	res.HeartbeatInterval = cfg.Heartbeat.Interval
	res.MaxRows = cfg.Notify.MaxRows
	res.MaxLength = cfg.Notify.MaxLength
	res.TitlePrefix = cfg.Notify.TitlePrefix
	return res
}

func InitMonitorTask(cfg config.Config) schedule.Task {
	repos := InitRepos(cfg.State)

	um := universe.NewManager(repos.Universe, cfg.Scan.UniverseTTL, universe.Filter{
		Quote:   cfg.Scan.QuoteAsset,
		Exclude: cfg.Scan.Exclude,
	})
	planner := scheduler.NewPlanner(cfg.Scan.BatchSize, scheduler.Mode(cfg.Scan.Mode))
	detector := strategy.NewSpikeDetector(InitSpikeConfig(cfg.Detector))

	opts := []monitor.Option{
		monitor.WithSpikeRepo(repos.Spike),
		monitor.WithMetrics(metrics.NewRunMetrics(), metrics.NewPusher(cfg.Metrics.Pushgateway, cfg.Metrics.Job)),
	}
	if c := InitCommentator(cfg.LLM.Gemini); c != nil {
		opts = append(opts, monitor.WithCommentator(c))
	}

	return monitor.NewSpikeMonitorTask(
		InitSources(cfg),
		um,
		planner,
		detector,
		InitNotifier(cfg.Notify),
		repos.State,
		InitMonitorConfig(cfg),
		opts...,
	)
}
