package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/KNICEX/volume-radar/internal/config"
	"github.com/KNICEX/volume-radar/internal/logger"
	"github.com/KNICEX/volume-radar/internal/schedule"
	"github.com/KNICEX/volume-radar/internal/service/monitor"
	"github.com/KNICEX/volume-radar/ioc"
	"github.com/spf13/pflag"
)

func main() {
	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.yaml", "specify config file")
	pflag.Parse()

	cfg, task, err := build(*file)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}

	ctx, cancel := runContext(cfg.Run.Timeout)
	defer cancel()
	slog.Info("run task", "task", task.Name(), "sources", cfg.SourceNames(), "timeout", cfg.Run.Timeout)
	if err = task.Run(ctx); err != nil {
		if !errors.Is(err, monitor.ErrNoUniverse) {
			slog.Error("task failed", "task", task.Name(), "error", err)
		}
		cancel()
		os.Exit(1)
	}
}

// runContext timeout 为 0 时不设置超时
func runContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

// build ioc 中的初始化失败会 panic, 这里转成错误
func build(file string) (cfg config.Config, task schedule.Task, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("init: %v", r)
		}
	}()
	cfg = ioc.InitConfig(file)
	logger.Init(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	task = ioc.InitMonitorTask(cfg)
	return cfg, task, nil
}
