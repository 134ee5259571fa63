package ioc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KNICEX/volume-radar/internal/config"
	"github.com/KNICEX/volume-radar/internal/entity"
	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/KNICEX/volume-radar/internal/service/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) config.Config {
	cfg, err := config.Unmarshal(config.NewViper())
	require.NoError(t, err)
	return cfg
}

func TestInitSpikeConfig(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Detector.FourHourMARatio = 0

	got := InitSpikeConfig(cfg.Detector)
	require.Len(t, got.Intervals, 2)
	assert.Equal(t, exchange.Interval1h, got.Intervals[0].Interval)
	assert.Equal(t, "10", got.Intervals[0].PrevRatio.String())
	assert.Equal(t, exchange.Interval4h, got.Intervals[1].Interval)
	assert.True(t, got.Intervals[1].MARatio.IsZero())
	assert.Equal(t, 20, got.MAPeriod)
	assert.Equal(t, "100000000", got.TurnoverAlert.String())
}

func TestInitMonitorConfig(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Notify.TitlePrefix = "OKX"

	got := InitMonitorConfig(cfg)
	assert.Equal(t, 5, got.Concurrency)
	assert.Equal(t, 2*time.Second, got.BatchDelay)
	assert.Equal(t, 4*time.Hour, got.HeartbeatInterval)
	assert.Equal(t, "OKX", got.TitlePrefix)
}

func TestInitRepos_Sqlite(t *testing.T) {
	repos := InitRepos(config.State{Driver: config.DriverSqlite, DSN: ":memory:"})
	ctx := context.Background()

	_, found, err := repos.State.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	state := entity.NewState().WithCursor(entity.ScanCursor{Source: "okx", LastIndex: 3})
	require.NoError(t, repos.State.Save(ctx, state))
	loaded, found, err := repos.State.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, loaded.Cursor("okx").LastIndex)
}

func TestInitRepos_RedisUnreachable(t *testing.T) {
	var repos Repos
	require.NotPanics(t, func() {
		repos = InitRepos(config.State{
			Driver: config.DriverRedis,
			Redis:  config.Redis{Addr: "127.0.0.1:1", KeyPrefix: "radar"},
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, found, err := repos.State.Load(ctx)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestInitRepos_SqliteFallback(t *testing.T) {
	// 父路径是普通文件, 建目录一定失败
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	var repos Repos
	require.NotPanics(t, func() {
		repos = InitRepos(config.State{Driver: config.DriverSqlite, DSN: filepath.Join(file, "data", "radar.db")})
	})

	ctx := context.Background()
	state := entity.NewState().WithCursor(entity.ScanCursor{Source: "binance", LastIndex: 5})
	require.NoError(t, repos.State.Save(ctx, state))
	loaded, found, err := repos.State.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 5, loaded.Cursor("binance").LastIndex)

	require.NoError(t, repos.Universe.Replace(ctx, "binance", []entity.Symbol{{InstId: "AAAUSDT"}}))
	symbols, err := repos.Universe.Find(ctx, "binance")
	require.NoError(t, err)
	assert.Len(t, symbols, 1)
}

func TestInitDB_Error(t *testing.T) {
	_, err := InitDB(config.State{Driver: "mysql"})
	assert.Error(t, err)
}

func TestInitSender_TelegramIsLazy(t *testing.T) {
	cfg := defaultConfig(t).Notify
	cfg.Telegram.Token = "123:invalid"
	cfg.Telegram.ChatID = 42

	var sender notification.Sender
	require.NotPanics(t, func() {
		sender = initSender(config.NotifyTelegram, cfg)
	})
	require.NotNil(t, sender)
	assert.Equal(t, "telegram", sender.Name())

	cfg.Telegram.Token = ""
	assert.Nil(t, initSender(config.NotifyTelegram, cfg))
}

func TestInitSources(t *testing.T) {
	cfg := defaultConfig(t)
	sources := InitSources(cfg)
	require.Len(t, sources, 2)
	assert.Equal(t, "binance", sources[0].Source.Name())
	assert.Equal(t, "okx", sources[1].Source.Name())
	assert.Equal(t, 1, sources[1].Weight)

	cfg.Sources = []config.Source{{Name: "ftx", Weight: 1}}
	assert.Panics(t, func() { InitSources(cfg) })
}
