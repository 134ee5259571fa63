package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/KNICEX/volume-radar/internal/service/strategy"
)

// ErrNoUniverse 所有数据源都没有可扫描的合约
var ErrNoUniverse = errors.New("no symbols to scan")

type Phase string

const (
	PhaseInit       Phase = "init"
	PhaseRefreshing Phase = "refreshing"
	PhaseScheduling Phase = "scheduling"
	PhaseEvaluating Phase = "evaluating"
	PhaseNotifying  Phase = "notifying"
	PhasePersisting Phase = "persisting"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// WeightedSource 数据源和它在每轮批次中的权重
type WeightedSource struct {
	Source exchange.CandleSource
	Weight int
}

type Config struct {
	Concurrency       int           // 每个数据源同时评估的合约数
	BatchDelay        time.Duration // 两个窗口之间的间隔
	HeartbeatInterval time.Duration
	MaxRows           int
	MaxLength         int
	TitlePrefix       string
	PersistTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Concurrency:       5,
		BatchDelay:        2 * time.Second,
		HeartbeatInterval: 4 * time.Hour,
		MaxRows:           10,
		MaxLength:         30000,
		TitlePrefix:       "Radar",
		PersistTimeout:    10 * time.Second,
	}
}

// Commentator 对本轮异动给出简短点评
type Commentator interface {
	Comment(ctx context.Context, findings []strategy.Finding) (string, error)
}

// sourceStat 单个数据源本轮的扫描情况
type sourceStat struct {
	Source       string
	UniverseSize int
	Scanned      int
	Failed       int
	Illiquid     int
	RefreshErr   error
}
