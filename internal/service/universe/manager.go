package universe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KNICEX/volume-radar/internal/entity"
	"github.com/KNICEX/volume-radar/internal/repo"
	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/samber/lo"
)

// ErrRefreshFailed 拉取合约列表失败, 返回的是旧缓存 (可能为空)
var ErrRefreshFailed = errors.New("universe refresh failed")

// Universe 某个数据源一次运行使用的合约列表快照, 只读
type Universe struct {
	Source      string
	Instruments []exchange.Instrument
	RefreshedAt time.Time
	Refreshed   bool // 本次是否重新拉取
}

func (u Universe) Len() int {
	return len(u.Instruments)
}

type Manager struct {
	repo   repo.UniverseRepo
	filter Filter
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

type Option func(m *Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(r repo.UniverseRepo, ttl time.Duration, filter Filter, opts ...Option) *Manager {
	m := &Manager{
		repo:   r,
		filter: filter,
		ttl:    ttl,
		now:    time.Now,
		logger: slog.With("component", "universe"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RefreshIfStale 缓存为空或者超过 ttl 时重新拉取, 失败时返回旧缓存和 ErrRefreshFailed
func (m *Manager) RefreshIfStale(ctx context.Context, src exchange.CandleSource, lastRefreshAt time.Time) (Universe, error) {
	name := src.Name()
	cached := m.cached(ctx, name)
	now := m.now()

	if len(cached) > 0 && now.Sub(lastRefreshAt) <= m.ttl {
		return Universe{Source: name, Instruments: cached, RefreshedAt: lastRefreshAt}, nil
	}

	list, err := src.ListInstruments(ctx)
	if err != nil {
		return Universe{Source: name, Instruments: cached, RefreshedAt: lastRefreshAt},
			fmt.Errorf("%w: %s: %w", ErrRefreshFailed, name, err)
	}
	instruments := m.filter.Apply(list)
	m.logger.Info("universe refreshed", "source", name, "listed", len(list), "kept", len(instruments))

	if err := m.repo.Replace(ctx, name, toSymbols(instruments)); err != nil {
		m.logger.Error("failed to save universe", "source", name, "error", err)
	}
	return Universe{Source: name, Instruments: instruments, RefreshedAt: now, Refreshed: true}, nil
}

// cached 读取失败当作没有缓存
func (m *Manager) cached(ctx context.Context, source string) []exchange.Instrument {
	symbols, err := m.repo.Find(ctx, source)
	if err != nil {
		m.logger.Warn("failed to read cached universe", "source", source, "error", err)
		return nil
	}
	return lo.Map(symbols, func(item entity.Symbol, index int) exchange.Instrument {
		return exchange.Instrument{
			Source: source,
			ID:     item.InstId,
			Base:   item.Base,
			Quote:  item.Quote,
			Live:   true,
		}
	})
}

func toSymbols(instruments []exchange.Instrument) []entity.Symbol {
	return lo.Map(instruments, func(item exchange.Instrument, index int) entity.Symbol {
		return entity.Symbol{
			Source:   item.Source,
			InstId:   item.ID,
			Base:     item.Base,
			Quote:    item.Quote,
			Position: index,
		}
	})
}
