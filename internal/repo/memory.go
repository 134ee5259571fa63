package repo

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/KNICEX/volume-radar/internal/entity"
	"github.com/samber/lo"
)

// 状态存储连不上时的兜底实现, 进程退出即丢失

type memoryStateRepo struct {
	mu    sync.Mutex
	state entity.State
	found bool
}

func NewMemoryStateRepo() StateRepo {
	return &memoryStateRepo{state: entity.NewState()}
}

func (r *memoryStateRepo) Load(ctx context.Context) (entity.State, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone(), r.found, nil
}

func (r *memoryStateRepo) Save(ctx context.Context, state entity.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state.Clone()
	r.found = true
	return nil
}

type memoryUniverseRepo struct {
	mu       sync.Mutex
	universe map[string][]entity.Symbol
}

func NewMemoryUniverseRepo() UniverseRepo {
	return &memoryUniverseRepo{universe: make(map[string][]entity.Symbol)}
}

func (r *memoryUniverseRepo) Find(ctx context.Context, source string) ([]entity.Symbol, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.universe[source]), nil
}

func (r *memoryUniverseRepo) Replace(ctx context.Context, source string, symbols []entity.Symbol) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.universe[source] = normalizeSymbols(source, symbols)
	return nil
}

type memorySpikeRepo struct {
	mu     sync.Mutex
	seq    int64
	spikes []entity.Spike
}

func NewMemorySpikeRepo() SpikeRepo {
	return &memorySpikeRepo{}
}

func (r *memorySpikeRepo) CreateBatch(ctx context.Context, spikes []entity.Spike) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, s := range spikes {
		r.seq++
		s.Id = r.seq
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		r.spikes = append(r.spikes, s)
	}
	return nil
}

func (r *memorySpikeRepo) FindSince(ctx context.Context, since time.Time) ([]entity.Spike, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Filter(r.spikes, func(item entity.Spike, index int) bool {
		return !item.CreatedAt.Before(since)
	}), nil
}
