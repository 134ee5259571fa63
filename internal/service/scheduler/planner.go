package scheduler

import (
	"math/rand"
	"sort"
	"time"

	"github.com/KNICEX/volume-radar/internal/entity"
	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/samber/lo"
)

type Mode string

const (
	// ModeRotate 按游标轮询, 默认模式
	ModeRotate Mode = "rotate"
	// ModeRandom 每次随机抽样, 不保证覆盖, 游标不动
	ModeRandom Mode = "random"
)

// Pool 一个数据源本次可以选择的合约
type Pool struct {
	Source      string
	Weight      int
	Instruments []exchange.Instrument
	RefreshedAt time.Time
}

type Assignment struct {
	Source       string
	Batch        []exchange.Instrument
	UniverseSize int
	Cursor       entity.ScanCursor // 推进后的游标
}

type Plan struct {
	Assignments []Assignment
}

func (p Plan) Total() int {
	return lo.SumBy(p.Assignments, func(item Assignment) int {
		return len(item.Batch)
	})
}

func (p Plan) Batches() [][]exchange.Instrument {
	return lo.Map(p.Assignments, func(item Assignment, index int) []exchange.Instrument {
		return item.Batch
	})
}

type Planner struct {
	batchSize int
	mode      Mode
	rnd       *rand.Rand
}

type Option func(p *Planner)

func WithRand(rnd *rand.Rand) Option {
	return func(p *Planner) {
		p.rnd = rnd
	}
}

func NewPlanner(batchSize int, mode Mode, opts ...Option) *Planner {
	if mode == "" {
		mode = ModeRotate
	}
	p := &Planner{
		batchSize: batchSize,
		mode:      mode,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rnd == nil {
		p.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p
}

// Plan 分配本次各个数据源的扫描批次, 返回的新状态要等到运行结束才写回
func (p *Planner) Plan(state entity.State, pools []Pool) (Plan, entity.State) {
	shares := Allocate(p.batchSize,
		lo.Map(pools, func(item Pool, index int) int { return item.Weight }),
		lo.Map(pools, func(item Pool, index int) int { return len(item.Instruments) }),
	)

	next := state.Clone()
	plan := Plan{Assignments: make([]Assignment, 0, len(pools))}
	for i, pool := range pools {
		cursor := state.Cursor(pool.Source)
		if !pool.RefreshedAt.IsZero() {
			cursor.LastUniverseRefreshAt = pool.RefreshedAt
		}

		var batch []exchange.Instrument
		switch p.mode {
		case ModeRandom:
			batch = p.sample(pool.Instruments, shares[i])
		default:
			batch, cursor = SelectBatch(cursor, pool.Instruments, shares[i])
		}
		cursor.Source = pool.Source
		next = next.WithCursor(cursor)
		plan.Assignments = append(plan.Assignments, Assignment{
			Source:       pool.Source,
			Batch:        batch,
			UniverseSize: len(pool.Instruments),
			Cursor:       cursor,
		})
	}
	return plan, next
}

// sample 无放回随机抽样, 结果保持列表顺序
func (p *Planner) sample(universe []exchange.Instrument, size int) []exchange.Instrument {
	size = min(size, len(universe))
	if size <= 0 {
		return nil
	}
	idx := p.rnd.Perm(len(universe))[:size]
	sort.Ints(idx)
	return lo.Map(idx, func(i int, _ int) exchange.Instrument {
		return universe[i]
	})
}
