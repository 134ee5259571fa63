package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/KNICEX/volume-radar/internal/entity"
	goredis "github.com/go-redis/redis/v8"
	"github.com/samber/lo"
)

const maxRedisSpikes = 5000

// redisKeys 所有 key 共用一个前缀, 方便多个实例共用一个 redis
type redisKeys struct {
	prefix string
}

func (k redisKeys) state() string {
	return k.prefix + ":state"
}

func (k redisKeys) universe(source string) string {
	return k.prefix + ":universe:" + source
}

func (k redisKeys) spikes() string {
	return k.prefix + ":spikes"
}

func (k redisKeys) spikeSeq() string {
	return k.prefix + ":spikes:seq"
}

type redisStateRepo struct {
	rdb  *goredis.Client
	keys redisKeys
}

func NewRedisStateRepo(rdb *goredis.Client, prefix string) StateRepo {
	return &redisStateRepo{rdb: rdb, keys: redisKeys{prefix: prefix}}
}

func (r *redisStateRepo) Load(ctx context.Context) (entity.State, bool, error) {
	data, err := r.rdb.Get(ctx, r.keys.state()).Bytes()
	if errors.Is(err, goredis.Nil) {
		return entity.NewState(), false, nil
	}
	if err != nil {
		return entity.NewState(), false, fmt.Errorf("redis get state: %w", err)
	}
	state, err := entity.DecodeState(data)
	if err != nil {
		return entity.NewState(), false, err
	}
	return state, true, nil
}

func (r *redisStateRepo) Save(ctx context.Context, state entity.State) error {
	data, err := entity.EncodeState(state)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.keys.state(), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set state: %w", err)
	}
	return nil
}

type redisUniverseRepo struct {
	rdb  *goredis.Client
	keys redisKeys
}

func NewRedisUniverseRepo(rdb *goredis.Client, prefix string) UniverseRepo {
	return &redisUniverseRepo{rdb: rdb, keys: redisKeys{prefix: prefix}}
}

func (r *redisUniverseRepo) Find(ctx context.Context, source string) ([]entity.Symbol, error) {
	data, err := r.rdb.Get(ctx, r.keys.universe(source)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get universe %s: %w", source, err)
	}
	var symbols []entity.Symbol
	if err := json.Unmarshal(data, &symbols); err != nil {
		return nil, fmt.Errorf("decode universe %s: %w", source, err)
	}
	return symbols, nil
}

func (r *redisUniverseRepo) Replace(ctx context.Context, source string, symbols []entity.Symbol) error {
	data, err := json.Marshal(normalizeSymbols(source, symbols))
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.keys.universe(source), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set universe %s: %w", source, err)
	}
	return nil
}

// redisSpikeRepo 只保留最近 maxRedisSpikes 条
type redisSpikeRepo struct {
	rdb  *goredis.Client
	keys redisKeys
}

func NewRedisSpikeRepo(rdb *goredis.Client, prefix string) SpikeRepo {
	return &redisSpikeRepo{rdb: rdb, keys: redisKeys{prefix: prefix}}
}

func (r *redisSpikeRepo) CreateBatch(ctx context.Context, spikes []entity.Spike) error {
	if len(spikes) == 0 {
		return nil
	}
	last, err := r.rdb.IncrBy(ctx, r.keys.spikeSeq(), int64(len(spikes))).Result()
	if err != nil {
		return fmt.Errorf("redis incr spike seq: %w", err)
	}
	values, err := encodeSpikes(spikes, last-int64(len(spikes))+1, time.Now())
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.RPush(ctx, r.keys.spikes(), values...)
		pipe.LTrim(ctx, r.keys.spikes(), -maxRedisSpikes, -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis push spikes: %w", err)
	}
	return nil
}

func (r *redisSpikeRepo) FindSince(ctx context.Context, since time.Time) ([]entity.Spike, error) {
	raw, err := r.rdb.LRange(ctx, r.keys.spikes(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis range spikes: %w", err)
	}
	return decodeSpikesSince(raw, since)
}

func encodeSpikes(spikes []entity.Spike, firstId int64, now time.Time) ([]any, error) {
	values := make([]any, 0, len(spikes))
	for i, s := range spikes {
		s.Id = firstId + int64(i)
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		data, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		values = append(values, string(data))
	}
	return values, nil
}

func decodeSpikesSince(raw []string, since time.Time) ([]entity.Spike, error) {
	spikes := make([]entity.Spike, 0, len(raw))
	for _, item := range raw {
		var s entity.Spike
		if err := json.Unmarshal([]byte(item), &s); err != nil {
			return nil, fmt.Errorf("decode spike: %w", err)
		}
		spikes = append(spikes, s)
	}
	return lo.Filter(spikes, func(item entity.Spike, index int) bool {
		return !item.CreatedAt.Before(since)
	}), nil
}
