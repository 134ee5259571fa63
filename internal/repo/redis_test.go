package repo

import (
	"context"
	"testing"
	"time"

	"github.com/KNICEX/volume-radar/internal/entity"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisKeys(t *testing.T) {
	k := redisKeys{prefix: "radar"}
	assert.Equal(t, "radar:state", k.state())
	assert.Equal(t, "radar:universe:okx", k.universe("okx"))
	assert.Equal(t, "radar:spikes", k.spikes())
}

func TestEncodeDecodeSpikes(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	values, err := encodeSpikes([]entity.Spike{
		{InstId: "AAAUSDT", CreatedAt: now.Add(-2 * time.Hour)},
		{InstId: "BBBUSDT"},
	}, 10, now)
	require.NoError(t, err)
	require.Len(t, values, 2)

	raw := make([]string, len(values))
	for i, v := range values {
		raw[i] = v.(string)
	}
	got, err := decodeSpikesSince(raw, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BBBUSDT", got[0].InstId)
	assert.Equal(t, int64(11), got[0].Id)
	assert.True(t, got[0].CreatedAt.Equal(now))

	_, err = decodeSpikesSince([]string{"{"}, now)
	assert.Error(t, err)
}

func TestRedisStateRepo_Unreachable(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	r := NewRedisStateRepo(rdb, "radar")
	state, found, err := r.Load(context.Background())
	require.Error(t, err)
	assert.False(t, found)
	assert.NotNil(t, state.Cursors)
}

func newMiniRedis(t *testing.T) *goredis.Client {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisStateRepo(t *testing.T) {
	ctx := context.Background()
	r := NewRedisStateRepo(newMiniRedis(t), "radar")

	state, found, err := r.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, state.Cursors)

	refreshAt := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	state = state.
		WithCursor(entity.ScanCursor{Source: "binance", LastIndex: 2, LastUniverseRefreshAt: refreshAt}).
		WithCursor(entity.ScanCursor{Source: "okx", LastIndex: 40})
	state.Stats.TotalRuns = 3
	require.NoError(t, r.Save(ctx, state))

	loaded, found, err := r.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, loaded.Cursor("binance").LastIndex)
	assert.True(t, loaded.Cursor("binance").LastUniverseRefreshAt.Equal(refreshAt))
	assert.Equal(t, 40, loaded.Cursor("okx").LastIndex)
	assert.Equal(t, int64(3), loaded.Stats.TotalRuns)

	// 另一个前缀互不影响
	_, found, err = NewRedisStateRepo(newMiniRedis(t), "other").Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisUniverseRepo(t *testing.T) {
	ctx := context.Background()
	r := NewRedisUniverseRepo(newMiniRedis(t), "radar")

	got, err := r.Find(ctx, "okx")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, r.Replace(ctx, "okx", []entity.Symbol{
		{InstId: "CCC-USDT-SWAP"}, {InstId: "AAA-USDT-SWAP"}, {InstId: "BBB-USDT-SWAP"},
	}))
	got, err = r.Find(ctx, "okx")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"CCC-USDT-SWAP", "AAA-USDT-SWAP", "BBB-USDT-SWAP"}, []string{got[0].InstId, got[1].InstId, got[2].InstId})
	assert.Equal(t, 2, got[2].Position)
	assert.Equal(t, "okx", got[0].Source)

	require.NoError(t, r.Replace(ctx, "okx", []entity.Symbol{{InstId: "DDD-USDT-SWAP"}}))
	got, err = r.Find(ctx, "okx")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "DDD-USDT-SWAP", got[0].InstId)

	other, err := r.Find(ctx, "binance")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRedisSpikeRepo(t *testing.T) {
	ctx := context.Background()
	rdb := newMiniRedis(t)
	r := NewRedisSpikeRepo(rdb, "radar")
	now := time.Now()

	require.NoError(t, r.CreateBatch(ctx, nil))
	require.NoError(t, r.CreateBatch(ctx, []entity.Spike{
		{InstId: "OLDUSDT", CreatedAt: now.Add(-48 * time.Hour)},
		{InstId: "AAAUSDT", Ratio: "12.5"},
	}))
	require.NoError(t, r.CreateBatch(ctx, []entity.Spike{{InstId: "BBBUSDT"}}))

	got, err := r.FindSince(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "AAAUSDT", got[0].InstId)
	assert.Equal(t, "12.5", got[0].Ratio)
	assert.Equal(t, int64(2), got[0].Id)
	assert.Equal(t, int64(3), got[1].Id)
}

func TestRedisSpikeRepo_Cap(t *testing.T) {
	ctx := context.Background()
	rdb := newMiniRedis(t)
	r := NewRedisSpikeRepo(rdb, "radar")

	spikes := make([]entity.Spike, maxRedisSpikes+10)
	for i := range spikes {
		spikes[i] = entity.Spike{InstId: "AAAUSDT"}
	}
	require.NoError(t, r.CreateBatch(ctx, spikes))

	n, err := rdb.LLen(ctx, redisKeys{prefix: "radar"}.spikes()).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(maxRedisSpikes), n)

	got, err := r.FindSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, maxRedisSpikes)
	// 最旧的 10 条被裁掉
	assert.Equal(t, int64(11), got[0].Id)
	assert.Equal(t, int64(maxRedisSpikes+10), got[len(got)-1].Id)
}
