package ioc

import (
	"log/slog"

	"github.com/KNICEX/volume-radar/internal/config"
	"github.com/KNICEX/volume-radar/internal/repo"
)

type Repos struct {
	State    repo.StateRepo
	Universe repo.UniverseRepo
	Spike    repo.SpikeRepo
}

// InitRepos state.driver 为 redis 时全部存在 redis, 否则存数据库
// 数据库打不开时退回内存实现, 这一轮照常扫描, 但状态不会保留
func InitRepos(cfg config.State) Repos {
	if cfg.Driver == config.DriverRedis {
		rdb := InitRedis(cfg.Redis)
		prefix := cfg.Redis.KeyPrefix
		return Repos{
			State:    repo.NewRedisStateRepo(rdb, prefix),
			Universe: repo.NewRedisUniverseRepo(rdb, prefix),
			Spike:    repo.NewRedisSpikeRepo(rdb, prefix),
		}
	}

	db, err := InitDB(cfg)
	if err != nil {
		slog.Error("failed to open state db, state will not be persisted", "driver", cfg.Driver, "error", err)
		return Repos{
			State:    repo.NewMemoryStateRepo(),
			Universe: repo.NewMemoryUniverseRepo(),
			Spike:    repo.NewMemorySpikeRepo(),
		}
	}
	return Repos{
		State:    repo.NewStateRepo(db),
		Universe: repo.NewUniverseRepo(db),
		Spike:    repo.NewSpikeRepo(db),
	}
}
