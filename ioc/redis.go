package ioc

import (
	"github.com/KNICEX/volume-radar/internal/config"
	goredis "github.com/go-redis/redis/v8"
)

// InitRedis 不在这里 ping, 连接失败会在 Load/Save 时返回错误
func InitRedis(cfg config.Redis) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
