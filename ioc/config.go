package ioc

import (
	"github.com/KNICEX/volume-radar/internal/config"
)

func InitConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
