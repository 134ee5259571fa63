package repo

import (
	"github.com/KNICEX/volume-radar/internal/entity"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.ScanCursor{}, &entity.RunStat{}, &entity.Symbol{}, &entity.Spike{})
}
