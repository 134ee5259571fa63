package repo

import (
	"context"

	"github.com/KNICEX/volume-radar/internal/entity"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateRepo 保存扫描游标和运行统计, 不存在时 Load 返回 found = false
type StateRepo interface {
	Load(ctx context.Context) (state entity.State, found bool, err error)
	Save(ctx context.Context, state entity.State) error
}

type stateRepo struct {
	db *gorm.DB
}

func NewStateRepo(db *gorm.DB) StateRepo {
	return &stateRepo{
		db: db,
	}
}

func (r *stateRepo) Load(ctx context.Context) (entity.State, bool, error) {
	var cursors []entity.ScanCursor
	if err := r.db.WithContext(ctx).Find(&cursors).Error; err != nil {
		return entity.NewState(), false, err
	}
	var stats []entity.RunStat
	if err := r.db.WithContext(ctx).Where("id = ?", entity.RunStatId).Limit(1).Find(&stats).Error; err != nil {
		return entity.NewState(), false, err
	}
	if len(cursors) == 0 && len(stats) == 0 {
		return entity.NewState(), false, nil
	}

	state := entity.NewState()
	state.Cursors = lo.SliceToMap(cursors, func(item entity.ScanCursor) (string, entity.ScanCursor) {
		return item.Source, item
	})
	if len(stats) > 0 {
		state.Stats = stats[0]
	}
	state.Stats.Id = entity.RunStatId
	return state, true, nil
}

func (r *stateRepo) Save(ctx context.Context, state entity.State) error {
	cursors := lo.Values(state.Cursors)
	stat := state.Stats
	stat.Id = entity.RunStatId
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(cursors) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&cursors).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&stat).Error
	})
}
