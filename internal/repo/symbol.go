package repo

import (
	"context"

	"github.com/KNICEX/volume-radar/internal/entity"
	"gorm.io/gorm"
)

// UniverseRepo 每个数据源最近一次刷新的合约列表
type UniverseRepo interface {
	// Find 按 Position 排序, 没有快照时返回空
	Find(ctx context.Context, source string) ([]entity.Symbol, error)
	// Replace 整体替换某个数据源的快照
	Replace(ctx context.Context, source string, symbols []entity.Symbol) error
}

type symbolRepo struct {
	db *gorm.DB
}

func NewUniverseRepo(db *gorm.DB) UniverseRepo {
	return &symbolRepo{
		db: db,
	}
}

func (repo *symbolRepo) Find(ctx context.Context, source string) ([]entity.Symbol, error) {
	var symbols []entity.Symbol
	err := repo.db.WithContext(ctx).Where("source = ?", source).Order("position").Find(&symbols).Error
	if err != nil {
		return nil, err
	}
	return symbols, nil
}

func (repo *symbolRepo) Replace(ctx context.Context, source string, symbols []entity.Symbol) error {
	rows := normalizeSymbols(source, symbols)
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source = ?", source).Delete(&entity.Symbol{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, 200).Error
	})
}

func normalizeSymbols(source string, symbols []entity.Symbol) []entity.Symbol {
	rows := make([]entity.Symbol, len(symbols))
	for i, s := range symbols {
		s.Id = 0
		s.Source = source
		s.Position = i
		rows[i] = s
	}
	return rows
}
