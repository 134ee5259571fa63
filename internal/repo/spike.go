package repo

import (
	"context"
	"time"

	"github.com/KNICEX/volume-radar/internal/entity"
	"gorm.io/gorm"
)

type SpikeRepo interface {
	CreateBatch(ctx context.Context, spikes []entity.Spike) error
	FindSince(ctx context.Context, since time.Time) ([]entity.Spike, error)
}

type spikeRepo struct {
	db *gorm.DB
}

func NewSpikeRepo(db *gorm.DB) SpikeRepo {
	return &spikeRepo{
		db: db,
	}
}

func (r *spikeRepo) CreateBatch(ctx context.Context, spikes []entity.Spike) error {
	if len(spikes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&spikes, 100).Error
}

func (r *spikeRepo) FindSince(ctx context.Context, since time.Time) ([]entity.Spike, error) {
	var spikes []entity.Spike
	err := r.db.WithContext(ctx).Where("created_at >= ?", since).Order("id").Find(&spikes).Error
	if err != nil {
		return nil, err
	}
	return spikes, nil
}
