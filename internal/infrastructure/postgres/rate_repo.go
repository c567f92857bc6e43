package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultRateRepository struct {
	DB *gorm.DB
}

func NewDefaultRateRepository(db *gorm.DB) *DefaultRateRepository {
	return &DefaultRateRepository{
		DB: db,
	}
}

func (r *DefaultRateRepository) Save(ctx context.Context, rate *domain.Rate) error {
	rateModel := mappers.ToGORMRate(rate)
	if err := r.DB.WithContext(ctx).Create(rateModel).Error; err != nil {
		return &domain.PersistenceError{Err: err}
	}
	return nil
}

func (r *DefaultRateRepository) FindLatestByPair(ctx context.Context, pair string) (*domain.Rate, error) {
	var rateModel models.RateModel
	err := r.DB.WithContext(ctx).
		Where("pair = ?", pair).
		Order("timestamp DESC").
		First(&rateModel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return mappers.ToDomainRate(&rateModel), nil
}

func (r *DefaultRateRepository) FindByPairAndDateRange(ctx context.Context, pair string, start, end time.Time) ([]domain.Rate, error) {
	var rateModels []models.RateModel
	err := r.DB.WithContext(ctx).
		Where("pair = ? AND timestamp BETWEEN ? AND ?", pair, start, end).
		Order("timestamp ASC").
		Find(&rateModels).Error
	if err != nil {
		return nil, err
	}

	rates := make([]domain.Rate, len(rateModels))
	for i := range rateModels {
		rates[i] = *mappers.ToDomainRate(&rateModels[i])
	}

	return rates, nil
}
