package mappers

import (
	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/postgres/models"
)

func ToGORMRate(rate *domain.Rate) *models.RateModel {
	return &models.RateModel{
		Pair:      rate.Pair,
		Rate:      rate.Rate,
		Timestamp: rate.Timestamp,
		Source:    rate.Source,
	}
}

func ToDomainRate(model *models.RateModel) *domain.Rate {
	return &domain.Rate{
		Pair:      model.Pair,
		Rate:      model.Rate,
		Timestamp: model.Timestamp.UTC(),
		Source:    model.Source,
	}
}
