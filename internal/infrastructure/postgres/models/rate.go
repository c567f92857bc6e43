package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateModel maps onto the currency_rates table created by the SQL migrations.
type RateModel struct {
	ID        uint            `gorm:"primaryKey"`
	Pair      string          `gorm:"size:10;not null"`
	Rate      decimal.Decimal `gorm:"type:numeric(15,8);not null"`
	Timestamp time.Time       `gorm:"not null"`
	Source    string          `gorm:"size:50;default:binance"`
}

func (RateModel) TableName() string {
	return "currency_rates"
}
