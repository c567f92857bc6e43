package dto

import (
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
)

type RateResponse struct {
	Pair      string  `json:"pair"`
	Rate      float64 `json:"rate"`
	Timestamp string  `json:"timestamp"`
}

type Meta struct {
	Pair      string  `json:"pair"`
	Period    string  `json:"period"`
	Count     int     `json:"count"`
	Date      *string `json:"date,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
}

type RatesResponse struct {
	Data []RateResponse `json:"data"`
	Meta Meta           `json:"meta"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewRatesResponse(rates []domain.Rate, meta Meta) RatesResponse {
	data := make([]RateResponse, len(rates))
	for i, rate := range rates {
		data[i] = RateResponse{
			Pair:      rate.Pair,
			Rate:      rate.Rate.InexactFloat64(),
			Timestamp: rate.Timestamp.UTC().Format(time.RFC3339),
		}
	}
	meta.Count = len(rates)
	return RatesResponse{Data: data, Meta: meta}
}
