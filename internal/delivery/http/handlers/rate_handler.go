package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/delivery/http/dto"
	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/LavaJover/shvark-rates-service/internal/usecase"
	"github.com/gin-gonic/gin"
)

type RateHandler struct {
	uc     usecase.RateUsecase
	dbPing func(ctx context.Context) error
}

func NewRateHandler(uc usecase.RateUsecase, dbPing func(ctx context.Context) error) *RateHandler {
	return &RateHandler{uc: uc, dbPing: dbPing}
}

func (h *RateHandler) RegisterRoutes(router *gin.Engine, middlewares ...gin.HandlerFunc) {
	rates := router.Group("/api/rates", middlewares...)
	{
		rates.GET("/last-24h", h.GetLast24HoursRates)
		rates.GET("/day", h.GetDailyRates)
	}

	router.GET("/health", h.Health)
}

// GetLast24HoursRates serves GET /api/rates/last-24h?pair=EUR/BTC
func (h *RateHandler) GetLast24HoursRates(c *gin.Context) {
	pair := c.Query("pair")
	if pair == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "pair query parameter is required"})
		return
	}

	rates, err := h.uc.GetLast24HoursRates(c.Request.Context(), pair)
	if err != nil {
		writeError(c, err)
		return
	}

	meta := dto.Meta{Pair: pair, Period: "24h"}
	if len(rates) > 0 {
		start := rates[0].Timestamp.UTC().Format(time.RFC3339)
		end := rates[len(rates)-1].Timestamp.UTC().Format(time.RFC3339)
		meta.StartTime = &start
		meta.EndTime = &end
	}

	c.JSON(http.StatusOK, dto.NewRatesResponse(rates, meta))
}

// GetDailyRates serves GET /api/rates/day?pair=EUR/BTC&date=2026-08-31
func (h *RateHandler) GetDailyRates(c *gin.Context) {
	pair := c.Query("pair")
	if pair == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "pair query parameter is required"})
		return
	}

	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "date query parameter is required"})
		return
	}

	rates, err := h.uc.GetDailyRates(c.Request.Context(), pair, date)
	if err != nil {
		writeError(c, err)
		return
	}

	meta := dto.Meta{Pair: pair, Period: "day", Date: &date}
	if len(rates) > 0 {
		start := rates[0].Timestamp.UTC().Format(time.RFC3339)
		end := rates[len(rates)-1].Timestamp.UTC().Format(time.RFC3339)
		meta.StartTime = &start
		meta.EndTime = &end
	}

	c.JSON(http.StatusOK, dto.NewRatesResponse(rates, meta))
}

// Health reports liveness plus dependency reachability. Always 200: an
// unreachable Binance degrades the ingestion loop, not the query API.
func (h *RateHandler) Health(c *gin.Context) {
	dbOK := true
	if h.dbPing != nil {
		dbOK = h.dbPing(c.Request.Context()) == nil
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"binance":  h.uc.Healthy(c.Request.Context()),
		"database": dbOK,
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNoDataFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUnsupportedPair), errors.Is(err, domain.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}
