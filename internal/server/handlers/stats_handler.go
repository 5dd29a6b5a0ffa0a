package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/service/reporting"
)

// ReportingService is the stats surface the HTTP layer needs.
type ReportingService interface {
	DailyStats(ctx context.Context, owner, cattleID primitive.ObjectID, from, to string) ([]models.DailyStat, error)
	RangeSummary(ctx context.Context, owner, cattleID primitive.ObjectID, from, to string) (*models.RangeSummary, error)
	SummaryByCattle(ctx context.Context, owner primitive.ObjectID, from, to string) ([]models.CattleSummary, error)
	RevenueDaily(ctx context.Context, owner primitive.ObjectID, q reporting.RevenueQuery) ([]models.RevenueDay, error)
	RevenueWeekly(ctx context.Context, owner primitive.ObjectID, q reporting.RevenueQuery) ([]models.RevenueWeek, error)
	RevenueMonthly(ctx context.Context, owner primitive.ObjectID, q reporting.RevenueQuery) ([]models.RevenueMonth, error)
}

// StatsHandler serves the read-only /api/milk/stats routes.
type StatsHandler struct {
	svc    ReportingService
	logger *zap.Logger
}

// NewStatsHandler constructs the stats handler.
func NewStatsHandler(svc ReportingService, logger *zap.Logger) *StatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{svc: svc, logger: logger}
}

type rangeQuery struct {
	From string `form:"from" binding:"required,ymd"`
	To   string `form:"to" binding:"required,ymd"`
}

type cattleRangeQuery struct {
	CattleID string `form:"cattleId" binding:"required,objectid"`
	rangeQuery
}

type revenueQuery struct {
	CattleID string `form:"cattleId" binding:"omitempty,objectid"`
	rangeQuery
}

func (q revenueQuery) toService(rate *float64) reporting.RevenueQuery {
	out := reporting.RevenueQuery{From: q.From, To: q.To, Rate: rate}
	if id, err := primitive.ObjectIDFromHex(q.CattleID); err == nil {
		out.CattleID = &id
	}
	return out
}

// rateParam reads the optional rate override. A present but empty or
// non-numeric value is rejected rather than treated as zero.
func rateParam(c *gin.Context) (*float64, bool) {
	raw, ok := c.GetQuery("rate")
	if !ok {
		return nil, true
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || rate < 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
		validationFailed(c, []models.FieldError{{Field: "rate", Message: "rate must be a number >= 0"}})
		return nil, false
	}
	return &rate, true
}

// Daily returns per-day stats of one cattle.
func (h *StatsHandler) Daily(c *gin.Context) {
	var q cattleRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	cattleID, _ := primitive.ObjectIDFromHex(q.CattleID)
	days, err := h.svc.DailyStats(c.Request.Context(), currentUserID(c), cattleID, q.From, q.To)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "ok", days)
}

// Summary returns range totals of one cattle.
func (h *StatsHandler) Summary(c *gin.Context) {
	var q cattleRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	cattleID, _ := primitive.ObjectIDFromHex(q.CattleID)
	sum, err := h.svc.RangeSummary(c.Request.Context(), currentUserID(c), cattleID, q.From, q.To)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "ok", sum)
}

// SummaryByCattle returns per-cattle totals and realized revenue.
func (h *StatsHandler) SummaryByCattle(c *gin.Context) {
	var q rangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	rows, err := h.svc.SummaryByCattle(c.Request.Context(), currentUserID(c), q.From, q.To)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "ok", rows)
}

// RevenueDaily returns revenue per day.
func (h *StatsHandler) RevenueDaily(c *gin.Context) {
	revenue(c, h, h.svc.RevenueDaily)
}

// RevenueWeekly returns revenue per ISO week.
func (h *StatsHandler) RevenueWeekly(c *gin.Context) {
	revenue(c, h, h.svc.RevenueWeekly)
}

// RevenueMonthly returns revenue per calendar month.
func (h *StatsHandler) RevenueMonthly(c *gin.Context) {
	revenue(c, h, h.svc.RevenueMonthly)
}

func revenue[T any](c *gin.Context, h *StatsHandler, fold func(context.Context, primitive.ObjectID, reporting.RevenueQuery) ([]T, error)) {
	var q revenueQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	rate, ok := rateParam(c)
	if !ok {
		return
	}

	rows, err := fold(c.Request.Context(), currentUserID(c), q.toService(rate))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok", "data": rows, "appliedRate": rate})
}
