package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/service/milk"
)

// LedgerService is the production and sales surface the HTTP layer needs.
type LedgerService interface {
	SetProduction(ctx context.Context, owner primitive.ObjectID, in milk.ProductionInput) (*models.ProductionRecord, error)
	DeleteProduction(ctx context.Context, owner, id primitive.ObjectID) error
	AddSale(ctx context.Context, owner primitive.ObjectID, in milk.SaleInput) (*models.SaleRecord, error)
	DeleteSale(ctx context.Context, owner, id primitive.ObjectID) error
}

// MilkHandler serves the ledger write routes under /api/milk.
type MilkHandler struct {
	svc    LedgerService
	logger *zap.Logger
}

// NewMilkHandler constructs the ledger handler.
func NewMilkHandler(svc LedgerService, logger *zap.Logger) *MilkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MilkHandler{svc: svc, logger: logger}
}

type productionRequest struct {
	CattleID  string   `json:"cattleId" binding:"required,objectid"`
	LocalDate string   `json:"localDate" binding:"required,ymd"`
	Shift     string   `json:"shift" binding:"required,oneof=morning evening"`
	Liters    *float64 `json:"liters" binding:"required,gte=0"`
	Notes     string   `json:"notes" binding:"max=500"`
}

type saleRequest struct {
	CattleID      string   `json:"cattleId" binding:"required,objectid"`
	LocalDate     string   `json:"localDate" binding:"required,ymd"`
	Liters        *float64 `json:"liters" binding:"required,gte=0"`
	PricePerLiter *float64 `json:"pricePerLiter" binding:"required,gte=0"`
	Buyer         string   `json:"buyer" binding:"max=120"`
	Notes         string   `json:"notes" binding:"max=500"`
	When          string   `json:"when"`
}

// SetProduction upserts the record of one shift.
func (h *MilkHandler) SetProduction(c *gin.Context) {
	var req productionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	cattleID, _ := primitive.ObjectIDFromHex(req.CattleID)
	rec, err := h.svc.SetProduction(c.Request.Context(), currentUserID(c), milk.ProductionInput{
		CattleID:  cattleID,
		LocalDate: req.LocalDate,
		Shift:     models.Shift(req.Shift),
		Liters:    *req.Liters,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Production saved.", rec)
}

// DeleteProduction removes a shift record unless sales depend on it.
func (h *MilkHandler) DeleteProduction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteProduction(c.Request.Context(), currentUserID(c), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Production deleted.", gin.H{"id": id})
}

// AddSale records a sale against the day's production.
func (h *MilkHandler) AddSale(c *gin.Context) {
	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	cattleID, _ := primitive.ObjectIDFromHex(req.CattleID)
	sale, err := h.svc.AddSale(c.Request.Context(), currentUserID(c), milk.SaleInput{
		CattleID:      cattleID,
		LocalDate:     req.LocalDate,
		Liters:        *req.Liters,
		PricePerLiter: *req.PricePerLiter,
		Buyer:         req.Buyer,
		Notes:         req.Notes,
		When:          req.When,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Sale added.", sale)
}

// DeleteSale removes one sale.
func (h *MilkHandler) DeleteSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteSale(c.Request.Context(), currentUserID(c), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Sale deleted.", gin.H{"id": id})
}
