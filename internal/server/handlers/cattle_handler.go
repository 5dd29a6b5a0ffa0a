package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/service/cattle"
)

// CattleService is the registry surface the HTTP layer needs.
type CattleService interface {
	Create(ctx context.Context, owner primitive.ObjectID, in cattle.CreateInput) (*models.Cattle, error)
	List(ctx context.Context, owner primitive.ObjectID, params cattle.ListParams) (*cattle.Page, error)
	Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Cattle, error)
	Update(ctx context.Context, owner, id primitive.ObjectID, in cattle.UpdateInput) (*models.Cattle, error)
	Delete(ctx context.Context, owner, id primitive.ObjectID) error
}

// CattleHandler serves the /api/cattle routes.
type CattleHandler struct {
	svc    CattleService
	logger *zap.Logger
}

// NewCattleHandler constructs the registry handler.
func NewCattleHandler(svc CattleService, logger *zap.Logger) *CattleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CattleHandler{svc: svc, logger: logger}
}

type createCattleRequest struct {
	TagNo     string `json:"tagNo" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Breed     string `json:"breed" binding:"max=100"`
	Notes     string `json:"notes" binding:"max=2000"`
	EntryDate string `json:"entryDate"`
}

type updateCattleRequest struct {
	TagNo     *string `json:"tagNo"`
	Name      *string `json:"name"`
	Breed     *string `json:"breed" binding:"omitempty,max=100"`
	Notes     *string `json:"notes" binding:"omitempty,max=2000"`
	EntryDate *string `json:"entryDate"`
}

type listCattleQuery struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	Q     string `form:"q"`
	Breed string `form:"breed"`
	Sort  string `form:"sort"`
}

// Create registers a cattle for the caller.
func (h *CattleHandler) Create(c *gin.Context) {
	var req createCattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), currentUserID(c), cattle.CreateInput{
		TagNo:     req.TagNo,
		Name:      req.Name,
		Breed:     req.Breed,
		Notes:     req.Notes,
		EntryDate: req.EntryDate,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	respond(c, http.StatusCreated, "Cattle added successfully.", created)
}

// List returns one page of the caller's cattle.
func (h *CattleHandler) List(c *gin.Context) {
	var q listCattleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	page, err := h.svc.List(c.Request.Context(), currentUserID(c), cattle.ListParams{
		Page:  q.Page,
		Limit: q.Limit,
		Query: q.Q,
		Breed: q.Breed,
		Sort:  q.Sort,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "ok",
		"data":       page.Items,
		"pagination": page.Pagination,
	})
}

// Get returns one of the caller's cattle.
func (h *CattleHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	found, err := h.svc.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "ok", found)
}

// Update applies a partial update.
func (h *CattleHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateCattleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindFailed(c, err)
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), currentUserID(c), id, cattle.UpdateInput(req))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Cattle updated successfully.", updated)
}

// Delete removes one of the caller's cattle.
func (h *CattleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Cattle deleted successfully.", gin.H{"id": id})
}
