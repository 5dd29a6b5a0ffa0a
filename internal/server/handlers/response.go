package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/service/auth"
	"github.com/mamadbah2/dairy/internal/service/cattle"
	"github.com/mamadbah2/dairy/internal/service/milk"
	"github.com/mamadbah2/dairy/internal/service/reporting"
)

const msgInternal = "Internal server error."

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{"message": message, "data": data})
}

func validationFailed(c *gin.Context, errs []models.FieldError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": errs})
}

// bindFailed turns a gin binding error into the itemized 400 response.
func bindFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]models.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, models.FieldError{Field: fe.Field(), Message: describe(fe)})
		}
		validationFailed(c, fields)
		return
	}
	validationFailed(c, []models.FieldError{{Field: "body", Message: "malformed request: " + err.Error()}})
}

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		validationFailed(c, []models.FieldError{{Field: "id", Message: "id must be a valid id"}})
		return primitive.NilObjectID, false
	}
	return id, true
}

// writeError maps service errors onto the HTTP error taxonomy.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		verrs    models.ValidationErrors
		dupTag   *cattle.DuplicateTagError
		capacity *milk.CapacityError
		blocked  *milk.DeleteBlockedError
	)

	switch {
	case errors.As(err, &verrs):
		validationFailed(c, verrs)
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "Email is already registered"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
	case errors.Is(err, cattle.ErrNotFound),
		errors.Is(err, milk.ErrCattleNotFound),
		errors.Is(err, reporting.ErrCattleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Cattle not found"})
	case errors.Is(err, milk.ErrProductionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Production not found"})
	case errors.Is(err, milk.ErrSaleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Sale not found"})
	case errors.As(err, &dupTag):
		c.JSON(http.StatusConflict, gin.H{
			"message": "The tag number is already used by you. Please choose a different tagNo.",
			"details": gin.H{"tagNo": dupTag.TagNo},
		})
	case errors.Is(err, milk.ErrDuplicateShift):
		c.JSON(http.StatusConflict, gin.H{"message": "Duplicate production for this shift."})
	case errors.As(err, &capacity):
		c.JSON(http.StatusConflict, gin.H{"message": "Sale exceeds available production for the day.", "details": capacity})
	case errors.As(err, &blocked):
		c.JSON(http.StatusConflict, gin.H{"message": "Cannot delete. Sales for this day would exceed production.", "details": blocked})
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
	}
}
