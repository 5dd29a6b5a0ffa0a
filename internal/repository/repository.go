package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

// ErrNotFound is returned when no document matches the (owner-scoped) filter.
var ErrNotFound = errors.New("document not found")

// ErrDuplicate is returned when a write violates a unique index.
var ErrDuplicate = errors.New("duplicate key")

// Store is the persistence surface shared by the MongoDB and in-memory backends.
type Store interface {
	Users() UserRepository
	Reports() ReportRepository
	// Owner returns a view whose every query is restricted to the given owner.
	Owner(userID primitive.ObjectID) OwnerScope
	Close(ctx context.Context) error
}

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListUserIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// ReportRepository stores generated weekly reports.
type ReportRepository interface {
	SaveWeeklyReport(ctx context.Context, report models.WeeklyReport) error
}

// OwnerScope is the registry and ledger of a single owner. Documents owned by
// anyone else are invisible through it.
type OwnerScope interface {
	InsertCattle(ctx context.Context, cattle *models.Cattle) error
	FindCattle(ctx context.Context, id primitive.ObjectID) (*models.Cattle, error)
	CattleExists(ctx context.Context, id primitive.ObjectID) (bool, error)
	ListCattle(ctx context.Context, query models.CattleQuery) ([]models.Cattle, int64, error)
	UpdateCattle(ctx context.Context, id primitive.ObjectID, update models.CattleUpdate) (*models.Cattle, error)
	DeleteCattle(ctx context.Context, id primitive.ObjectID) error
	CattleLabels(ctx context.Context, ids []primitive.ObjectID) ([]models.CattleLabel, error)

	UpsertProduction(ctx context.Context, key models.ProductionKey, liters float64, notes string) (*models.ProductionRecord, error)
	FindProduction(ctx context.Context, id primitive.ObjectID) (*models.ProductionRecord, error)
	DeleteProduction(ctx context.Context, id primitive.ObjectID) error

	InsertSale(ctx context.Context, sale *models.SaleRecord) error
	DeleteSale(ctx context.Context, id primitive.ObjectID) error

	// DayTotals returns produced and sold liters of a cattle on a local day.
	DayTotals(ctx context.Context, cattleID primitive.ObjectID, localDate string) (produced, sold float64, err error)
	ProductionByDay(ctx context.Context, cattleID primitive.ObjectID, from, to string) ([]models.ProductionDay, error)
	SalesByDay(ctx context.Context, filter models.SalesFilter) ([]models.SalesDay, error)
	ProductionByCattle(ctx context.Context, from, to string) ([]models.CattleTotals, error)
	SalesByCattle(ctx context.Context, from, to string) ([]models.CattleTotals, error)
}
