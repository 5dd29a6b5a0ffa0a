package milk

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/repository"
)

// Tolerance absorbs float rounding when comparing sold and produced liters.
const Tolerance = 1e-9

var (
	ErrCattleNotFound     = errors.New("cattle not found")
	ErrProductionNotFound = errors.New("production not found")
	ErrSaleNotFound       = errors.New("sale not found")
	ErrDuplicateShift     = errors.New("duplicate production for this shift")
)

// CapacityError rejects a sale that would sell more than the day produced.
type CapacityError struct {
	ProducedTotal float64 `json:"producedTotal"`
	SoldSoFar     float64 `json:"soldSoFar"`
	RequestedSale float64 `json:"requestedSale"`
	Remaining     float64 `json:"remaining"`
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("sale of %g liters exceeds remaining %g liters", e.RequestedSale, e.Remaining)
}

// DeleteBlockedError rejects a production delete that would leave sales uncovered.
type DeleteBlockedError struct {
	ProducedTotal       float64 `json:"producedTotal"`
	SoldTotal           float64 `json:"soldTotal"`
	ProducedAfterDelete float64 `json:"producedAfterDelete"`
}

func (e *DeleteBlockedError) Error() string {
	return fmt.Sprintf("sold %g liters exceeds %g liters left after delete", e.SoldTotal, e.ProducedAfterDelete)
}

// ProductionInput is one shift measurement.
type ProductionInput struct {
	CattleID  primitive.ObjectID
	LocalDate string
	Shift     models.Shift
	Liters    float64
	Notes     string
}

// SaleInput is one sale drawn from a day's production.
type SaleInput struct {
	CattleID      primitive.ObjectID
	LocalDate     string
	Liters        float64
	PricePerLiter float64
	Buyer         string
	Notes         string
	When          string
}

// Service maintains the production and sales ledgers.
//
// The produced/sold check reads the day totals and then writes without a
// transaction, so concurrent writers on the same cattle and day can race it.
type Service struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs the ledger service.
func NewService(store repository.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// SetProduction creates or replaces the record of one cattle shift.
func (s *Service) SetProduction(ctx context.Context, owner primitive.ObjectID, in ProductionInput) (*models.ProductionRecord, error) {
	var verrs models.ValidationErrors
	if !models.IsLocalDate(in.LocalDate) {
		verrs.Add("localDate", "localDate must be YYYY-MM-DD")
	}
	if !in.Shift.Valid() {
		verrs.Add("shift", "shift must be 'morning' or 'evening'")
	}
	checkLiters(in.Liters, &verrs)
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	scope := s.store.Owner(owner)
	if err := assertOwned(ctx, scope, in.CattleID); err != nil {
		return nil, err
	}

	key := models.ProductionKey{CattleID: in.CattleID, LocalDate: in.LocalDate, Shift: in.Shift}
	rec, err := scope.UpsertProduction(ctx, key, in.Liters, strings.TrimSpace(in.Notes))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateShift
		}
		return nil, fmt.Errorf("upsert production: %w", err)
	}

	s.logger.Debug("production saved",
		zap.String("user_id", owner.Hex()),
		zap.String("cattle_id", in.CattleID.Hex()),
		zap.String("local_date", in.LocalDate),
		zap.String("shift", string(in.Shift)),
		zap.Float64("liters", in.Liters),
	)
	return rec, nil
}

// DeleteProduction removes a shift record unless the day's sales depend on it.
func (s *Service) DeleteProduction(ctx context.Context, owner, id primitive.ObjectID) error {
	scope := s.store.Owner(owner)

	rec, err := scope.FindProduction(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductionNotFound
		}
		return fmt.Errorf("find production: %w", err)
	}

	produced, sold, err := scope.DayTotals(ctx, rec.CattleID, rec.LocalDate)
	if err != nil {
		return fmt.Errorf("day totals: %w", err)
	}
	if after := produced - rec.Liters; sold > after+Tolerance {
		return &DeleteBlockedError{ProducedTotal: produced, SoldTotal: sold, ProducedAfterDelete: after}
	}

	if err := scope.DeleteProduction(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductionNotFound
		}
		return fmt.Errorf("delete production: %w", err)
	}
	return nil
}

// AddSale records a sale if the day still has enough unsold production.
func (s *Service) AddSale(ctx context.Context, owner primitive.ObjectID, in SaleInput) (*models.SaleRecord, error) {
	var verrs models.ValidationErrors
	if !models.IsLocalDate(in.LocalDate) {
		verrs.Add("localDate", "localDate must be YYYY-MM-DD")
	}
	checkLiters(in.Liters, &verrs)
	if math.IsNaN(in.PricePerLiter) || math.IsInf(in.PricePerLiter, 0) || in.PricePerLiter < 0 {
		verrs.Add("pricePerLiter", "pricePerLiter must be a non-negative number")
	}
	when := s.now().UTC()
	if in.When != "" {
		t, ok := models.ParseTimestamp(in.When)
		if !ok {
			verrs.Add("when", "when must be an ISO-8601 timestamp or YYYY-MM-DD")
		}
		when = t
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	scope := s.store.Owner(owner)
	if err := assertOwned(ctx, scope, in.CattleID); err != nil {
		return nil, err
	}

	produced, sold, err := scope.DayTotals(ctx, in.CattleID, in.LocalDate)
	if err != nil {
		return nil, fmt.Errorf("day totals: %w", err)
	}
	if sold+in.Liters > produced+Tolerance {
		return nil, &CapacityError{
			ProducedTotal: produced,
			SoldSoFar:     sold,
			RequestedSale: in.Liters,
			Remaining:     math.Max(0, produced-sold),
		}
	}

	sale := &models.SaleRecord{
		CattleID:      in.CattleID,
		When:          when,
		LocalDate:     in.LocalDate,
		Liters:        in.Liters,
		PricePerLiter: in.PricePerLiter,
		Buyer:         strings.TrimSpace(in.Buyer),
		Notes:         strings.TrimSpace(in.Notes),
	}
	if err := scope.InsertSale(ctx, sale); err != nil {
		return nil, fmt.Errorf("insert sale: %w", err)
	}

	s.logger.Debug("sale added",
		zap.String("user_id", owner.Hex()),
		zap.String("cattle_id", in.CattleID.Hex()),
		zap.String("local_date", in.LocalDate),
		zap.Float64("liters", in.Liters),
	)
	return sale, nil
}

// DeleteSale removes a sale. Removing a sale can only free capacity.
func (s *Service) DeleteSale(ctx context.Context, owner, id primitive.ObjectID) error {
	if err := s.store.Owner(owner).DeleteSale(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSaleNotFound
		}
		return fmt.Errorf("delete sale: %w", err)
	}
	return nil
}

func assertOwned(ctx context.Context, scope repository.OwnerScope, cattleID primitive.ObjectID) error {
	ok, err := scope.CattleExists(ctx, cattleID)
	if err != nil {
		return fmt.Errorf("check cattle: %w", err)
	}
	if !ok {
		return ErrCattleNotFound
	}
	return nil
}

func checkLiters(liters float64, verrs *models.ValidationErrors) {
	if math.IsNaN(liters) || math.IsInf(liters, 0) || liters < 0 {
		verrs.Add("liters", "liters must be a non-negative number")
	}
}
