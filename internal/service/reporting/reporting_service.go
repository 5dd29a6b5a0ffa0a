package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/repository"
)

const (
	unknownTag  = "—"
	unknownName = "Unknown"
)

// ErrCattleNotFound is returned when per-cattle stats target a cattle the owner does not have.
var ErrCattleNotFound = errors.New("cattle not found")

// RevenueQuery selects the sales folded into revenue buckets.
type RevenueQuery struct {
	From     string
	To       string
	CattleID *primitive.ObjectID
	// Rate, when set, replaces stored per-sale prices with one flat rate.
	Rate *float64
}

// Service folds ledger aggregates into daily, weekly and monthly reports.
type Service struct {
	store  repository.Store
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(store repository.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// CheckRange validates a from/to pair of local dates.
func CheckRange(from, to string) error {
	var verrs models.ValidationErrors
	fromOK := models.IsLocalDate(from)
	toOK := models.IsLocalDate(to)
	if !fromOK {
		verrs.Add("from", "from must be YYYY-MM-DD")
	}
	if !toOK {
		verrs.Add("to", "to must be YYYY-MM-DD")
	}
	if fromOK && toOK && from > to {
		verrs.Add("from", "from must not be after to")
	}
	return verrs.Err()
}

// DailyStats returns one row per day with activity for an owned cattle.
func (s *Service) DailyStats(ctx context.Context, owner, cattleID primitive.ObjectID, from, to string) ([]models.DailyStat, error) {
	if err := CheckRange(from, to); err != nil {
		return nil, err
	}

	scope := s.store.Owner(owner)
	ok, err := scope.CattleExists(ctx, cattleID)
	if err != nil {
		return nil, fmt.Errorf("check cattle: %w", err)
	}
	if !ok {
		return nil, ErrCattleNotFound
	}

	production, err := scope.ProductionByDay(ctx, cattleID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load production by day: %w", err)
	}
	sales, err := scope.SalesByDay(ctx, models.SalesFilter{From: from, To: to, CattleID: &cattleID})
	if err != nil {
		return nil, fmt.Errorf("load sales by day: %w", err)
	}

	byDay := make(map[string]*models.DailyStat, len(production))
	for _, p := range production {
		byDay[p.LocalDate] = &models.DailyStat{
			LocalDate:     p.LocalDate,
			Morning:       p.Morning,
			Evening:       p.Evening,
			ProducedTotal: p.ProducedTotal,
		}
	}
	for _, sale := range sales {
		row, ok := byDay[sale.LocalDate]
		if !ok {
			row = &models.DailyStat{LocalDate: sale.LocalDate}
			byDay[sale.LocalDate] = row
		}
		row.SoldTotal = sale.Sold
	}

	days := make([]models.DailyStat, 0, len(byDay))
	for _, row := range byDay {
		row.Remaining = row.ProducedTotal - row.SoldTotal
		days = append(days, *row)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].LocalDate < days[j].LocalDate })
	return days, nil
}

// RangeSummary sums the daily stats of an owned cattle over the range.
func (s *Service) RangeSummary(ctx context.Context, owner, cattleID primitive.ObjectID, from, to string) (*models.RangeSummary, error) {
	days, err := s.DailyStats(ctx, owner, cattleID, from, to)
	if err != nil {
		return nil, err
	}

	var sum models.RangeSummary
	for _, d := range days {
		sum.Morning += d.Morning
		sum.Evening += d.Evening
		sum.ProducedTotal += d.ProducedTotal
		sum.SoldTotal += d.SoldTotal
		sum.Remaining += d.ProducedTotal - d.SoldTotal
	}
	return &sum, nil
}

// SummaryByCattle totals production, sales and realized revenue per cattle.
func (s *Service) SummaryByCattle(ctx context.Context, owner primitive.ObjectID, from, to string) ([]models.CattleSummary, error) {
	if err := CheckRange(from, to); err != nil {
		return nil, err
	}

	scope := s.store.Owner(owner)
	production, err := scope.ProductionByCattle(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load production by cattle: %w", err)
	}
	sales, err := scope.SalesByCattle(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load sales by cattle: %w", err)
	}

	totals := map[primitive.ObjectID]*models.CattleSummary{}
	var order []primitive.ObjectID
	row := func(id primitive.ObjectID) *models.CattleSummary {
		r, ok := totals[id]
		if !ok {
			r = &models.CattleSummary{Cattle: models.CattleLabel{ID: id, TagNo: unknownTag, Name: unknownName}}
			totals[id] = r
			order = append(order, id)
		}
		return r
	}
	for _, p := range production {
		row(p.CattleID).ProducedTotal += p.Produced
	}
	for _, sale := range sales {
		r := row(sale.CattleID)
		r.SoldTotal += sale.Sold
		r.RevenueFromSales += sale.Revenue
	}

	labels, err := scope.CattleLabels(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("load cattle labels: %w", err)
	}
	for _, label := range labels {
		if r, ok := totals[label.ID]; ok {
			r.Cattle = label
		}
	}

	rows := make([]models.CattleSummary, 0, len(order))
	for _, id := range order {
		rows = append(rows, *totals[id])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Cattle, rows[j].Cattle
		if a.TagNo != b.TagNo {
			return a.TagNo < b.TagNo
		}
		return a.Name < b.Name
	})
	return rows, nil
}

// RevenueDaily groups sales by local day.
func (s *Service) RevenueDaily(ctx context.Context, owner primitive.ObjectID, q RevenueQuery) ([]models.RevenueDay, error) {
	days, err := s.salesByDay(ctx, owner, q)
	if err != nil {
		return nil, err
	}

	rows := make([]models.RevenueDay, 0, len(days))
	for _, d := range days {
		rows = append(rows, models.RevenueDay{LocalDate: d.LocalDate, Sold: d.Sold, Revenue: applyRate(d.Sold, d.Revenue, q.Rate)})
	}
	return rows, nil
}

// RevenueWeekly groups sales by ISO-8601 week.
func (s *Service) RevenueWeekly(ctx context.Context, owner primitive.ObjectID, q RevenueQuery) ([]models.RevenueWeek, error) {
	days, err := s.salesByDay(ctx, owner, q)
	if err != nil {
		return nil, err
	}

	var rows []models.RevenueWeek
	for _, d := range days {
		date, ok := models.ParseLocalDate(d.LocalDate)
		if !ok {
			s.logger.Warn("skip sales day with malformed date", zap.String("local_date", d.LocalDate))
			continue
		}
		year, week := date.ISOWeek()
		if n := len(rows); n == 0 || rows[n-1].ISOYear != year || rows[n-1].ISOWeek != week {
			from, to := ISOWeekRange(year, week)
			rows = append(rows, models.RevenueWeek{
				ISOYear:   year,
				ISOWeek:   week,
				WeekLabel: WeekLabel(year, week),
				RangeFrom: from,
				RangeTo:   to,
			})
		}
		last := &rows[len(rows)-1]
		last.Sold += d.Sold
		last.Revenue += d.Revenue
	}

	for i := range rows {
		rows[i].Revenue = applyRate(rows[i].Sold, rows[i].Revenue, q.Rate)
	}
	if rows == nil {
		rows = []models.RevenueWeek{}
	}
	return rows, nil
}

// RevenueMonthly groups sales by calendar month.
func (s *Service) RevenueMonthly(ctx context.Context, owner primitive.ObjectID, q RevenueQuery) ([]models.RevenueMonth, error) {
	days, err := s.salesByDay(ctx, owner, q)
	if err != nil {
		return nil, err
	}

	rows := []models.RevenueMonth{}
	for _, d := range days {
		month := d.LocalDate[:7]
		if n := len(rows); n == 0 || rows[n-1].Month != month {
			rows = append(rows, models.RevenueMonth{Month: month})
		}
		last := &rows[len(rows)-1]
		last.Sold += d.Sold
		last.Revenue += d.Revenue
	}

	for i := range rows {
		rows[i].Revenue = applyRate(rows[i].Sold, rows[i].Revenue, q.Rate)
	}
	return rows, nil
}

func (s *Service) salesByDay(ctx context.Context, owner primitive.ObjectID, q RevenueQuery) ([]models.SalesDay, error) {
	if err := CheckRange(q.From, q.To); err != nil {
		return nil, err
	}
	if q.Rate != nil && *q.Rate < 0 {
		return nil, models.ValidationErrors{{Field: "rate", Message: "rate must be a non-negative number"}}
	}

	days, err := s.store.Owner(owner).SalesByDay(ctx, models.SalesFilter{From: q.From, To: q.To, CattleID: q.CattleID})
	if err != nil {
		return nil, fmt.Errorf("load sales by day: %w", err)
	}
	return days, nil
}

func applyRate(sold, stored float64, rate *float64) float64 {
	if rate != nil {
		return sold * *rate
	}
	return stored
}

// WeeklyReport builds the report of one owner for the week ReportWeek picks.
func (s *Service) WeeklyReport(ctx context.Context, owner primitive.ObjectID, now time.Time) (models.WeeklyReport, error) {
	year, week := ReportWeek(now)
	from, to := ISOWeekRange(year, week)

	report := models.WeeklyReport{
		UserID:    owner,
		ISOYear:   year,
		ISOWeek:   week,
		RangeFrom: from,
		RangeTo:   to,
		CreatedAt: now.UTC(),
	}

	scope := s.store.Owner(owner)
	production, err := scope.ProductionByCattle(ctx, from, to)
	if err != nil {
		return report, fmt.Errorf("load weekly production: %w", err)
	}
	for _, p := range production {
		report.Produced += p.Produced
	}

	sales, err := scope.SalesByDay(ctx, models.SalesFilter{From: from, To: to})
	if err != nil {
		return report, fmt.Errorf("load weekly sales: %w", err)
	}
	for _, d := range sales {
		report.Sold += d.Sold
		report.Revenue += d.Revenue
	}
	return report, nil
}

// FormatWeeklyDigest renders reports of one week as a short text message.
func FormatWeeklyDigest(reports []models.WeeklyReport) string {
	if len(reports) == 0 {
		return "Weekly milk report: no farms to report."
	}

	first := reports[0]
	var produced, sold, revenue float64
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly milk report %s (%s to %s)\n", WeekLabel(first.ISOYear, first.ISOWeek), first.RangeFrom, first.RangeTo)
	for _, r := range reports {
		produced += r.Produced
		sold += r.Sold
		revenue += r.Revenue
		fmt.Fprintf(&b, "- farm %s: produced %.2f L, sold %.2f L, revenue %.2f\n", shortID(r.UserID), r.Produced, r.Sold, r.Revenue)
	}
	fmt.Fprintf(&b, "Total: produced %.2f L, sold %.2f L, revenue %.2f", produced, sold, revenue)
	return b.String()
}

func shortID(id primitive.ObjectID) string {
	hex := id.Hex()
	return hex[len(hex)-6:]
}
