package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/dairy/internal/config"
	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/repository/memory"
	"github.com/mamadbah2/dairy/internal/service/reporting"
)

type fakeExporter struct {
	reports []models.WeeklyReport
}

func (f *fakeExporter) AppendWeeklyReport(_ context.Context, r models.WeeklyReport) error {
	f.reports = append(f.reports, r)
	return nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

type failingBuilder struct {
	inner   ReportBuilder
	failFor primitive.ObjectID
}

func (b failingBuilder) WeeklyReport(ctx context.Context, owner primitive.ObjectID, now time.Time) (models.WeeklyReport, error) {
	if owner == b.failFor {
		return models.WeeklyReport{}, errors.New("boom")
	}
	return b.inner.WeeklyReport(ctx, owner, now)
}

func seedUser(t *testing.T, store *memory.Store, email string) primitive.ObjectID {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x"}
	require.NoError(t, store.Users().CreateUser(context.Background(), u))
	return u.ID
}

func TestRunWeeklyReport(t *testing.T) {
	store := memory.NewStore()
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	owner := seedUser(t, store, "a@farm.io")
	broken := seedUser(t, store, "b@farm.io")

	scope := store.Owner(owner)
	cow := models.Cattle{TagNo: "T1", Name: "Daisy"}
	require.NoError(t, scope.InsertCattle(ctx, &cow))
	_, err := scope.UpsertProduction(ctx, models.ProductionKey{CattleID: cow.ID, LocalDate: "2025-01-02", Shift: models.ShiftMorning}, 9, "")
	require.NoError(t, err)
	require.NoError(t, scope.InsertSale(ctx, &models.SaleRecord{CattleID: cow.ID, LocalDate: "2025-01-02", Liters: 5, PricePerLiter: 400}))

	exporter := &fakeExporter{}
	notifier := &fakeNotifier{}
	sched, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 20 * * 0", Timezone: "UTC"}, Deps{
		Users:    store.Users(),
		Reports:  store.Reports(),
		Builder:  failingBuilder{inner: reporting.NewService(store, logger), failFor: broken},
		Exporter: exporter,
		Notifier: notifier,
	}, logger)
	require.NoError(t, err)
	sched.now = func() time.Time { return time.Date(2025, 1, 5, 20, 0, 0, 0, time.UTC) }

	reports, err := sched.RunWeeklyReport(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, owner, reports[0].UserID)
	assert.Equal(t, 9.0, reports[0].Produced)
	assert.Equal(t, 2000.0, reports[0].Revenue)

	stored := store.WeeklyReports()
	require.Len(t, stored, 1)
	assert.Equal(t, "2024-12-30", stored[0].RangeFrom)

	assert.Len(t, exporter.reports, 1)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "2025-W01")

	_, err = sched.RunWeeklyReport(ctx)
	require.NoError(t, err)
	assert.Len(t, store.WeeklyReports(), 1)
}

func TestNewSchedulerRejectsBadTimezone(t *testing.T) {
	_, err := NewScheduler(config.ReportingConfig{Timezone: "Mars/Olympus"}, Deps{}, nil)
	assert.Error(t, err)
}

func TestStartWithInvalidSpec(t *testing.T) {
	sched, err := NewScheduler(config.ReportingConfig{CronSchedule: "not a cron", Timezone: "UTC"}, Deps{}, nil)
	require.NoError(t, err)
	assert.Error(t, sched.Start())

	disabled, err := NewScheduler(config.ReportingConfig{Timezone: "UTC"}, Deps{}, nil)
	require.NoError(t, err)
	assert.NoError(t, disabled.Start())
	disabled.Stop()
}
