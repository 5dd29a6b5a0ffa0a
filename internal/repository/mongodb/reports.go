package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

type reportRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// SaveWeeklyReport upserts the report of an owner's ISO week; reruns replace it.
func (r *reportRepository) SaveWeeklyReport(ctx context.Context, report models.WeeklyReport) error {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = r.now().UTC()
	}

	filter := bson.M{"user": report.UserID, "isoYear": report.ISOYear, "isoWeek": report.ISOWeek}
	_, err := r.coll.ReplaceOne(ctx, filter, report, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save weekly report: %w", translate(err))
	}
	return nil
}
