package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

// saleRevenue is Σ liters × pricePerLiter with a missing price counted as zero.
var saleRevenue = bson.M{"$sum": bson.M{"$multiply": bson.A{"$liters", bson.M{"$ifNull": bson.A{"$pricePerLiter", 0}}}}}

func shiftLiters(shift string) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$shift", shift}}, "$liters", 0}}}
}

func aggregate[T any](ctx context.Context, coll *mongo.Collection, pipeline bson.A) ([]T, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", coll.Name(), err)
	}
	var rows []T
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s aggregate: %w", coll.Name(), err)
	}
	return rows, nil
}

func (s *ownerScope) sumLiters(ctx context.Context, coll *mongo.Collection, match bson.M) (float64, error) {
	rows, err := aggregate[struct {
		Total float64 `bson:"total"`
	}](ctx, coll, bson.A{
		bson.M{"$match": match},
		bson.M{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$liters"}}},
	})
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return rows[0].Total, nil
}

func (s *ownerScope) DayTotals(ctx context.Context, cattleID primitive.ObjectID, localDate string) (float64, float64, error) {
	match := s.scoped(bson.M{"cattle": cattleID, "localDate": localDate})

	produced, err := s.sumLiters(ctx, s.production, match)
	if err != nil {
		return 0, 0, err
	}
	sold, err := s.sumLiters(ctx, s.sales, match)
	if err != nil {
		return 0, 0, err
	}
	return produced, sold, nil
}

func (s *ownerScope) ProductionByDay(ctx context.Context, cattleID primitive.ObjectID, from, to string) ([]models.ProductionDay, error) {
	return aggregate[models.ProductionDay](ctx, s.production, bson.A{
		bson.M{"$match": s.scoped(bson.M{"cattle": cattleID, "localDate": dateRange(from, to)})},
		bson.M{"$group": bson.M{
			"_id":           "$localDate",
			"morning":       shiftLiters(string(models.ShiftMorning)),
			"evening":       shiftLiters(string(models.ShiftEvening)),
			"producedTotal": bson.M{"$sum": "$liters"},
		}},
		bson.M{"$sort": bson.M{"_id": 1}},
	})
}

func (s *ownerScope) SalesByDay(ctx context.Context, filter models.SalesFilter) ([]models.SalesDay, error) {
	match := bson.M{"localDate": dateRange(filter.From, filter.To)}
	if filter.CattleID != nil {
		match["cattle"] = *filter.CattleID
	}

	return aggregate[models.SalesDay](ctx, s.sales, bson.A{
		bson.M{"$match": s.scoped(match)},
		bson.M{"$group": bson.M{
			"_id":     "$localDate",
			"sold":    bson.M{"$sum": "$liters"},
			"revenue": saleRevenue,
		}},
		bson.M{"$sort": bson.M{"_id": 1}},
	})
}

func (s *ownerScope) ProductionByCattle(ctx context.Context, from, to string) ([]models.CattleTotals, error) {
	return aggregate[models.CattleTotals](ctx, s.production, bson.A{
		bson.M{"$match": s.scoped(bson.M{"localDate": dateRange(from, to)})},
		bson.M{"$group": bson.M{"_id": "$cattle", "produced": bson.M{"$sum": "$liters"}}},
	})
}

func (s *ownerScope) SalesByCattle(ctx context.Context, from, to string) ([]models.CattleTotals, error) {
	return aggregate[models.CattleTotals](ctx, s.sales, bson.A{
		bson.M{"$match": s.scoped(bson.M{"localDate": dateRange(from, to)})},
		bson.M{"$group": bson.M{
			"_id":     "$cattle",
			"sold":    bson.M{"$sum": "$liters"},
			"revenue": saleRevenue,
		}},
	})
}
