package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/repository"
)

// ownerScope routes every filter through scoped so no query can skip the
// owner restriction.
type ownerScope struct {
	owner      primitive.ObjectID
	cattle     *mongo.Collection
	production *mongo.Collection
	sales      *mongo.Collection
	now        func() time.Time
}

var _ repository.OwnerScope = (*ownerScope)(nil)

func (s *ownerScope) scoped(filter bson.M) bson.M {
	out := bson.M{}
	for k, v := range filter {
		out[k] = v
	}
	out["user"] = s.owner
	return out
}

func dateRange(from, to string) bson.M {
	return bson.M{"$gte": from, "$lte": to}
}

// ---- cattle ----

func (s *ownerScope) InsertCattle(ctx context.Context, cattle *models.Cattle) error {
	now := s.now().UTC()
	cattle.ID = primitive.NewObjectID()
	cattle.UserID = s.owner
	cattle.CreatedAt = now
	cattle.UpdatedAt = now

	if _, err := s.cattle.InsertOne(ctx, cattle); err != nil {
		return fmt.Errorf("insert cattle: %w", translate(err))
	}
	return nil
}

func (s *ownerScope) FindCattle(ctx context.Context, id primitive.ObjectID) (*models.Cattle, error) {
	var cattle models.Cattle
	if err := s.cattle.FindOne(ctx, s.scoped(bson.M{"_id": id})).Decode(&cattle); err != nil {
		return nil, translate(err)
	}
	return &cattle, nil
}

func (s *ownerScope) CattleExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.cattle.CountDocuments(ctx, s.scoped(bson.M{"_id": id}), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count cattle: %w", err)
	}
	return n > 0, nil
}

func (s *ownerScope) ListCattle(ctx context.Context, query models.CattleQuery) ([]models.Cattle, int64, error) {
	filter := bson.M{}
	if query.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query.Search), Options: "i"}
		filter["$or"] = bson.A{bson.M{"name": pattern}, bson.M{"tagNo": pattern}}
	}
	if query.Breed != "" {
		filter["breed"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(query.Breed) + "$", Options: "i"}
	}
	filter = s.scoped(filter)

	direction := 1
	if query.SortDesc {
		direction = -1
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: query.SortField, Value: direction}, {Key: "_id", Value: direction}}).
		SetSkip(query.Skip).
		SetLimit(query.Limit)

	cursor, err := s.cattle.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("find cattle: %w", err)
	}
	items := []models.Cattle{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode cattle: %w", err)
	}

	total, err := s.cattle.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count cattle: %w", err)
	}
	return items, total, nil
}

func (s *ownerScope) UpdateCattle(ctx context.Context, id primitive.ObjectID, update models.CattleUpdate) (*models.Cattle, error) {
	if update.Empty() {
		return s.FindCattle(ctx, id)
	}

	set := bson.M{"updatedAt": s.now().UTC()}
	if update.TagNo != nil {
		set["tagNo"] = *update.TagNo
	}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Breed != nil {
		set["breed"] = *update.Breed
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}
	if update.EntryDate != nil {
		set["entryDate"] = *update.EntryDate
	}

	var cattle models.Cattle
	err := s.cattle.FindOneAndUpdate(ctx,
		s.scoped(bson.M{"_id": id}),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&cattle)
	if err != nil {
		return nil, translate(err)
	}
	return &cattle, nil
}

func (s *ownerScope) DeleteCattle(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.cattle.DeleteOne(ctx, s.scoped(bson.M{"_id": id}))
	if err != nil {
		return fmt.Errorf("delete cattle: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *ownerScope) CattleLabels(ctx context.Context, ids []primitive.ObjectID) ([]models.CattleLabel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := s.cattle.Find(ctx,
		s.scoped(bson.M{"_id": bson.M{"$in": ids}}),
		options.Find().SetProjection(bson.M{"_id": 1, "tagNo": 1, "name": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("find cattle labels: %w", err)
	}
	var labels []models.CattleLabel
	if err := cursor.All(ctx, &labels); err != nil {
		return nil, fmt.Errorf("decode cattle labels: %w", err)
	}
	return labels, nil
}

// ---- production ----

func (s *ownerScope) UpsertProduction(ctx context.Context, key models.ProductionKey, liters float64, notes string) (*models.ProductionRecord, error) {
	now := s.now().UTC()
	filter := s.scoped(bson.M{"cattle": key.CattleID, "localDate": key.LocalDate, "shift": key.Shift})
	update := bson.M{
		"$set":         bson.M{"liters": liters, "notes": notes, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	var record models.ProductionRecord
	err := s.production.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&record)
	if err != nil {
		return nil, fmt.Errorf("upsert production: %w", translate(err))
	}
	return &record, nil
}

func (s *ownerScope) FindProduction(ctx context.Context, id primitive.ObjectID) (*models.ProductionRecord, error) {
	var record models.ProductionRecord
	if err := s.production.FindOne(ctx, s.scoped(bson.M{"_id": id})).Decode(&record); err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

func (s *ownerScope) DeleteProduction(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.production.DeleteOne(ctx, s.scoped(bson.M{"_id": id}))
	if err != nil {
		return fmt.Errorf("delete production: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ---- sales ----

func (s *ownerScope) InsertSale(ctx context.Context, sale *models.SaleRecord) error {
	now := s.now().UTC()
	sale.ID = primitive.NewObjectID()
	sale.UserID = s.owner
	sale.CreatedAt = now
	sale.UpdatedAt = now

	if _, err := s.sales.InsertOne(ctx, sale); err != nil {
		return fmt.Errorf("insert sale: %w", translate(err))
	}
	return nil
}

func (s *ownerScope) DeleteSale(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.sales.DeleteOne(ctx, s.scoped(bson.M{"_id": id}))
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
