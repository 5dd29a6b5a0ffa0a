package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/config"
	"github.com/mamadbah2/dairy/internal/repository"
)

const (
	usersCollection      = "users"
	cattleCollection     = "cattle"
	productionCollection = "milk_production"
	salesCollection      = "milk_sales"
	reportsCollection    = "weekly_reports"
)

// MongoDBRepository owns the pooled client shared by every request handler.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
	now    func() time.Time
}

var _ repository.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository connects, verifies the connection and makes sure the
// unique indexes backing the ledger keys exist.
func NewMongoDBRepository(ctx context.Context, cfg config.MongoDBConfig, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetServerSelectionTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client: client,
		db:     client.Database(cfg.DBName),
		logger: logger,
		now:    time.Now,
	}

	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("mongodb connected", zap.String("db", cfg.DBName), zap.Uint64("max_pool_size", cfg.MaxPoolSize))
	return r, nil
}

// Users returns the account repository.
func (r *MongoDBRepository) Users() repository.UserRepository {
	return &userRepository{coll: r.db.Collection(usersCollection), now: r.now}
}

// Reports returns the weekly report repository.
func (r *MongoDBRepository) Reports() repository.ReportRepository {
	return &reportRepository{coll: r.db.Collection(reportsCollection), now: r.now}
}

// Owner returns the registry and ledger view of one owner.
func (r *MongoDBRepository) Owner(userID primitive.ObjectID) repository.OwnerScope {
	return &ownerScope{
		owner:      userID,
		cattle:     r.db.Collection(cattleCollection),
		production: r.db.Collection(productionCollection),
		sales:      r.db.Collection(salesCollection),
		now:        r.now,
	}
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		cattleCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "tagNo", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		productionCollection: {
			{
				Keys:    bson.D{{Key: "user", Value: 1}, {Key: "cattle", Value: 1}, {Key: "localDate", Value: 1}, {Key: "shift", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "cattle", Value: 1}, {Key: "localDate", Value: 1}}},
		},
		salesCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "cattle", Value: 1}, {Key: "localDate", Value: 1}}},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "localDate", Value: 1}}},
		},
		reportsCollection: {
			{
				Keys:    bson.D{{Key: "user", Value: 1}, {Key: "isoYear", Value: 1}, {Key: "isoWeek", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for name, models := range specs {
		if _, err := r.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	default:
		return err
	}
}
