package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/dairy/internal/config"
)

func TestNewMongoDBRepositoryUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	repo, err := NewMongoDBRepository(ctx, config.MongoDBConfig{
		URI:         "mongodb://127.0.0.1:1/?directConnection=true",
		DBName:      "dairy_test",
		MaxPoolSize: 1,
		Timeout:     200 * time.Millisecond,
	}, zaptest.NewLogger(t))

	assert.Nil(t, repo)
	assert.ErrorContains(t, err, "failed to ping mongodb")
}
