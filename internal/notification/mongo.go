package notification

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"ms-booking/internal/models"
)

// MongoStore keeps notification records in a Mongo collection with the
// booking ID as _id, so the primary key doubles as the deduplication key.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{
		coll: client.Database(database).Collection(collection),
	}
}

func (s *MongoStore) SaveIfAbsent(ctx context.Context, record models.NotificationRecord) (bool, error) {
	record.StoredAt = time.Now().UTC()

	_, err := s.coll.InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert notification %s: %w", record.BookingID, err)
	}
	return true, nil
}
