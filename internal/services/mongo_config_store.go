package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mailstudio/builder/internal/models"
)

const (
	emailConfigsCollection = "email_configs"
	countersCollection     = "counters"
	listCacheKey           = "emailconfigs:list"
)

// MongoConfigStore implements IConfigStore on MongoDB. Records are insert-only
// and ids come from an atomic counter document, so concurrent saves across
// instances never collide. The listing is cached in Redis with a short TTL and
// invalidated on save; the cache is best-effort and a Redis outage only costs
// the extra DB query.
type MongoConfigStore struct {
	db       *mongo.Database
	rdb      *redis.Client
	cacheTTL time.Duration
}

// NewMongoConfigStore creates a Mongo-backed config store. rdb may be nil to
// disable listing caching.
func NewMongoConfigStore(db *mongo.Database, rdb *redis.Client, cacheTTL time.Duration) *MongoConfigStore {
	return &MongoConfigStore{
		db:       db,
		rdb:      rdb,
		cacheTTL: cacheTTL,
	}
}

// nextID atomically increments and returns the id counter for email configs.
func (s *MongoConfigStore) nextID(ctx context.Context) (int64, error) {
	collection := s.db.Collection(countersCollection)
	filter := bson.M{"_id": emailConfigsCollection}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, fmt.Errorf("%w: failed to allocate config id: %v", ErrStoreUnavailable, err)
	}
	return counter.Seq, nil
}

// Save assigns the next id when the config has none and inserts the record.
func (s *MongoConfigStore) Save(ctx context.Context, cfg models.EmailConfig) (models.EmailConfig, error) {
	if cfg.ID == 0 {
		id, err := s.nextID(ctx)
		if err != nil {
			return models.EmailConfig{}, err
		}
		cfg.ID = id
	}

	collection := s.db.Collection(emailConfigsCollection)
	if _, err := collection.InsertOne(ctx, cfg); err != nil {
		return models.EmailConfig{}, fmt.Errorf("%w: failed to insert config: %v", ErrStoreUnavailable, err)
	}

	// Drop the cached listing so the next List sees the new record.
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, listCacheKey).Err(); err != nil {
			log.Printf("Warning: failed to invalidate config list cache: %v", err)
		}
	}

	return cfg, nil
}

// List returns all persisted records ordered by id.
func (s *MongoConfigStore) List(ctx context.Context) ([]models.EmailConfig, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, listCacheKey).Result()
		if err == nil {
			var records []models.EmailConfig
			if err := json.Unmarshal([]byte(cached), &records); err == nil {
				return records, nil
			}
			log.Printf("Warning: corrupt config list cache entry, falling back to DB: %v", err)
		} else if err != redis.Nil {
			log.Printf("Warning: failed to read config list cache: %v", err)
		}
	}

	collection := s.db.Collection(emailConfigsCollection)
	findOpts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query configs: %v", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	records := []models.EmailConfig{}
	for cursor.Next(ctx) {
		var record models.EmailConfig
		if err := cursor.Decode(&record); err != nil {
			log.Printf("Warning: failed to decode config record during list: %v", err)
			continue
		}
		records = append(records, record)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating config cursor: %v", ErrStoreUnavailable, err)
	}

	if s.rdb != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(records); err == nil {
			if err := s.rdb.Set(ctx, listCacheKey, data, s.cacheTTL).Err(); err != nil {
				log.Printf("Warning: failed to cache config list: %v", err)
			}
		}
	}

	return records, nil
}
