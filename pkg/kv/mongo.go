package kv

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig configures a MongoDB-backed store.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// Defaults for MongoConfig fields left empty.
const (
	DefaultMongoDatabase   = "driftboard"
	DefaultMongoCollection = "diagrams"
)

// MongoStore keeps one document per key. A TTL index on expires_at lets
// the server purge expired entries; reads also check expiry because the
// TTL monitor only runs once a minute.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

type mongoEntry struct {
	Key       string     `bson:"_id"`
	Data      []byte     `bson:"data"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// NewMongoStore connects, pings the primary and ensures the TTL index.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = DefaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultMongoCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, storageErr(err, false, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storageErr(err, false, "ping mongodb")
	}
	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storageErr(err, false, "create ttl index")
	}
	return &MongoStore{client: client, coll: coll, now: time.Now}, nil
}

// Get retrieves a value.
func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e mongoEntry
	miss := false
	err := s.do(ctx, "get "+key, func() error {
		err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&e)
		if errors.Is(err, mongo.ErrNoDocuments) {
			miss = true
			return nil
		}
		return err
	})
	if err != nil || miss {
		return nil, false, err
	}
	if e.ExpiresAt != nil && s.now().After(*e.ExpiresAt) {
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set upserts a value.
func (s *MongoStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := s.now()
	e := mongoEntry{Key: key, Data: data, UpdatedAt: now}
	if ttl > 0 {
		exp := now.Add(ttl)
		e.ExpiresAt = &exp
	}
	return s.do(ctx, "set "+key, func() error {
		_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, e, options.Replace().SetUpsert(true))
		return err
	})
}

// Delete removes a value.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	return s.do(ctx, "delete "+key, func() error {
		_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
		return err
	})
}

// List returns the live keys with the prefix.
func (s *MongoStore) List(ctx context.Context, prefix string) ([]string, error) {
	filter := bson.M{
		"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)},
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$exists": false}},
			bson.M{"expires_at": bson.M{"$gt": s.now()}},
		},
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	var keys []string
	err := s.do(ctx, "list "+prefix, func() error {
		cur, err := s.coll.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		var rows []struct {
			Key string `bson:"_id"`
		}
		if err := cur.All(ctx, &rows); err != nil {
			return err
		}
		keys = keys[:0]
		for _, r := range rows {
			keys = append(keys, r.Key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) do(ctx context.Context, op string, fn func() error) error {
	return RetryWithBackoff(ctx, func() error {
		if err := fn(); err != nil {
			transient := mongo.IsNetworkError(err) || mongo.IsTimeout(err)
			return storageErr(err, transient, "mongodb %s", op)
		}
		return nil
	})
}

var _ Store = (*MongoStore)(nil)
