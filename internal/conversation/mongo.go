package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore keeps one document per session, _id being the session id.
// A TTL index on expires_at lets the server drop stale records on its own.
type MongoStore struct {
	client    *mongo.Client
	coll      *mongo.Collection
	retention time.Duration
	now       func() time.Time
}

func NewMongoStore(ctx context.Context, uri, database, collection string, retention time.Duration) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create ttl index: %w", err)
	}
	return &MongoStore{
		client:    client,
		coll:      coll,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *MongoStore) Load(ctx context.Context, sessionID string) (Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: sessionID}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	// The TTL monitor runs once a minute, so a record can outlive its deadline briefly.
	if rec.Expired(s.now()) {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MongoStore) Save(ctx context.Context, rec Record) error {
	if rec.SessionID == "" {
		return errEmptySessionID
	}
	stamp(&rec, s.now(), s.retention)
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: rec.SessionID}},
		rec,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("replace conversation: %w", err)
	}
	return nil
}

func (s *MongoStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_updated", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	filter := bson.D{{Key: "ttl", Value: bson.D{{Key: "$gt", Value: s.now().Unix()}}}}
	return s.find(ctx, filter, opts)
}

func (s *MongoStore) Since(ctx context.Context, t time.Time) ([]Record, error) {
	filter := bson.D{
		{Key: "last_updated", Value: bson.D{{Key: "$gte", Value: t}}},
		{Key: "ttl", Value: bson.D{{Key: "$gt", Value: s.now().Unix()}}},
	}
	return s.find(ctx, filter, options.Find())
}

func (s *MongoStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{{Key: "ttl", Value: bson.D{{Key: "$lte", Value: now.Unix()}}}})
	if err != nil {
		return 0, fmt.Errorf("delete expired conversations: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) find(ctx context.Context, filter bson.D, opts *options.FindOptionsBuilder) ([]Record, error) {
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find conversations: %w", err)
	}
	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	return out, nil
}
