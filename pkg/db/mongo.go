package db

import (
	"context"
	"errors"
	"fmt"

	"podcast-sync/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoStore keeps one document per episode in a MongoDB collection
type MongoStore struct {
	mongoClient *mongo.Client
	database    *mongo.Database
	collection  *mongo.Collection
	opts        storeOptions
}

// NewMongoStore creates a store for the given collection. The connection is verified by Connect.
func NewMongoStore(connectionString, databaseName, collectionName string, opts ...Option) *MongoStore {
	o := buildOptions("mongo_store", opts)
	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		// error surfaces in Connect()
		o.logger.Debug("mongo connect failed", zap.Error(err))
		return &MongoStore{opts: o}
	}

	database := mongoClient.Database(databaseName)
	collection := database.Collection(collectionName)

	return &MongoStore{
		mongoClient: mongoClient,
		database:    database,
		collection:  collection,
		opts:        o,
	}
}

// Connect pings the server and makes sure the id index exists
func (s *MongoStore) Connect(ctx context.Context) error {
	if s.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	if err := s.mongoClient.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: domain.KeyID, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create id index: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection
func (s *MongoStore) Close(ctx context.Context) error {
	if s.mongoClient == nil {
		return nil
	}
	return s.mongoClient.Disconnect(ctx)
}

// Upsert merges rec into the document with the same id
func (s *MongoStore) Upsert(ctx context.Context, rec domain.Record) (int64, error) {
	if s.collection == nil {
		return 0, fmt.Errorf("collection not initialized")
	}
	id, err := recordID(rec)
	if err != nil {
		return 0, err
	}

	now := s.opts.now()
	set := bson.M{}
	for k, v := range fields(rec, id) {
		set[k] = v
	}
	set[domain.KeyUpdatedDate] = now

	filter := bson.M{domain.KeyID: id}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{domain.KeyCreatedDate: now},
	}
	res, err := s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return 0, fmt.Errorf("upsert episode %d: %w", id, err)
	}
	s.opts.logger.Debug("episode upserted", zap.Int64("item_id", id), zap.Bool("inserted", res.UpsertedCount > 0))
	return id, nil
}

// Get returns the episode with the given id
func (s *MongoStore) Get(ctx context.Context, id int64) (*domain.Episode, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}
	var doc bson.M
	err := s.collection.FindOne(ctx, bson.M{domain.KeyID: id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("episode %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find episode %d: %w", id, err)
	}
	ep, err := fromBSON(doc).Decode()
	if err != nil {
		return nil, fmt.Errorf("episode %d: %w: %w", id, ErrStorageCorrupt, err)
	}
	return ep, nil
}

// List returns every stored episode ordered by id
func (s *MongoStore) List(ctx context.Context) ([]domain.Episode, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: domain.KeyID, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.Episode
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorageCorrupt, err)
		}
		ep, err := fromBSON(doc).Decode()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorageCorrupt, err)
		}
		out = append(out, *ep)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return out, nil
}

// fromBSON turns a decoded document into a Record with plain Go values
func fromBSON(doc bson.M) domain.Record {
	rec := make(domain.Record, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		rec[k] = plainValue(v)
	}
	return rec
}

func plainValue(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.M:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = plainValue(inner)
		}
		return m
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case primitive.A:
		list := make([]any, 0, len(t))
		for _, inner := range t {
			list = append(list, plainValue(inner))
		}
		return list
	default:
		return v
	}
}
