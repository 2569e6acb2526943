package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const idField = "_id"

// MongoStore stores each document under its key as the Mongo _id.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore wraps a connected database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Get(ctx context.Context, collection, key string) (Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{idField: key}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %s/%s: %w", collection, key, err)
	}
	return fromBSON(raw), nil
}

func (s *MongoStore) Put(ctx context.Context, collection, key string, doc Document, merge bool) error {
	coll := s.db.Collection(collection)
	filter := bson.M{idField: key}
	fields := toBSON(doc)

	var err error
	if merge {
		if len(fields) == 0 {
			return nil
		}
		_, err = coll.UpdateOne(ctx, filter, bson.M{"$set": fields}, options.UpdateOne().SetUpsert(true))
	} else {
		fields[idField] = key
		_, err = coll.ReplaceOne(ctx, filter, fields, options.Replace().SetUpsert(true))
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("write %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *MongoStore) QueryWhere(ctx context.Context, collection, field string, value any) ([]Document, error) {
	return s.find(ctx, collection, bson.M{field: value})
}

func (s *MongoStore) Delete(ctx context.Context, collection, key string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{idField: key}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, collection string) ([]Document, error) {
	return s.find(ctx, collection, bson.M{})
}

func (s *MongoStore) EnsureUnique(ctx context.Context, collection, field string) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_" + field),
	}
	if _, err := s.db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create unique index %s.%s: %w", collection, field, err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.Client().Ping(pingCtx, readpref.Primary())
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.M) ([]Document, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromBSON(row))
	}
	return out, nil
}

func toBSON(doc Document) bson.M {
	out := make(bson.M, len(doc)+1)
	for k, v := range doc {
		if k == idField {
			continue
		}
		out[k] = v
	}
	return out
}

// fromBSON drops the storage key and turns driver date values back into time.Time.
func fromBSON(raw bson.M) Document {
	out := make(Document, len(raw))
	for k, v := range raw {
		if k == idField {
			continue
		}
		if dt, ok := v.(bson.DateTime); ok {
			out[k] = dt.Time().UTC()
			continue
		}
		out[k] = v
	}
	return out
}

var _ Store = (*MongoStore)(nil)
