package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"video-portal/cmd/config"
	"video-portal/pkg/models"
)

// MongoCollection stores documents in a MongoDB collection keyed by _id.
type MongoCollection[T Document] struct {
	col *mongo.Collection
}

var _ Collection[models.Video] = (*MongoCollection[models.Video])(nil)

func NewMongoCollection[T Document](db *mongo.Database, name string) *MongoCollection[T] {
	return &MongoCollection[T]{col: db.Collection(name)}
}

func connectMongo(ctx context.Context, cfg config.Document) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.Endpoint).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	if cfg.Key != "" {
		opts.SetAuth(options.Credential{Username: cfg.User, Password: cfg.Key})
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// ensureMongoIndexes creates the secondary indexes used by the filtered and
// sorted listings.
func ensureMongoIndexes(ctx context.Context, db *mongo.Database, cfg config.Document) error {
	indexes := map[string][]bson.D{
		cfg.Videos: {
			{{Key: models.FieldCreatedAt, Value: -1}},
			{{Key: models.FieldUserID, Value: 1}, {Key: models.FieldCreatedAt, Value: -1}},
		},
		cfg.Comments: {
			{{Key: models.FieldVideoID, Value: 1}, {Key: models.FieldCreatedAt, Value: 1}},
		},
	}
	for name, keys := range indexes {
		specs := make([]mongo.IndexModel, 0, len(keys))
		for _, k := range keys {
			specs = append(specs, mongo.IndexModel{Keys: k})
		}
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func sortSpec(s Sort) bson.D {
	dir := 1
	if s.Desc {
		dir = -1
	}
	return bson.D{{Key: s.Field, Value: dir}, {Key: "_id", Value: 1}}
}

func (m *MongoCollection[T]) ListAll(ctx context.Context, s Sort) ([]T, error) {
	return m.find(ctx, bson.D{}, s)
}

func (m *MongoCollection[T]) ListFiltered(ctx context.Context, field, value string, s Sort) ([]T, error) {
	return m.find(ctx, bson.D{{Key: field, Value: value}}, s)
}

func (m *MongoCollection[T]) find(ctx context.Context, filter bson.D, s Sort) ([]T, error) {
	cursor, err := m.col.Find(ctx, filter, options.Find().SetSort(sortSpec(s)))
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", m.col.Name(), err)
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", m.col.Name(), err)
	}
	return docs, nil
}

func (m *MongoCollection[T]) Get(ctx context.Context, id string) (*T, error) {
	var doc T
	err := m.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", m.col.Name(), id, err)
	}
	return &doc, nil
}

func (m *MongoCollection[T]) Create(ctx context.Context, doc *T) error {
	_, err := m.col.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert into %s: %w", m.col.Name(), err)
	}
	return nil
}

func (m *MongoCollection[T]) CreateIfAbsent(ctx context.Context, doc *T) (bool, error) {
	err := m.Create(ctx, doc)
	if errors.Is(err, ErrConflict) {
		return false, nil
	}
	return err == nil, err
}

func (m *MongoCollection[T]) Replace(ctx context.Context, doc *T) error {
	id := (*doc).DocumentID()
	res, err := m.col.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc)
	if err != nil {
		return fmt.Errorf("replace %s/%s: %w", m.col.Name(), id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoCollection[T]) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", m.col.Name(), id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoCollection[T]) Increment(ctx context.Context, id, field string, delta int) (*T, error) {
	var doc T
	err := m.col.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: field, Value: delta}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("increment %s/%s.%s: %w", m.col.Name(), id, field, err)
	}
	return &doc, nil
}
