package database

import (
	"context"
	"fmt"
	"log"

	"video-portal/cmd/config"
	"video-portal/pkg/models"
)

// Store groups the collections of the service and owns the underlying
// connection.
type Store struct {
	Videos   Collection[models.Video]
	Comments Collection[models.Comment]
	Users    Collection[models.User]

	close func(ctx context.Context) error
}

// Open connects to the configured document database driver.
func Open(ctx context.Context, cfg config.Document) (*Store, error) {
	switch cfg.Driver {
	case "mongo":
		return openMongoStore(ctx, cfg)
	case "sqlite":
		return openSQLiteStore(cfg)
	case "memory":
		log.Println("using in-memory document store; data is lost on exit")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown document driver %q", cfg.Driver)
	}
}

func NewMemoryStore() *Store {
	return &Store{
		Videos:   NewMemoryCollection[models.Video](),
		Comments: NewMemoryCollection[models.Comment](),
		Users:    NewMemoryCollection[models.User](),
		close:    func(context.Context) error { return nil },
	}
}

func openMongoStore(ctx context.Context, cfg config.Document) (*Store, error) {
	client, err := connectMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Database)
	if err := ensureMongoIndexes(ctx, db, cfg); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Printf("connected to MongoDB database %s", cfg.Database)

	return &Store{
		Videos:   NewMongoCollection[models.Video](db, cfg.Videos),
		Comments: NewMongoCollection[models.Comment](db, cfg.Comments),
		Users:    NewMongoCollection[models.User](db, cfg.Users),
		close:    client.Disconnect,
	}, nil
}

func openSQLiteStore(cfg config.Document) (*Store, error) {
	db, err := openSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	videos, err := NewGormCollection[models.Video](db, cfg.Videos)
	if err != nil {
		db.Close()
		return nil, err
	}
	comments, err := NewGormCollection[models.Comment](db, cfg.Comments)
	if err != nil {
		db.Close()
		return nil, err
	}
	users, err := NewGormCollection[models.User](db, cfg.Users)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("opened SQLite database %s", cfg.SQLitePath)

	return &Store{
		Videos:   videos,
		Comments: comments,
		Users:    users,
		close:    func(context.Context) error { return db.Close() },
	}, nil
}

// Close releases the database connection.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
