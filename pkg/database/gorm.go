package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"

	"video-portal/pkg/models"
)

// GormCollection stores documents as rows of one table, one column per field.
// Column names equal the documents' JSON names. jinzhu/gorm v1 has no context
// support, so ctx is ignored.
type GormCollection[T Document] struct {
	db    *gorm.DB
	table string
}

var _ Collection[models.Video] = (*GormCollection[models.Video])(nil)

// NewGormCollection migrates the table for T and returns a collection over it.
func NewGormCollection[T Document](db *gorm.DB, table string) (*GormCollection[T], error) {
	if err := db.Table(table).AutoMigrate(new(T)).Error; err != nil {
		return nil, fmt.Errorf("migrate %s: %w", table, err)
	}
	return &GormCollection[T]{db: db, table: table}, nil
}

func openSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite serialises writers; one connection avoids "database is locked".
	db.DB().SetMaxOpenConns(1)
	return db, nil
}

func (g *GormCollection[T]) ListAll(ctx context.Context, s Sort) ([]T, error) {
	if !validColumn(s.Field) {
		return nil, fmt.Errorf("list %s: invalid sort field %q", g.table, s.Field)
	}
	docs := []T{}
	err := g.db.Table(g.table).Order(orderClause(s)).Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", g.table, err)
	}
	return docs, nil
}

func (g *GormCollection[T]) ListFiltered(ctx context.Context, field, value string, s Sort) ([]T, error) {
	if !validColumn(field) || !validColumn(s.Field) {
		return nil, fmt.Errorf("list %s: invalid field %q", g.table, field)
	}
	docs := []T{}
	err := g.db.Table(g.table).Where(field+" = ?", value).Order(orderClause(s)).Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list %s by %s: %w", g.table, field, err)
	}
	return docs, nil
}

func (g *GormCollection[T]) Get(ctx context.Context, id string) (*T, error) {
	return g.get(g.db, id)
}

func (g *GormCollection[T]) get(db *gorm.DB, id string) (*T, error) {
	var doc T
	err := db.Table(g.table).Where("id = ?", id).First(&doc).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", g.table, id, err)
	}
	return &doc, nil
}

func (g *GormCollection[T]) Create(ctx context.Context, doc *T) error {
	id := (*doc).DocumentID()
	tx, err := g.begin("insert", id)
	if err != nil {
		return err
	}
	if _, err := g.get(tx, id); err == nil {
		tx.Rollback()
		return ErrConflict
	} else if err != ErrNotFound {
		tx.Rollback()
		return err
	}
	if err := tx.Table(g.table).Create(doc).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("insert into %s: %w", g.table, err)
	}
	return tx.Commit().Error
}

func (g *GormCollection[T]) CreateIfAbsent(ctx context.Context, doc *T) (bool, error) {
	err := g.Create(ctx, doc)
	if err == ErrConflict {
		return false, nil
	}
	return err == nil, err
}

func (g *GormCollection[T]) Replace(ctx context.Context, doc *T) error {
	id := (*doc).DocumentID()
	tx, err := g.begin("replace", id)
	if err != nil {
		return err
	}
	if _, err := g.get(tx, id); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Table(g.table).Save(doc).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("replace %s/%s: %w", g.table, id, err)
	}
	return tx.Commit().Error
}

func (g *GormCollection[T]) Delete(ctx context.Context, id string) error {
	res := g.db.Exec("DELETE FROM "+g.table+" WHERE id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", g.table, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormCollection[T]) Increment(ctx context.Context, id, field string, delta int) (*T, error) {
	if !validColumn(field) {
		return nil, fmt.Errorf("increment %s: invalid field %q", g.table, field)
	}
	tx, err := g.begin("increment", id)
	if err != nil {
		return nil, err
	}
	res := tx.Exec("UPDATE "+g.table+" SET "+field+" = "+field+" + ? WHERE id = ?", delta, id)
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("increment %s/%s.%s: %w", g.table, id, field, res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrNotFound
	}
	doc, err := g.get(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return doc, tx.Commit().Error
}

func (g *GormCollection[T]) begin(op, id string) (*gorm.DB, error) {
	tx := g.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("%s %s/%s: begin: %w", op, g.table, id, tx.Error)
	}
	return tx, nil
}

func orderClause(s Sort) string {
	dir := "asc"
	if s.Desc {
		dir = "desc"
	}
	return fmt.Sprintf("%s %s, id asc", s.Field, dir)
}

// validColumn guards the field names spliced into SQL.
func validColumn(name string) bool {
	if name == "" {
		return false
	}
	return strings.IndexFunc(name, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) < 0
}
