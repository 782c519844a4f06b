package database

import "context"

// Document is implemented by every stored model. The id is the sole key of a
// collection in every driver.
type Document interface {
	DocumentID() string
}

// Sort orders a listing by one document field.
type Sort struct {
	Field string
	Desc  bool
}

// Collection is a logical set of documents of one type. Field names are the
// documents' JSON names.
type Collection[T Document] interface {
	ListAll(ctx context.Context, sort Sort) ([]T, error)
	ListFiltered(ctx context.Context, field, value string, sort Sort) ([]T, error)
	// Get returns ErrNotFound when no document has the id.
	Get(ctx context.Context, id string) (*T, error)
	// Create returns ErrConflict when the id is taken.
	Create(ctx context.Context, doc *T) error
	// CreateIfAbsent inserts doc unless its id exists; created reports which.
	CreateIfAbsent(ctx context.Context, doc *T) (created bool, err error)
	Replace(ctx context.Context, doc *T) error
	Delete(ctx context.Context, id string) error
	// Increment atomically adds delta to an integer field and returns the
	// updated document.
	Increment(ctx context.Context, id, field string, delta int) (*T, error)
}
