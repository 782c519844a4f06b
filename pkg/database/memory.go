package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"video-portal/pkg/models"
)

// MemoryCollection keeps documents in process memory. It backs the "memory"
// driver and the handler tests.
type MemoryCollection[T Document] struct {
	mu   sync.RWMutex
	docs map[string]T
}

var _ Collection[models.Video] = (*MemoryCollection[models.Video])(nil)

func NewMemoryCollection[T Document]() *MemoryCollection[T] {
	return &MemoryCollection[T]{docs: make(map[string]T)}
}

func (m *MemoryCollection[T]) ListAll(ctx context.Context, s Sort) ([]T, error) {
	return m.list(s, func(map[string]any) bool { return true })
}

func (m *MemoryCollection[T]) ListFiltered(ctx context.Context, field, value string, s Sort) ([]T, error) {
	return m.list(s, func(fields map[string]any) bool {
		v, ok := fields[field]
		return ok && fmt.Sprint(v) == value
	})
}

func (m *MemoryCollection[T]) list(s Sort, match func(map[string]any) bool) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type row struct {
		doc T
		key string
	}
	rows := make([]row, 0, len(m.docs))
	for _, doc := range m.docs {
		fields, err := fieldsOf(doc)
		if err != nil {
			return nil, err
		}
		if !match(fields) {
			continue
		}
		rows = append(rows, row{doc: doc, key: fmt.Sprint(fields[s.Field])})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].key == rows[j].key {
			return rows[i].doc.DocumentID() < rows[j].doc.DocumentID()
		}
		if s.Desc {
			return rows[i].key > rows[j].key
		}
		return rows[i].key < rows[j].key
	})

	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = r.doc
	}
	return out, nil
}

func (m *MemoryCollection[T]) Get(ctx context.Context, id string) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (m *MemoryCollection[T]) Create(ctx context.Context, doc *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := (*doc).DocumentID()
	if _, ok := m.docs[id]; ok {
		return ErrConflict
	}
	m.docs[id] = *doc
	return nil
}

func (m *MemoryCollection[T]) CreateIfAbsent(ctx context.Context, doc *T) (bool, error) {
	switch err := m.Create(ctx, doc); err {
	case nil:
		return true, nil
	case ErrConflict:
		return false, nil
	default:
		return false, err
	}
}

func (m *MemoryCollection[T]) Replace(ctx context.Context, doc *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := (*doc).DocumentID()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	m.docs[id] = *doc
	return nil
}

func (m *MemoryCollection[T]) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *MemoryCollection[T]) Increment(ctx context.Context, id, field string, delta int) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	fields, err := fieldsOf(doc)
	if err != nil {
		return nil, err
	}
	n, ok := fields[field].(float64)
	if !ok {
		return nil, fmt.Errorf("increment %s: field is not numeric", field)
	}
	fields[field] = n + float64(delta)

	var updated T
	if err := remarshal(fields, &updated); err != nil {
		return nil, err
	}
	m.docs[id] = updated
	return &updated, nil
}

// Len reports the number of stored documents.
func (m *MemoryCollection[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func fieldsOf(doc any) (map[string]any, error) {
	fields := make(map[string]any)
	if err := remarshal(doc, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func remarshal(in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
