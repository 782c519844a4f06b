package database

import "errors"

var (
	ErrNotFound = errors.New("database: document not found")
	ErrConflict = errors.New("database: document already exists")
)
