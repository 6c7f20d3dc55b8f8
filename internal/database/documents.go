// Package database persists whole JSON documents: every mutation overwrites the document.
package database

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when the named document does not exist yet.
var ErrNotFound = errors.New("document not found")

// Documents loads and saves named documents as a whole.
type Documents interface {
	Load(ctx context.Context, name string, v interface{}) error
	Save(ctx context.Context, name string, v interface{}) error
}
