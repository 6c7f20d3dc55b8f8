// Package store holds the user, access-code and broadcast stores.
// Each store owns one document and rewrites it as a whole on every mutation.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"botadmin/internal/database"
	"botadmin/lib/clock"
	"botadmin/lib/sl"
)

const ioTimeout = 10 * time.Second

type options struct {
	now        clock.Clock
	location   *time.Location
	codeLength int
	codeTTL    time.Duration
}

// Option customises a store.
type Option func(*options)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.now = c
	}
}

// WithLocation sets the timezone of last_seen values.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithCodes sets the access code length and lifetime.
func WithCodes(length int, ttl time.Duration) Option {
	return func(o *options) {
		if length > 0 {
			o.codeLength = length
		}
		if ttl > 0 {
			o.codeTTL = ttl
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:        clock.System,
		location:   time.UTC,
		codeLength: 8,
		codeTTL:    48 * time.Hour,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// load reads a document; it reports whether the document was missing.
// Decode and I/O failures are logged and reported as errors for the caller to degrade on.
func load(log *slog.Logger, docs database.Documents, name string, v interface{}) (missing bool, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()

	err = docs.Load(ctx, name, v)
	if errors.Is(err, database.ErrNotFound) {
		log.With(slog.String("document", name)).Debug("document not found, starting empty")
		return true, nil
	}
	if err != nil {
		log.With(slog.String("document", name)).Error("loading document", sl.Err(err))
		return false, err
	}
	return false, nil
}

// save writes a document. Failures are logged and swallowed: the in-memory state
// stays correct for this process and the write is lost.
func save(log *slog.Logger, docs database.Documents, name string, v interface{}) bool {
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()

	if err := docs.Save(ctx, name, v); err != nil {
		log.With(slog.String("document", name)).Error("saving document", sl.Err(err))
		return false
	}
	return true
}
