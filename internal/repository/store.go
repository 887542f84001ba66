// Package repository provides the snapshot stores backing the ledger.
package repository

import (
	"context"
	"errors"
)

// Common errors for store operations.
var (
	// ErrNoSnapshot is returned by Load when nothing has been saved yet.
	ErrNoSnapshot = errors.New("no snapshot stored")
)

// Store persists the whole ledger document as one opaque blob.
// Every Save replaces the previous document.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
	Ping(ctx context.Context) error
}
