// Package repository defines the critique history store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/gallerist/curio/internal/domain/scoring"
)

// Record is one stored critique result.
type Record struct {
	ID        string             `json:"id"`
	Persona   string             `json:"persona"`
	Item      scoring.ScoredItem `json:"item"`
	CreatedAt time.Time          `json:"created_at"`
}

// Store provides read/write access to the critique history.
type Store interface {
	// Put stores a critique record, overwriting any previous record with
	// the same ID.
	Put(ctx context.Context, rec Record) error

	// Get returns the record for an ID.
	// Returns ErrNotFound if the ID is unknown.
	Get(ctx context.Context, id string) (Record, error)

	// List returns up to limit records, most recent first. An empty
	// persona matches all personas.
	List(ctx context.Context, persona string, limit int) ([]Record, error)

	// Count returns the number of records currently stored.
	Count(ctx context.Context) int
}
