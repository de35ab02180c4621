// Package runlog keeps a bounded history of inference runs for the admin
// view. It is write-only from the request pipeline.
package runlog

import (
	"context"
	"time"
)

// Preview is a small thumbnail of one input image.
type Preview struct {
	MIMEType string `json:"mimetype"`
	Preview  string `json:"preview"`
}

// Run is one recorded inference call.
type Run struct {
	ID         string    `json:"id"`
	UseCase    string    `json:"useCase"`
	Prompt     string    `json:"prompt"`
	ResultText string    `json:"resultText"`
	Fallback   bool      `json:"fallback"`
	Images     []Preview `json:"images"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store persists runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ClampLimit bounds a requested page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// NopStore drops every run. It backs the service when no database or cache
// is configured.
type NopStore struct{}

func (NopStore) Record(context.Context, Run) error { return nil }

func (NopStore) Recent(context.Context, int) ([]Run, error) { return []Run{}, nil }

var _ Store = NopStore{}
