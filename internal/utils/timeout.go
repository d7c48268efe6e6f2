package utils

import (
	"context"
	"time"
)

const (
	// DefaultDBTimeout caps a single repository query.
	DefaultDBTimeout = 5 * time.Second

	// DefaultConnTimeout bounds startup connectivity checks against
	// Postgres and Redis so a dead backend fails fast instead of
	// hanging boot.
	DefaultConnTimeout = 5 * time.Second
)

func WithDBTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultDBTimeout)
}

func WithConnTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultConnTimeout)
}
