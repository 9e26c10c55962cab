package utils

import (
	"context"
	"time"
)

// WithTimeout bounds ctx by d. A d of zero or less means no deadline.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
