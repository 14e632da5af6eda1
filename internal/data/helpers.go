package data

import (
	"context"
	"time"
)

const (
	defaultTimeout = 3 * time.Second
	reportTimeout  = 10 * time.Second
)

func getContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}
