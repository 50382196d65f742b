package domain

import (
	"context"
	"time"
)

// PriceFeed is one exchange's public spot ticker source.
type PriceFeed interface {
	Name() string
	FetchPrices(ctx context.Context) (PriceSnapshot, error)
}

// Notifier delivers an alert to a destination. Delivery is fire-and-forget:
// callers log a returned error but never retry.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// CooldownStore persists the last alert time per key so that suppression
// windows survive a restart. Namespaces keep independent gates apart.
type CooldownStore interface {
	LoadCooldowns(ctx context.Context, namespace string) (map[string]time.Time, error)
	SaveCooldown(ctx context.Context, namespace, key string, sentAt time.Time) error
	DeleteCooldownsBefore(ctx context.Context, namespace string, cutoff time.Time) error
	Close() error
}
