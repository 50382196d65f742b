package usecase

import (
	"context"
	"time"

	"github.com/vitos/spot_arbitrage_bot/internal/domain"
	"go.uber.org/zap"
)

const (
	NamespaceSymbol = "symbol"
	NamespaceFeed   = "feed"
)

// AlertGate suppresses repeat alerts for the same key inside a cooldown
// window. It is not safe for concurrent use; the scheduler owns it.
type AlertGate struct {
	namespace string
	window    time.Duration
	last      map[string]time.Time
	store     domain.CooldownStore // optional
	logger    *zap.Logger
}

func NewAlertGate(namespace string, window time.Duration, store domain.CooldownStore, logger *zap.Logger) *AlertGate {
	return &AlertGate{
		namespace: namespace,
		window:    window,
		last:      make(map[string]time.Time),
		store:     store,
		logger:    logger.With(zap.String("gate", namespace)),
	}
}

func (g *AlertGate) Window() time.Duration {
	return g.window
}

// ShouldEmit reports whether at least one window has passed since key was
// last recorded. Unknown keys always pass.
func (g *AlertGate) ShouldEmit(key string, now time.Time) bool {
	last, ok := g.last[key]
	if !ok {
		return true
	}
	return now.Sub(last) >= g.window
}

// Record marks key as alerted at now, overwriting any previous entry.
func (g *AlertGate) Record(ctx context.Context, key string, now time.Time) {
	g.last[key] = now
	if g.store == nil {
		return
	}
	if err := g.store.SaveCooldown(ctx, g.namespace, key, now); err != nil {
		g.logger.Warn("Failed to persist cooldown", zap.String("key", key), zap.Error(err))
	}
}

// Prune forgets keys whose window has already elapsed; ShouldEmit would
// return true for them anyway.
func (g *AlertGate) Prune(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-g.window)
	removed := 0
	for key, last := range g.last {
		if !last.After(cutoff) {
			delete(g.last, key)
			removed++
		}
	}
	if removed > 0 && g.store != nil {
		if err := g.store.DeleteCooldownsBefore(ctx, g.namespace, cutoff); err != nil {
			g.logger.Warn("Failed to prune persisted cooldowns", zap.Error(err))
		}
	}
	return removed
}

// Restore loads persisted entries, keeping the newest timestamp per key.
func (g *AlertGate) Restore(ctx context.Context) error {
	if g.store == nil {
		return nil
	}
	entries, err := g.store.LoadCooldowns(ctx, g.namespace)
	if err != nil {
		return err
	}
	for key, at := range entries {
		if cur, ok := g.last[key]; !ok || at.After(cur) {
			g.last[key] = at
		}
	}
	g.logger.Info("Restored cooldowns", zap.Int("count", len(entries)))
	return nil
}

func (g *AlertGate) Len() int {
	return len(g.last)
}
