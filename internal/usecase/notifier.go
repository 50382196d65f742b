package usecase

import (
	"context"
	"errors"

	"github.com/vitos/spot_arbitrage_bot/internal/domain"
)

// MultiNotifier hands every alert to each notifier in turn. One failing
// notifier does not stop delivery to the rest.
type MultiNotifier []domain.Notifier

func (m MultiNotifier) Notify(ctx context.Context, alert domain.Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
