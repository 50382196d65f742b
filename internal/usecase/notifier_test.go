package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/spot_arbitrage_bot/internal/domain"
)

func TestMultiNotifier_DeliversToAll(t *testing.T) {
	failing := &RecordingNotifier{Err: errors.New("offline")}
	ok := &RecordingNotifier{}
	m := MultiNotifier{failing, ok}

	err := m.Notify(context.Background(), domain.Alert{Key: "BTCUSDT"})
	assert.ErrorContains(t, err, "offline")
	assert.Len(t, failing.Snapshot(), 1)
	assert.Len(t, ok.Snapshot(), 1)

	assert.NoError(t, MultiNotifier{ok}.Notify(context.Background(), domain.Alert{}))
}
