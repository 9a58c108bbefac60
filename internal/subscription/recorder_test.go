package subscription

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/internal/testutil"
)

func TestRecording_StoresThenDelivers(t *testing.T) {
	opener := &testutil.MockStreamOpener{}
	storage := testutil.NewMockStorage()
	logger, _ := zap.NewDevelopment()
	d := NewRecording(newTestLive(t, opener), storage, logger)

	var c collector
	sub, err := d.Subscribe("m1", c.add)
	require.NoError(t, err)
	defer sub.Cancel()

	opener.Last().Push("m1", `{"marketId":"m1","odds":70}`)

	require.Eventually(t, func() bool { return len(c.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	updates := storage.GetUpdates()
	require.Len(t, updates, 1)
	assert.Equal(t, "m1", updates[0].MarketID)
	assert.Equal(t, 70.0, updates[0].Odds)
}

func TestRecording_StorageFailureStillDelivers(t *testing.T) {
	opener := &testutil.MockStreamOpener{}
	storage := testutil.NewMockStorage()
	storage.Err = errors.New("disk full")
	logger, _ := zap.NewDevelopment()
	d := NewRecording(newTestLive(t, opener), storage, logger)

	var c collector
	sub, err := d.Subscribe("m1", c.add)
	require.NoError(t, err)
	defer sub.Cancel()

	opener.Last().Push("m1", `{"marketId":"m1","odds":12}`)

	require.Eventually(t, func() bool { return len(c.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, storage.GetUpdates())
}
