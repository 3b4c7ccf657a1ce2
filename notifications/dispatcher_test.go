package notifications_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/shehrozeikram/CarWheels-sub000/adapters/events"
	"github.com/shehrozeikram/CarWheels-sub000/models"
	"github.com/shehrozeikram/CarWheels-sub000/notifications"
)

func TestAddIsNewestFirst(t *testing.T) {
	d := notifications.New(nil)

	d.Add(models.NotificationBidPlaced, map[string]any{"seq": 1})
	d.Add(models.NotificationPromotion, map[string]any{"seq": 2})

	items := d.List()
	require.Len(t, items, 2)
	assert.Equal(t, models.NotificationPromotion, items[0].Kind)
	assert.False(t, items[0].Read)
	assert.NotEmpty(t, items[0].ID)
}

func TestCapEvictsOldest(t *testing.T) {
	d := notifications.New(nil)

	for i := 0; i < notifications.DefaultCap; i++ {
		d.Add(models.NotificationBidPlaced, map[string]any{"seq": i})
	}
	require.Len(t, d.List(), notifications.DefaultCap)

	// 第 51 則必須淘汰最舊的一則，長度維持在 50
	d.Add(models.NotificationBidPlaced, map[string]any{"seq": notifications.DefaultCap})
	items := d.List()
	require.Len(t, items, notifications.DefaultCap)
	assert.Equal(t, notifications.DefaultCap, items[0].Payload["seq"])
	assert.Equal(t, 1, items[len(items)-1].Payload["seq"])
}

func TestMarkReadAndMarkAllRead(t *testing.T) {
	d := notifications.New(nil)
	first := d.Add(models.NotificationBidPlaced, nil)
	d.Add(models.NotificationBidPlaced, nil)

	d.MarkRead(first.ID)
	assert.Equal(t, 1, d.Unread())

	// 未知 ID 為 no-op
	assert.NotPanics(t, func() { d.MarkRead("missing") })

	d.MarkAllRead()
	assert.Zero(t, d.Unread())
}

func TestRemoveAtOutOfRangeIsNoop(t *testing.T) {
	d := notifications.New(nil)
	d.Add(models.NotificationBidPlaced, nil)

	assert.NotPanics(t, func() {
		d.RemoveAt(-1)
		d.RemoveAt(5)
	})
	assert.Len(t, d.List(), 1)

	d.RemoveAt(0)
	assert.Empty(t, d.List())
}

func TestClearAll(t *testing.T) {
	d := notifications.New(nil)
	for i := 0; i < 3; i++ {
		d.Add(models.NotificationPromotion, nil)
	}
	d.ClearAll()
	assert.Empty(t, d.List())
}

func TestAddBroadcastsOnBroker(t *testing.T) {
	defer goleak.VerifyNone(t)

	broker := events.NewBroker[models.Notification](nil)
	broker.Start()
	defer broker.Done()

	ch, err := broker.Subscribe(notifications.Topic)
	require.NoError(t, err)
	defer broker.Unsubscribe(notifications.Topic, ch)

	d := notifications.New(nil, notifications.WithBroker(broker))
	sent := d.Add(models.NotificationBidPlaced, map[string]any{"listingId": "x"})

	select {
	case received := <-ch:
		assert.Equal(t, sent.ID, received.ID)
	case <-time.After(time.Second):
		t.Fatal("did not receive notification in time")
	}
}

func TestWithCapOverride(t *testing.T) {
	d := notifications.New(nil, notifications.WithCap(3))
	for i := 0; i < 5; i++ {
		d.Add(models.NotificationBidPlaced, map[string]any{"seq": fmt.Sprint(i)})
	}
	assert.Len(t, d.List(), 3)
}
