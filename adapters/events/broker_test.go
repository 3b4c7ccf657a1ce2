package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/shehrozeikram/CarWheels-sub000/adapters/events"
)

func TestBroker(t *testing.T) {
	defer goleak.VerifyNone(t)

	broker := events.NewBroker[BidEvent](nil)
	broker.Start()
	defer broker.Done()

	// 測試訂閱
	ch, err := broker.Subscribe("listing-1")
	assert.NoError(t, err)
	assert.NotNil(t, ch)

	// 測試發布訊息
	msg := BidEvent{Amount: 500000, Bidder: "ali"}
	err = broker.Publish("listing-1", msg)
	assert.NoError(t, err)

	select {
	case received := <-ch:
		assert.Equal(t, msg, received)
	case <-time.After(time.Second):
		t.Fatal("did not receive event in time")
	}

	// 測試取消訂閱
	broker.Unsubscribe("listing-1", ch)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
}

func TestBrokerTopicsAreIsolated(t *testing.T) {
	defer goleak.VerifyNone(t)

	broker := events.NewBroker[BidEvent](nil)
	broker.Start()
	defer broker.Done()

	chA, err := broker.Subscribe("listing-a")
	assert.NoError(t, err)
	chB, err := broker.Subscribe("listing-b")
	assert.NoError(t, err)

	assert.NoError(t, broker.Publish("listing-a", BidEvent{Amount: 1}))

	select {
	case received := <-chA:
		assert.Equal(t, int64(1), received.Amount)
	case <-time.After(time.Second):
		t.Fatal("did not receive event in time")
	}

	// listing-b 不應該收到 listing-a 的事件
	select {
	case unexpected := <-chB:
		t.Fatalf("unexpected event on other topic: %+v", unexpected)
	case <-time.After(50 * time.Millisecond):
	}

	broker.Unsubscribe("listing-a", chA)
	broker.Unsubscribe("listing-b", chB)
}

func TestBrokerAfterDone(t *testing.T) {
	defer goleak.VerifyNone(t)

	broker := events.NewBroker[BidEvent](nil)
	broker.Start()
	broker.Done()

	_, err := broker.Subscribe("listing-1")
	assert.ErrorIs(t, err, context.Canceled)

	err = broker.Publish("listing-1", BidEvent{Amount: 1})
	assert.ErrorIs(t, err, context.Canceled)

	// 重複停止是無害的
	assert.NotPanics(t, broker.Done)
}
