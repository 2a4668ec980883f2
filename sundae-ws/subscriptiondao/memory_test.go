package subscriptiondao

import (
	"context"
	"testing"

	"github.com/tj/assert"
)

func TestMemory(t *testing.T) {
	var (
		ctx    = context.Background()
		memory = NewMemory()
		err    error
	)

	err = memory.Put(ctx, Subscription{ConnectionID: "a", TopicKey: "vehicleId", TopicValue: "V1", TTL: 100})
	assert.Nil(t, err)

	// a second put for the same connection replaces the first
	err = memory.Put(ctx, Subscription{ConnectionID: "a", TopicKey: "vehicleId", TopicValue: "V2", TTL: 200})
	assert.Nil(t, err)

	err = memory.Put(ctx, Subscription{ConnectionID: "b", TopicKey: "vehicleId", TopicValue: "V1", TTL: 300})
	assert.Nil(t, err)

	got, err := memory.Get(ctx, "a")
	assert.Nil(t, err)
	assert.Equal(t, &Subscription{ConnectionID: "a", TopicKey: "vehicleId", TopicValue: "V2", TTL: 200}, got)

	n, err := memory.Count(ctx)
	assert.Nil(t, err)
	assert.EqualValues(t, 2, n)

	subs, err := memory.ListAll(ctx, AttrConnectionID, AttrTopicValue)
	assert.Nil(t, err)
	assert.Len(t, subs, 2)
	for _, sub := range subs {
		assert.NotEqual(t, "", sub.ConnectionID)
		assert.NotEqual(t, "", sub.TopicValue)
		assert.Equal(t, "", sub.TopicKey)
		assert.EqualValues(t, 0, sub.TTL)
	}

	subs, err = memory.ListAll(ctx)
	assert.Nil(t, err)
	for _, sub := range subs {
		assert.Equal(t, "vehicleId", sub.TopicKey)
		assert.NotZero(t, sub.TTL)
	}

	err = memory.Delete(ctx, "a")
	assert.Nil(t, err)

	// deleting twice is fine
	err = memory.Delete(ctx, "a")
	assert.Nil(t, err)

	got, err = memory.Get(ctx, "a")
	assert.Nil(t, err)
	assert.Nil(t, got)

	n, err = memory.Count(ctx)
	assert.Nil(t, err)
	assert.EqualValues(t, 1, n)
}
