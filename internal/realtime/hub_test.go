package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesOnlyMatchingCollection(t *testing.T) {
	h := NewHub()
	products, cancelP := h.Subscribe(Products)
	defer cancelP()
	txs, cancelT := h.Subscribe(Transactions)
	defer cancelT()

	h.Publish(Change{Collection: Products})

	select {
	case c := <-products:
		assert.Equal(t, Products, c.Collection)
	default:
		t.Fatal("products subscriber did not receive the change")
	}

	select {
	case <-txs:
		t.Fatal("transactions subscriber should not be notified")
	default:
	}
}

func TestPendingChangesCoalesce(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(MarkedRows)
	defer cancel()

	h.Publish(Change{Collection: MarkedRows})
	h.Publish(Change{Collection: MarkedRows})
	h.Publish(Change{Collection: MarkedRows})

	<-ch
	select {
	case <-ch:
		t.Fatal("only one pending change expected")
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(Products)
	require.Equal(t, 1, h.Subscribers(Products))

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers(Products))

	h.Publish(Change{Collection: Products})
}

func TestForwardOnlyOnPublish(t *testing.T) {
	h := NewHub()
	var forwarded []Change
	h.Forward(func(c Change) { forwarded = append(forwarded, c) })

	h.Publish(Change{Collection: Products})
	h.Deliver(Change{Collection: Transactions, Origin: "other"})

	require.Len(t, forwarded, 1)
	assert.Equal(t, Products, forwarded[0].Collection)
}

func TestChangeCodec(t *testing.T) {
	payload, err := encodeChange(Change{Collection: Transactions, Origin: "abc"})
	require.NoError(t, err)

	c, err := decodeChange(payload)
	require.NoError(t, err)
	assert.Equal(t, Change{Collection: Transactions, Origin: "abc"}, c)

	_, err = decodeChange(`{"origin":"abc"}`)
	assert.Error(t, err)
	_, err = decodeChange(`not json`)
	assert.Error(t, err)
}
