package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient implements ClientInterface for hub tests. Sends are
// delivered on a channel because Broadcast fans out asynchronously.
type fakeClient struct {
	id         string
	wishlistID uuid.UUID
	received   chan []byte
	failSend   bool

	mu     sync.Mutex
	closed bool
}

func newFakeClient(wishlistID uuid.UUID) *fakeClient {
	return &fakeClient{
		id:         uuid.NewString(),
		wishlistID: wishlistID,
		received:   make(chan []byte, 16),
	}
}

func (c *fakeClient) ID() string            { return c.id }
func (c *fakeClient) WishlistID() uuid.UUID { return c.wishlistID }

func (c *fakeClient) Send(data []byte) error {
	if c.failSend {
		return ErrClientClosed
	}
	c.received <- data
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func waitForMessage(t *testing.T, c *fakeClient) []byte {
	t.Helper()
	select {
	case data := <-c.received:
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func assertNoMessage(t *testing.T, c *fakeClient) {
	t.Helper()
	select {
	case data := <-c.received:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RegisterAndCount(t *testing.T) {
	hub := NewHub()
	wishlistID := uuid.New()

	hub.Register(newFakeClient(wishlistID))
	hub.Register(newFakeClient(wishlistID))
	hub.Register(newFakeClient(uuid.New()))

	assert.Equal(t, 2, hub.ClientCount(wishlistID))
	assert.Equal(t, 3, hub.TotalClientCount())
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	wishlistID := uuid.New()
	client := newFakeClient(wishlistID)

	hub.Register(client)
	hub.Unregister(client)

	assert.Equal(t, 0, hub.ClientCount(wishlistID))

	// Unregistering twice is a no-op.
	hub.Unregister(client)
	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_BroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	wishlistID := uuid.New()
	first := newFakeClient(wishlistID)
	second := newFakeClient(wishlistID)
	hub.Register(first)
	hub.Register(second)

	itemID := uuid.New()
	hub.Broadcast(wishlistID, ItemAdded(itemID))

	for _, client := range []*fakeClient{first, second} {
		data := waitForMessage(t, client)
		assert.Contains(t, string(data), EventItemAdded)
		assert.Contains(t, string(data), itemID.String())
	}
}

func TestHub_BroadcastIsScopedToWishlist(t *testing.T) {
	hub := NewHub()
	wishlistID := uuid.New()
	subscriber := newFakeClient(wishlistID)
	bystander := newFakeClient(uuid.New())
	hub.Register(subscriber)
	hub.Register(bystander)

	hub.Broadcast(wishlistID, ItemAdded(uuid.New()))

	waitForMessage(t, subscriber)
	assertNoMessage(t, bystander)
}

func TestHub_BroadcastToEmptyWishlist(t *testing.T) {
	hub := NewHub()

	// Must not panic or block.
	hub.Broadcast(uuid.New(), ItemAdded(uuid.New()))
}

func TestHub_FailedSendDropsClient(t *testing.T) {
	hub := NewHub()
	wishlistID := uuid.New()
	client := newFakeClient(wishlistID)
	client.failSend = true
	hub.Register(client)

	hub.Broadcast(wishlistID, ItemAdded(uuid.New()))

	require.Eventually(t, func() bool {
		return hub.ClientCount(wishlistID) == 0 && client.isClosed()
	}, time.Second, 10*time.Millisecond)
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub()
	wishlistID := uuid.New()
	first := newFakeClient(wishlistID)
	second := newFakeClient(wishlistID)
	survivor := newFakeClient(uuid.New())
	hub.Register(first)
	hub.Register(second)
	hub.Register(survivor)

	hub.CloseAll(wishlistID)

	assert.Equal(t, 0, hub.ClientCount(wishlistID))
	assert.Equal(t, 1, hub.TotalClientCount())
	assert.True(t, first.isClosed())
	assert.True(t, second.isClosed())
	assert.False(t, survivor.isClosed())
}
