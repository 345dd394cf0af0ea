package sse_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/gleamverse/readsync/internal/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastFiltersByOwner(t *testing.T) {
	m := sse.NewManager(slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	alice, err := m.Connect("alice")
	require.NoError(t, err)
	bob, err := m.Connect("bob")
	require.NoError(t, err)

	m.EmitToOwner("alice", sse.NewEvent(sse.EventBookmarkAdded, "", map[string]string{"book_id": "book-a"}))

	select {
	case event := <-alice.EventChan:
		assert.Equal(t, sse.EventBookmarkAdded, event.Type)
		assert.Equal(t, "alice", event.OwnerID)
	case <-time.After(2 * time.Second):
		t.Fatal("alice never received the event")
	}

	select {
	case event := <-bob.EventChan:
		t.Fatalf("bob received event scoped to alice: %v", event.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcastEventReachesEveryone(t *testing.T) {
	m := sse.NewManager(slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	alice, err := m.Connect("alice")
	require.NoError(t, err)
	bob, err := m.Connect("bob")
	require.NoError(t, err)

	m.Emit(sse.NewEvent(sse.EventCatalogReloaded, "", nil))

	for _, client := range []*sse.Client{alice, bob} {
		select {
		case event := <-client.EventChan:
			assert.Equal(t, sse.EventCatalogReloaded, event.Type)
		case <-time.After(2 * time.Second):
			t.Fatal("client never received broadcast event")
		}
	}
}

func TestDisconnectRemovesClient(t *testing.T) {
	m := sse.NewManager(slog.New(slog.DiscardHandler))

	client, err := m.Connect("alice")
	require.NoError(t, err)
	require.Equal(t, 1, m.ClientCount())

	m.Disconnect(client.ID)
	assert.Equal(t, 0, m.ClientCount())

	// Disconnecting twice is harmless.
	m.Disconnect(client.ID)
}
