package engine

import (
	"context"
	"testing"

	"github.com/linkup-app/linkup-server/cmd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectCreatesSymmetricConnection(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice")
	store.addUser(2, "bob")
	rec := &eventRecorder{}
	graph := NewGraph(store, rec)

	outcome, err := graph.Connect(context.Background(), 1, 1, 2)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)

	assert.Equal(t, []uint{2}, store.connections(1))
	assert.Equal(t, []uint{1}, store.connections(2))

	require.NotNil(t, rec.last())
	assert.Equal(t, models.ChannelUsers, rec.last().Channel)
	assert.Equal(t, models.ActionConnectOrBlockUser, rec.last().Action)

	change, ok := rec.last().Payload.(models.GraphChange)
	require.True(t, ok)
	assert.Equal(t, uint(1), change.User.ID)
	assert.Equal(t, uint(2), change.OtherUser.ID)
}

func TestConnectAlreadyConnectedIsNoOp(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice")
	store.addUser(2, "bob")
	store.connectBoth(1, 2)
	rec := &eventRecorder{}
	graph := NewGraph(store, rec)

	outcome, err := graph.Connect(context.Background(), 1, 1, 2)
	require.NoError(t, err)
	assert.False(t, outcome.Applied)

	// No duplicate entries on either side.
	assert.Equal(t, []uint{2}, store.connections(1))
	assert.Equal(t, []uint{1}, store.connections(2))

	// Clients still get notified so they can refresh.
	assert.Len(t, rec.events, 1)
}

func TestConnectSelfRejected(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice")
	graph := NewGraph(store, &eventRecorder{})

	_, err := graph.Connect(context.Background(), 1, 1, 1)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestConnectActorMismatchRejected(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice")
	store.addUser(2, "bob")
	rec := &eventRecorder{}
	graph := NewGraph(store, rec)

	_, err := graph.Connect(context.Background(), 3, 1, 2)
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.Empty(t, store.connections(1))
	assert.Empty(t, rec.events)
}

func TestConnectUnknownTarget(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice")
	graph := NewGraph(store, &eventRecorder{})

	_, err := graph.Connect(context.Background(), 1, 1, 99)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestBlockRemovesBothSides(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice")
	store.addUser(2, "bob")
	store.addUser(3, "carol")
	store.connectBoth(1, 2)
	store.connectBoth(1, 3)
	rec := &eventRecorder{}
	graph := NewGraph(store, rec)

	outcome, err := graph.Block(context.Background(), 1, 1, 2)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)

	assert.Equal(t, []uint{3}, store.connections(1))
	assert.Empty(t, store.connections(2))
	assert.Equal(t, []uint{1}, store.connections(3))
	assert.Len(t, rec.events, 1)
}

func TestBlockNotConnectedIsNoOp(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice")
	store.addUser(2, "bob")
	rec := &eventRecorder{}
	graph := NewGraph(store, rec)

	outcome, err := graph.Block(context.Background(), 1, 1, 2)
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Len(t, rec.events, 1)
}

func TestBlockHealsAsymmetricPair(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice")
	store.addUser(2, "bob")
	// Only bob holds alice; a one-sided row left by an earlier fault.
	store.conns[2] = append(store.conns[2], 1)
	graph := NewGraph(store, &eventRecorder{})

	outcome, err := graph.Block(context.Background(), 1, 1, 2)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Empty(t, store.connections(1))
	assert.Empty(t, store.connections(2))
}

func TestBlockSelfRejected(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice")
	graph := NewGraph(store, &eventRecorder{})

	_, err := graph.Block(context.Background(), 1, 1, 1)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}
