package graphstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsentinel/orchestrator/internal/model"
)

func TestShortestPathFindsTwoHopRoute(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertTransaction(ctx, model.Transaction{ChainID: "ethereum", Hash: "tx1", From: "a", To: "b", Timestamp: 1000}))
	require.NoError(t, store.UpsertTransaction(ctx, model.Transaction{ChainID: "ethereum", Hash: "tx2", From: "b", To: "c", Timestamp: 1100}))

	path, err := store.ShortestPath(ctx, model.Address{ChainID: "ethereum", Value: "a"}, model.Address{ChainID: "ethereum", Value: "c"}, 10, time.Hour)
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, "tx1", path[0].Hash)
	assert.Equal(t, "tx2", path[1].Hash)
}

func TestShortestPathRespectsMaxDepth(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertTransaction(ctx, model.Transaction{ChainID: "ethereum", Hash: "tx1", From: "a", To: "b", Timestamp: 1000}))
	require.NoError(t, store.UpsertTransaction(ctx, model.Transaction{ChainID: "ethereum", Hash: "tx2", From: "b", To: "c", Timestamp: 1100}))
	require.NoError(t, store.UpsertTransaction(ctx, model.Transaction{ChainID: "ethereum", Hash: "tx3", From: "c", To: "d", Timestamp: 1200}))

	path, err := store.ShortestPath(ctx, model.Address{ChainID: "ethereum", Value: "a"}, model.Address{ChainID: "ethereum", Value: "d"}, 1, time.Hour)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestTransactionsInWindow(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	addr := model.Address{ChainID: "ethereum", Value: "a"}

	require.NoError(t, store.UpsertTransaction(ctx, model.Transaction{ChainID: "ethereum", Hash: "tx1", From: "a", To: "b", Timestamp: 1000}))
	require.NoError(t, store.UpsertTransaction(ctx, model.Transaction{ChainID: "ethereum", Hash: "tx2", From: "a", To: "b", Timestamp: 5000}))

	txs, err := store.TransactionsInWindow(ctx, addr, time.Unix(900, 0).UTC(), time.Unix(1100, 0).UTC())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "tx1", txs[0].Hash)
}
