package evidence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainsentinel/orchestrator/internal/model"
)

func sampleFinding(id string) model.Finding {
	return model.Finding{
		ID:         id,
		Subject:    model.AddressSubject(model.Address{ChainID: "ethereum", Value: "0xabc"}),
		Kind:       model.FindingRiskScore,
		Severity:   model.SeverityLow,
		Confidence: 0.75,
		SourceID:   "ml-risk-scorer",
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAppendAssignsMonotonicSequence(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Append(ctx, "inv-1", sampleFinding("f"+string(rune('0'+i))))
		require.NoError(t, err)
	}

	entries, err := store.List(ctx, "inv-1")
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i, e := range entries {
		require.Equal(t, int64(i+1), e.Sequence)
	}
}

func TestVerifyRecomputesHash(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	ev, err := store.Append(ctx, "inv-1", sampleFinding("f1"))
	require.NoError(t, err)
	require.True(t, store.Verify(ctx, ev))

	tampered := ev
	tampered.ContentHash = "not-the-hash"
	require.False(t, store.Verify(ctx, tampered))
}

func TestPurgeRemovesWholeInvestigation(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_, err := store.Append(ctx, "inv-old", sampleFinding("f1"))
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	cutoff := time.Now()
	time.Sleep(time.Millisecond)

	_, err = store.Append(ctx, "inv-new", sampleFinding("f2"))
	require.NoError(t, err)

	removed, err := store.Purge(ctx, cutoff)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	entries, _ := store.List(ctx, "inv-old")
	require.Empty(t, entries)

	entries, _ = store.List(ctx, "inv-new")
	require.Len(t, entries, 1)
}

func TestContentHashDeterministic(t *testing.T) {
	f := sampleFinding("f1")
	h1, err := ContentHash(f)
	require.NoError(t, err)
	h2, err := ContentHash(f)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}
