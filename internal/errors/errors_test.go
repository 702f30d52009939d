package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindTerminal(t *testing.T) {
	assert.True(t, KindInvalidInput.Terminal())
	assert.True(t, KindStoreUnavailable.Terminal())
	assert.True(t, KindInternal.Terminal())
	assert.False(t, KindProviderUnavailable.Terminal())
	assert.False(t, KindProviderRejected.Terminal())
	assert.False(t, KindTimeout.Terminal())
	assert.False(t, KindCancelled.Terminal())
}

func TestEngineErrorUnwrapAndMessage(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := ProviderUnavailable("chainalysis-risk", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "provider_unavailable")
	assert.Contains(t, err.Error(), "dial tcp")
}

func TestWithDetailAccumulates(t *testing.T) {
	err := InvalidInput("address", "unsupported chain")
	assert.Equal(t, "address", err.Details["field"])
	assert.Equal(t, "unsupported chain", err.Details["reason"])
}

func TestAsExtractsEngineError(t *testing.T) {
	wrapped := Wrap(KindTimeout, "deep scan timed out", errors.New("context deadline exceeded"))
	var plain error = wrapped

	ee, ok := As(plain)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, ee.Kind)
}

func TestAsFailsOnPlainError(t *testing.T) {
	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("unrelated")))
	assert.Equal(t, KindProviderRejected, KindOf(ProviderRejected("arkham-entity", 403, nil)))
}
