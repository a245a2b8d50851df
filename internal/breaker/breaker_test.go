package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func failing(ctx context.Context) error { return errBoom }
func succeeding(ctx context.Context) error { return nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	ctx := context.Background()
	b := New(Options{FailureThreshold: 3, Cooldown: time.Minute})

	for i := 0; i < 3; i++ {
		err := b.Do(ctx, failing)
		require.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, Open, b.State())

	// Open fails fast without invoking the operation.
	calls := 0
	err := b.Do(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 0, calls)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	ctx := context.Background()
	b := New(Options{FailureThreshold: 3, Cooldown: time.Minute})

	require.ErrorIs(t, b.Do(ctx, failing), errBoom)
	require.ErrorIs(t, b.Do(ctx, failing), errBoom)
	require.NoError(t, b.Do(ctx, succeeding))
	require.ErrorIs(t, b.Do(ctx, failing), errBoom)
	require.ErrorIs(t, b.Do(ctx, failing), errBoom)

	// Never hit 3 consecutive failures.
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b := New(Options{FailureThreshold: 1, Cooldown: time.Minute})
	b.SetNowFunc(func() time.Time { return now })

	require.ErrorIs(t, b.Do(ctx, failing), errBoom)
	assert.Equal(t, Open, b.State())

	now = now.Add(61 * time.Second)
	assert.Equal(t, HalfOpen, b.State())
}

func TestBreaker_ProbeSuccessCloses(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b := New(Options{FailureThreshold: 1, Cooldown: time.Minute})
	b.SetNowFunc(func() time.Time { return now })

	require.ErrorIs(t, b.Do(ctx, failing), errBoom)
	now = now.Add(2 * time.Minute)

	require.NoError(t, b.Do(ctx, succeeding))
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_ProbeFailureReopens(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b := New(Options{FailureThreshold: 1, Cooldown: time.Minute})
	b.SetNowFunc(func() time.Time { return now })

	require.ErrorIs(t, b.Do(ctx, failing), errBoom)
	now = now.Add(2 * time.Minute)

	require.ErrorIs(t, b.Do(ctx, failing), errBoom)
	assert.Equal(t, Open, b.State())

	// Still open within the fresh cooldown window.
	now = now.Add(30 * time.Second)
	require.ErrorIs(t, b.Do(ctx, succeeding), ErrOpen)

	// Reopens for a full cooldown, then admits a probe again.
	now = now.Add(31 * time.Second)
	require.NoError(t, b.Do(ctx, succeeding))
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_StateChangeHook(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	type change struct{ from, to State }
	var changes []change

	b := New(Options{
		FailureThreshold: 1,
		Cooldown:         time.Minute,
		OnStateChange:    func(from, to State) { changes = append(changes, change{from, to}) },
	})
	b.SetNowFunc(func() time.Time { return now })

	require.ErrorIs(t, b.Do(ctx, failing), errBoom)
	now = now.Add(2 * time.Minute)
	require.NoError(t, b.Do(ctx, succeeding))

	require.Len(t, changes, 3)
	assert.Equal(t, change{Closed, Open}, changes[0])
	assert.Equal(t, change{Open, HalfOpen}, changes[1])
	assert.Equal(t, change{HalfOpen, Closed}, changes[2])
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "half-open", HalfOpen.String())
}
