package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFakeMuteThenMutedDomains(t *testing.T) {
	f := NewFake(50 * time.Millisecond)
	ctx := context.Background()

	muted, err := f.MutedDomains(ctx, []string{"a.com"})
	require.NoError(t, err)
	require.False(t, muted["a.com"])

	require.NoError(t, f.Mute(ctx, "a.com"))
	muted, err = f.MutedDomains(ctx, []string{"a.com"})
	require.NoError(t, err)
	require.True(t, muted["a.com"])
}

func TestFakeCooldownExpires(t *testing.T) {
	f := NewFake(10 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, f.Mute(ctx, "a.com"))
	time.Sleep(30 * time.Millisecond)
	muted, err := f.MutedDomains(ctx, []string{"a.com"})
	require.NoError(t, err)
	require.False(t, muted["a.com"], "cooldown must expire after its TTL")
}

func TestFakeIdempotentMute(t *testing.T) {
	f := NewFake(time.Second)
	ctx := context.Background()
	require.NoError(t, f.Mute(ctx, "a.com"))
	require.NoError(t, f.Mute(ctx, "a.com"))
	muted, err := f.MutedDomains(ctx, []string{"a.com"})
	require.NoError(t, err)
	require.True(t, muted["a.com"])
}

func TestFakeFailNextReturnsStoreUnavailable(t *testing.T) {
	f := NewFake(time.Second)
	f.FailNext(2)
	ctx := context.Background()
	_, err := f.MutedDomains(ctx, []string{"a.com"})
	require.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = f.MutedDomains(ctx, []string{"a.com"})
	require.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = f.MutedDomains(ctx, []string{"a.com"})
	require.NoError(t, err)
}
