/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRateLimit(t *testing.T) {
	t.Run("zero count is never valid", func(t *testing.T) {
		for _, period := range []time.Duration{0, time.Nanosecond, time.Second, time.Hour} {
			_, ok := NewRateLimit(0, period)
			require.False(t, ok, "period %s", period)
		}
	})

	t.Run("positive count", func(t *testing.T) {
		for _, tt := range []struct {
			count  int
			period time.Duration
		}{
			{1, 0},
			{1, time.Nanosecond},
			{3, time.Second},
			{1000, time.Minute},
		} {
			rl, ok := NewRateLimit(tt.count, tt.period)
			require.True(t, ok)
			require.Equal(t, tt.count, rl.Count())
			require.Equal(t, tt.period, rl.Period())
		}
	})

	t.Run("negative values", func(t *testing.T) {
		_, ok := NewRateLimit(-1, time.Second)
		require.False(t, ok)
		_, ok = NewRateLimit(1, -time.Second)
		require.False(t, ok)
	})
}

func TestMustRateLimit(t *testing.T) {
	require.Equal(t, "5/1s", MustRateLimit(5, time.Second).String())
	require.Panics(t, func() { MustRateLimit(0, time.Second) })
}
