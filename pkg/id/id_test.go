package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtIsMonotonic(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	prev := ""
	for i := 0; i < 100; i++ {
		s, err := At(at)
		require.NoError(t, err)
		require.Len(t, s, 26)
		assert.Greater(t, s, prev)
		prev = s
	}

	got, err := Time(prev)
	require.NoError(t, err)
	assert.Equal(t, at, got)
}

func TestNewAndTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	got, err := Time(New())
	require.NoError(t, err)
	assert.True(t, got.After(before))

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}

func TestAtClampsPreEpoch(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
	}{
		{"just before epoch", time.Unix(0, 0).Add(-100 * time.Millisecond)},
		{"1960", time.Date(1960, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"epoch", time.Unix(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := At(tt.at)
			require.NoError(t, err)
			got, err := Time(s)
			require.NoError(t, err)
			assert.Equal(t, time.Unix(0, 0).UTC(), got)
		})
	}
}

func TestAtOutOfRange(t *testing.T) {
	_, err := At(time.Date(12000, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorContains(t, err, "out of range")
}
