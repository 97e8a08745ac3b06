package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration_RoundTripLaws(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"5m", 300},
		{"1h", 3600},
		{"2d", 172800},
		{"30s", 30},
		{"1minute", 60},
		{"2hours", 7200},
	}

	for _, c := range cases {
		got, err := ParseDuration(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseDuration_Errors(t *testing.T) {
	_, err := ParseDuration("")
	assert.Error(t, err)

	_, err = ParseDuration("5x")
	assert.Error(t, err)

	_, err = ParseDuration("m5")
	assert.Error(t, err)
}

func TestResolveFrom_Absolute(t *testing.T) {
	now := time.Unix(1000, 0)

	got, err := ResolveFrom("12345", now)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), got)
}

func TestResolveFrom_Relative(t *testing.T) {
	now := time.Unix(1000, 0).UTC()

	got, err := ResolveFrom("5m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-5*time.Minute).UnixMilli(), got)
}

func TestResolveFrom_Invalid(t *testing.T) {
	_, err := ResolveFrom("not-a-duration", time.Now())
	assert.Error(t, err)
}
