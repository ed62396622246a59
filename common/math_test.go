package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLerp(t *testing.T) {
	require.InDelta(t, 5.0, Lerp(0, 10, 0.5), 1e-6)
	require.InDelta(t, 0.0, Lerp(0, 10, 0), 1e-6)
	require.InDelta(t, 15.0, Lerp(0, 10, 1.5), 1e-6)
}

func TestClamp(t *testing.T) {
	require.InDelta(t, 1.0, Clamp(5, -1, 1), 1e-6)
	require.InDelta(t, -1.0, Clamp(-5, -1, 1), 1e-6)
	require.InDelta(t, 0.5, Clamp01(0.5), 1e-6)
	require.InDelta(t, 0.0, Clamp01(-2), 1e-6)
	require.InDelta(t, 1.0, Clamp01(2), 1e-6)
}

func TestMoveTowards(t *testing.T) {
	require.InDelta(t, 0.25, MoveTowards(0, 1, 0.25), 1e-6)
	require.InDelta(t, 1.0, MoveTowards(0.9, 1, 0.25), 1e-6)
	require.InDelta(t, -0.25, MoveTowards(0, -1, 0.25), 1e-6)
}

func TestWrap01(t *testing.T) {
	require.InDelta(t, 0.25, Wrap01(2.25), 1e-6)
	require.InDelta(t, 0.75, Wrap01(-0.25), 1e-6)
	require.InDelta(t, 0.0, Wrap01(3), 1e-6)
}

func TestWrapTime(t *testing.T) {
	require.InDelta(t, 0.5, WrapTime(4.5, 2), 1e-6)
	require.InDelta(t, 1.5, WrapTime(-0.5, 2), 1e-6)
	require.InDelta(t, 0.0, WrapTime(1, 0), 1e-6)
}

func TestIsNaN(t *testing.T) {
	require.True(t, IsNaN(float32(math.NaN())))
	require.False(t, IsNaN(0))
	require.False(t, IsNaN(float32(math.Inf(1))))
}

func TestCoalesce(t *testing.T) {
	require.Equal(t, 3, Coalesce(0, 3, 5))
	require.Equal(t, "a", Coalesce("", "a"))
	require.Equal(t, 0, Coalesce(0, 0))
}
