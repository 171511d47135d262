package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tradectl/internal/snapshot"
)

func TestResolveStampUsesRequestWhenPresent(t *testing.T) {
	require.Equal(t, int64(123), resolveStamp(123, func() int64 { return 999 }))
}

func TestResolveStampFallsBackToClock(t *testing.T) {
	require.Equal(t, int64(999), resolveStamp(0, func() int64 { return 999 }))
}

func TestResolveLookParamsFillsDefaults(t *testing.T) {
	defaults := snapshot.ReadParams{Lookahead: 900, Lookbehind: 3600}

	got := resolveLookParams(snapshot.ReadParams{}, defaults)
	require.Equal(t, defaults, got)

	got = resolveLookParams(snapshot.ReadParams{Lookahead: 60}, defaults)
	require.Equal(t, snapshot.ReadParams{Lookahead: 60, Lookbehind: 3600}, got)
}
