package reward

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	total, err := l.AddXP(ctx, "alice", 125)
	require.NoError(t, err)
	assert.Equal(t, int64(125), total)

	total, err = l.AddXP(ctx, "alice", FallbackXP)
	require.NoError(t, err)
	assert.Equal(t, int64(130), total)

	_, err = l.AddXP(ctx, "bob", 130)
	require.NoError(t, err)
	_, err = l.AddXP(ctx, "carol", 325)
	require.NoError(t, err)

	top, err := l.Top(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []Standing{
		{LearnerID: "carol", TotalXP: 325},
		{LearnerID: "alice", TotalXP: 130},
		{LearnerID: "bob", TotalXP: 130},
	}, top)

	top, err = l.Top(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	got, err := l.TotalXP(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestMemoryLedgerRejectsBadInput(t *testing.T) {
	l := NewMemoryLedger()
	_, err := l.AddXP(context.Background(), "", 10)
	assert.Error(t, err)
	_, err = l.AddXP(context.Background(), "alice", -10)
	assert.Error(t, err)
}
