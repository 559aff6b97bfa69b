package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderReplace(t *testing.T) {
	r := New()
	rows := [][]string{{"a", "b"}, {"c"}}

	require.NoError(t, r.Replace(context.Background(), "Summary", rows))
	rows[0][0] = "mutated"

	got, ok := r.Sheet("Summary")
	require.True(t, ok)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, got)

	require.NoError(t, r.Replace(context.Background(), "Summary", [][]string{{"z"}}))
	got, _ = r.Sheet("Summary")
	assert.Equal(t, [][]string{{"z"}}, got)
	assert.Equal(t, 2, r.Writes())

	_, ok = r.Sheet("Documents")
	assert.False(t, ok)
}

func TestRecorderFailures(t *testing.T) {
	r := New()
	boom := errors.New("quota exceeded")
	r.FailWith(boom)
	assert.ErrorIs(t, r.Replace(context.Background(), "Summary", nil), boom)

	r.FailWith(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Replace(ctx, "Summary", nil), context.Canceled)
	assert.Equal(t, 0, r.Writes())
}
