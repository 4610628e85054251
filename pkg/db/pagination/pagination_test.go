package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorTokenRoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 2, 3, 4, 5, 6, 789, time.UTC)

	token := NewCursorToken(42, createdAt)
	require.NotEmpty(t, token)

	gotTime, gotID, err := ParseCursor(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, gotID)
	assert.True(t, gotTime.Equal(createdAt))
}

func TestParseCursor_RejectsGarbage(t *testing.T) {
	_, _, err := ParseCursor("not-base64!!")
	assert.Error(t, err)

	_, _, err = ParseCursor("eyJpZCI6ImFiYyJ9")
	assert.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	type row struct{ id int64 }
	extract := func(r *row) string { return NewCursorToken(r.id, time.Now()) }

	empty := BuildCursorPageInfo([]*row{}, 2, extract)
	assert.False(t, empty.HasMore)
	assert.Empty(t, empty.NextPageToken)

	exact := BuildCursorPageInfo([]*row{{1}, {2}}, 2, extract)
	assert.False(t, exact.HasMore)
	assert.NotEmpty(t, exact.NextPageToken)

	overflow := BuildCursorPageInfo([]*row{{1}, {2}, {3}}, 2, extract)
	assert.True(t, overflow.HasMore)
	// The token points at the last row of the trimmed page.
	wantTime, wantID, err := ParseCursor(overflow.NextPageToken)
	require.NoError(t, err)
	assert.EqualValues(t, 2, wantID)
	assert.False(t, wantTime.IsZero())
}
