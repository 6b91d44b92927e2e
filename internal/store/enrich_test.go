package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jermspeaks/slowtube/models"
)

func TestPendingVideoIDs(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureVideo(ctx, db, "yt-1", testTime))
	require.NoError(t, EnsureVideo(ctx, db, "yt-2", testTime.Add(1)))
	require.NoError(t, EnsureVideo(ctx, db, "yt-3", testTime.Add(2)))

	// A completed fetch with a real title leaves the pending set.
	require.NoError(t, UpsertVideoMetadata(ctx, db, VideoMetadata{
		YouTubeID: "yt-2",
		Title:     "Fetched",
	}, testTime))

	ids, remaining, err := PendingVideoIDs(ctx, db, 1)
	require.NoError(t, err)

	assert.Len(ids, 1)
	assert.Equal(int64(1), remaining)

	ids, remaining, err = PendingVideoIDs(ctx, db, 10)
	require.NoError(t, err)

	assert.Len(ids, 2)
	assert.Equal(int64(0), remaining)
}

func TestPendingIncludesPlaceholderCompletions(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureVideo(ctx, db, "yt-1", testTime))

	// A fetch that "completed" but produced only the placeholder title is
	// treated as still pending so it gets retried.
	require.NoError(t, UpsertVideoMetadata(ctx, db, VideoMetadata{
		YouTubeID: "yt-1",
		Title:     models.PlaceholderTitle,
	}, testTime))

	ids, remaining, err := PendingVideoIDs(ctx, db, 10)
	require.NoError(t, err)

	assert.Len(ids, 1)
	assert.Equal(int64(0), remaining)
}

func TestMarkVideoFetchStatus(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureVideo(ctx, db, "yt-1", testTime))

	ids, _, err := PendingVideoIDs(ctx, db, 10)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	n, err := MarkVideoFetchStatus(ctx, db, ids[0], models.FetchStatusUnavailable, testTime)
	require.NoError(t, err)
	assert.Equal(int64(1), n)

	ids, _, err = PendingVideoIDs(ctx, db, 10)
	require.NoError(t, err)
	assert.Empty(ids, "unavailable rows are not retried")

	n, err = MarkVideoFetchStatus(ctx, db, 999999, models.FetchStatusFailed, testTime)
	require.NoError(t, err)
	assert.Equal(int64(0), n)
}

func TestPendingShowAndMovieIDs(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureShow(ctx, db, 100, testTime))
	require.NoError(t, EnsureMovie(ctx, db, 200, testTime))

	showIDs, _, err := PendingShowIDs(ctx, db, 10)
	require.NoError(t, err)
	assert.Len(showIDs, 1)

	movieIDs, _, err := PendingMovieIDs(ctx, db, 10)
	require.NoError(t, err)
	assert.Len(movieIDs, 1)

	require.NoError(t, UpsertShowMetadata(ctx, db, ShowMetadata{TMDBID: 100, Title: "Show"}, testTime))
	require.NoError(t, UpsertMovieMetadata(ctx, db, MovieMetadata{TMDBID: 200, Title: "Movie"}, testTime))

	showIDs, _, err = PendingShowIDs(ctx, db, 10)
	require.NoError(t, err)
	assert.Empty(showIDs)

	movieIDs, _, err = PendingMovieIDs(ctx, db, 10)
	require.NoError(t, err)
	assert.Empty(movieIDs)
}
