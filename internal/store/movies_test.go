package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMoviesFlagFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	plain := seedMovie(t, db, 100, "Plain Movie", nil)
	starred := seedMovie(t, db, 101, "Starred Movie", nil)
	watched := seedMovie(t, db, 102, "Watched Movie", nil)

	_, err := SetMovieFlags(ctx, db, starred, MovieFlagChanges{Starred: boolPtr(true)}, testTime)
	require.NoError(t, err)
	_, err = SetMovieFlags(ctx, db, watched, MovieFlagChanges{Watched: boolPtr(true)}, testTime)
	require.NoError(t, err)

	for _, e := range []struct {
		name    string
		filters MovieFilters
		wantIDs []int64
	}{
		{
			name:    "nil flags match everything",
			filters: MovieFilters{},
			wantIDs: []int64{plain, starred, watched},
		},
		{
			name:    "starred true",
			filters: MovieFilters{Starred: boolPtr(true)},
			wantIDs: []int64{starred},
		},
		{
			name:    "watched false treats untriaged as false",
			filters: MovieFilters{Watched: boolPtr(false)},
			wantIDs: []int64{plain, starred},
		},
		{
			name:    "flags combine",
			filters: MovieFilters{Starred: boolPtr(false), Watched: boolPtr(false)},
			wantIDs: []int64{plain},
		},
	} {
		t.Run(e.name, func(t *testing.T) {
			assert := assert.New(t)

			movies, total, err := ListMovies(ctx, db, e.filters, Sort{}, Pagination{})
			require.NoError(t, err)

			ids := make([]int64, len(movies))
			for i, m := range movies {
				ids[i] = m.ID
			}

			assert.ElementsMatch(e.wantIDs, ids)
			assert.Equal(int64(len(e.wantIDs)), total)
		})
	}
}

func TestListMoviesReleaseDateRange(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	older := testTime.AddDate(-2, 0, 0)
	newer := testTime.AddDate(-1, 0, 0)

	seedMovie(t, db, 100, "Older", &older)
	inRange := seedMovie(t, db, 101, "Newer", &newer)
	seedMovie(t, db, 102, "Undated", nil)

	movies, total, err := ListMovies(ctx, db, MovieFilters{
		DateStart: timePtr(newer.AddDate(0, 0, -1)),
		DateEnd:   timePtr(newer.AddDate(0, 0, 1)),
	}, Sort{}, Pagination{})
	require.NoError(t, err)

	require.Equal(t, int64(1), total)
	assert.Equal(inRange, movies[0].ID)
}

func TestSetMovieFlagsScopedToTouchedColumns(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	id := seedMovie(t, db, 100, "Movie", nil)

	_, err := SetMovieFlags(ctx, db, id, MovieFlagChanges{Watched: boolPtr(true)}, testTime)
	require.NoError(t, err)

	// Starring afterwards must not reset the watched flag.
	_, err = SetMovieFlags(ctx, db, id, MovieFlagChanges{Starred: boolPtr(true)}, testTime.Add(time.Hour))
	require.NoError(t, err)

	movies, _, err := ListMovies(ctx, db, MovieFilters{}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, movies, 1)

	assert.True(movies[0].IsWatched)
	assert.True(movies[0].IsStarred)
	assert.False(movies[0].IsArchived)

	_, err = SetMovieFlags(ctx, db, id, MovieFlagChanges{}, testTime)
	assert.EqualError(err, "store.SetMovieFlags: no flags to change")

	n, err := SetMovieFlags(ctx, db, 999999, MovieFlagChanges{Watched: boolPtr(true)}, testTime)
	require.NoError(t, err)
	assert.Equal(int64(0), n, "unknown movie id affects no rows")
}

func TestUpsertMovieMetadataPreservesFlags(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureMovie(ctx, db, 100, testTime))

	movies, _, err := ListMovies(ctx, db, MovieFilters{}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, movies, 1)
	id := movies[0].ID

	_, err = SetMovieFlags(ctx, db, id, MovieFlagChanges{Starred: boolPtr(true)}, testTime)
	require.NoError(t, err)

	imdb := "tt0000100"
	release := testTime.AddDate(-1, 0, 0)
	require.NoError(t, UpsertMovieMetadata(ctx, db, MovieMetadata{
		TMDBID:         100,
		IMDBID:         &imdb,
		Title:          "Actual Title",
		RuntimeMinutes: int64Ptr(117),
		ReleaseDate:    &release,
	}, testTime))

	movies, _, err = ListMovies(ctx, db, MovieFilters{}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, movies, 1)

	assert.Equal("Actual Title", movies[0].Title)
	require.NotNil(t, movies[0].IMDBID)
	assert.Equal(imdb, *movies[0].IMDBID)
	assert.True(movies[0].IsStarred, "metadata refresh leaves flags alone")
}
