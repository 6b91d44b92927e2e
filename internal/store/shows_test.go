package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListShowsDerivedColumns(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	showID := seedShow(t, db, 100, "Airing Show")

	// air_date comparisons run against date('now'), so the fixtures are
	// anchored to the wall clock.
	now := time.Now()
	past := now.AddDate(0, 0, -7)
	future := now.AddDate(0, 0, 7)
	farFuture := now.AddDate(0, 0, 14)

	seedEpisode(t, db, showID, 1, 1, &past, true)
	seedEpisode(t, db, showID, 1, 2, &future, false)
	seedEpisode(t, db, showID, 1, 3, &farFuture, false)

	shows, total, err := ListShows(ctx, db, ShowFilters{}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	s := shows[0]
	assert.Equal(int64(3), s.EpisodeCount)
	assert.Equal(int64(1), s.WatchedCount)
	require.NotNil(t, s.NextAirDate, "next air date is the soonest unwatched future episode")
	assert.Equal(future.Format("2006-01-02"), s.NextAirDate.Format("2006-01-02"))
	require.NotNil(t, s.LastAirDate, "last air date is the most recent past episode")
	assert.Equal(past.Format("2006-01-02"), s.LastAirDate.Format("2006-01-02"))
}

func TestListShowsFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	watched := seedShow(t, db, 100, "Fully Watched")
	seedEpisode(t, db, watched, 1, 1, nil, true)

	inProgress := seedShow(t, db, 101, "In Progress")
	seedEpisode(t, db, inProgress, 1, 1, nil, true)
	seedEpisode(t, db, inProgress, 1, 2, nil, false)

	empty := seedShow(t, db, 102, "No Episodes")

	archived := seedShow(t, db, 103, "Archived Show")
	_, err := SetShowFlags(ctx, db, archived, ShowFlagChanges{Archived: boolPtr(true)}, testTime)
	require.NoError(t, err)

	_, err = SetShowFlags(ctx, db, inProgress, ShowFlagChanges{Started: boolPtr(true)}, testTime)
	require.NoError(t, err)

	for _, e := range []struct {
		name    string
		filters ShowFilters
		wantIDs []int64
	}{
		{
			name:    "archived hidden unless asked for",
			filters: ShowFilters{},
			wantIDs: []int64{watched, inProgress, empty},
		},
		{
			name:    "include archived",
			filters: ShowFilters{IncludeArchived: true},
			wantIDs: []int64{watched, inProgress, empty, archived},
		},
		{
			name:    "started only",
			filters: ShowFilters{StartedOnly: true},
			wantIDs: []int64{inProgress},
		},
		{
			name:    "hide completed keeps episodeless shows",
			filters: ShowFilters{HideCompleted: true},
			wantIDs: []int64{inProgress, empty},
		},
		{
			name:    "search",
			filters: ShowFilters{Search: "progress"},
			wantIDs: []int64{inProgress},
		},
	} {
		t.Run(e.name, func(t *testing.T) {
			assert := assert.New(t)

			shows, total, err := ListShows(ctx, db, e.filters, Sort{}, Pagination{})
			require.NoError(t, err)

			ids := make([]int64, len(shows))
			for i, s := range shows {
				ids[i] = s.ID
			}

			assert.ElementsMatch(e.wantIDs, ids)
			assert.Equal(int64(len(e.wantIDs)), total)
		})
	}
}

func TestSetShowFlagsScopedToTouchedColumns(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	id := seedShow(t, db, 100, "Show")

	n, err := SetShowFlags(ctx, db, id, ShowFlagChanges{Started: boolPtr(true)}, testTime)
	require.NoError(t, err)
	assert.Equal(int64(1), n)

	// Archiving afterwards must not reset the started flag.
	_, err = SetShowFlags(ctx, db, id, ShowFlagChanges{Archived: boolPtr(true)}, testTime.Add(time.Hour))
	require.NoError(t, err)

	shows, _, err := ListShows(ctx, db, ShowFilters{IncludeArchived: true}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, shows, 1)

	assert.True(shows[0].IsStarted)
	assert.True(shows[0].IsArchived)

	_, err = SetShowFlags(ctx, db, id, ShowFlagChanges{}, testTime)
	assert.EqualError(err, "store.SetShowFlags: no flags to change")

	n, err = SetShowFlags(ctx, db, 999999, ShowFlagChanges{Archived: boolPtr(true)}, testTime)
	require.NoError(t, err)
	assert.Equal(int64(0), n, "unknown show id affects no rows")
}

func TestUpsertEpisodesPreservesWatchProgress(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	showID := seedShow(t, db, 100, "Show")

	require.NoError(t, UpsertEpisodes(ctx, db, showID, []EpisodeMetadata{
		{SeasonNumber: 1, EpisodeNumber: 1, Title: "Pilot"},
		{SeasonNumber: 1, EpisodeNumber: 2, Title: "Second"},
	}, testTime))

	episodes, _, err := ListEpisodes(ctx, db, showID, EpisodeFilters{}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, episodes, 2)

	n, err := SetEpisodeWatched(ctx, db, episodes[0].ID, true, testTime)
	require.NoError(t, err)
	assert.Equal(int64(1), n)

	// Re-import with a corrected title; the watched flag survives.
	air := testTime.AddDate(0, 1, 0)
	require.NoError(t, UpsertEpisodes(ctx, db, showID, []EpisodeMetadata{
		{SeasonNumber: 1, EpisodeNumber: 1, Title: "Pilot (remastered)", AirDate: &air},
	}, testTime))

	episodes, _, err = ListEpisodes(ctx, db, showID, EpisodeFilters{}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, episodes, 2)

	assert.Equal("Pilot (remastered)", episodes[0].Title)
	assert.True(episodes[0].IsWatched)
	require.NotNil(t, episodes[0].AirDate)

	unwatched, total, err := ListEpisodes(ctx, db, showID, EpisodeFilters{UnwatchedOnly: true}, Sort{}, Pagination{})
	require.NoError(t, err)
	assert.Equal(int64(1), total)
	require.Len(t, unwatched, 1)
	assert.Equal(int64(2), unwatched[0].EpisodeNumber)
}

func TestSetEpisodeWatchedClearsTimestampOnUnwatch(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	showID := seedShow(t, db, 100, "Show")
	episodeID := seedEpisode(t, db, showID, 1, 1, nil, false)

	_, err := SetEpisodeWatched(ctx, db, episodeID, true, testTime)
	require.NoError(t, err)

	episodes, _, err := ListEpisodes(ctx, db, showID, EpisodeFilters{}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.NotNil(t, episodes[0].WatchedAt)

	_, err = SetEpisodeWatched(ctx, db, episodeID, false, testTime.Add(time.Hour))
	require.NoError(t, err)

	episodes, _, err = ListEpisodes(ctx, db, showID, EpisodeFilters{}, Sort{}, Pagination{})
	require.NoError(t, err)
	assert.False(episodes[0].IsWatched)
	assert.Nil(episodes[0].WatchedAt)
}
