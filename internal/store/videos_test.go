package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jermspeaks/slowtube/models"
)

func TestListVideosFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	seedChannel(t, db, "UC-alpha", "Alpha Channel", true)
	seedChannel(t, db, "UC-beta", "Beta Channel", false)

	early := testTime.AddDate(0, -2, 0)
	late := testTime.AddDate(0, -1, 0)

	first := seedVideo(t, db, "yt-1", "UC-alpha", "Learning Go", &early)
	second := seedVideo(t, db, "yt-2", "UC-alpha", "Learning Rust", &late)
	third := seedVideo(t, db, "yt-3", "UC-beta", "Cooking Show", nil)

	_, err := SetVideoState(ctx, db, first, models.VideoStateInbox, testTime)
	require.NoError(t, err)
	_, err = SetVideoState(ctx, db, second, models.VideoStateArchive, testTime)
	require.NoError(t, err)

	for _, e := range []struct {
		name    string
		filters VideoFilters
		wantIDs []int64
	}{
		{
			name:    "no filters returns everything",
			filters: VideoFilters{},
			wantIDs: []int64{first, second, third},
		},
		{
			name:    "state",
			filters: VideoFilters{State: models.VideoStateInbox},
			wantIDs: []int64{first},
		},
		{
			name:    "search is case-insensitive over title and description",
			filters: VideoFilters{Search: "LEARNING"},
			wantIDs: []int64{first, second},
		},
		{
			name:    "channel titles",
			filters: VideoFilters{ChannelTitles: []string{"Beta Channel"}},
			wantIDs: []int64{third},
		},
		{
			name:    "date range on published",
			filters: VideoFilters{DateField: "published", DateStart: timePtr(late.AddDate(0, 0, -1))},
			wantIDs: []int64{second},
		},
		{
			name:    "unknown date field is ignored",
			filters: VideoFilters{DateField: "bogus", DateStart: timePtr(late)},
			wantIDs: []int64{first, second, third},
		},
		{
			name:    "exclude archived keeps untriaged",
			filters: VideoFilters{ExcludeArchived: true},
			wantIDs: []int64{first, third},
		},
		{
			name:    "latest excludes triaged rows",
			filters: VideoFilters{Latest: true},
			wantIDs: []int64{third},
		},
	} {
		t.Run(e.name, func(t *testing.T) {
			assert := assert.New(t)

			videos, total, err := ListVideos(ctx, db, e.filters, Sort{Key: "createdAt", Order: "asc"}, Pagination{})
			require.NoError(t, err)

			ids := make([]int64, len(videos))
			for i, v := range videos {
				ids[i] = v.ID
			}

			assert.ElementsMatch(e.wantIDs, ids)
			assert.Equal(int64(len(e.wantIDs)), total)
		})
	}
}

func TestListVideosCountIgnoresPagination(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	seedChannel(t, db, "UC-alpha", "Alpha Channel", true)
	for i, id := range []string{"yt-1", "yt-2", "yt-3", "yt-4", "yt-5"} {
		published := testTime.AddDate(0, 0, -i)
		seedVideo(t, db, id, "UC-alpha", "Video", &published)
	}

	videos, total, err := ListVideos(ctx, db, VideoFilters{}, Sort{}, Pagination{Page: int64Ptr(2), Limit: int64Ptr(2)})
	require.NoError(t, err)

	assert.Len(videos, 2)
	assert.Equal(int64(5), total)
}

func TestListVideosNullsSortLast(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	seedChannel(t, db, "UC-alpha", "Alpha Channel", true)

	early := testTime.AddDate(0, -2, 0)
	late := testTime.AddDate(0, -1, 0)

	a := seedVideo(t, db, "yt-1", "UC-alpha", "a", &late)
	b := seedVideo(t, db, "yt-2", "UC-alpha", "b", nil)
	c := seedVideo(t, db, "yt-3", "UC-alpha", "c", &early)

	for _, e := range []struct {
		name    string
		order   string
		wantIDs []int64
	}{
		{name: "asc keeps null last", order: "asc", wantIDs: []int64{c, a, b}},
		{name: "desc keeps null last", order: "desc", wantIDs: []int64{a, c, b}},
	} {
		t.Run(e.name, func(t *testing.T) {
			assert := assert.New(t)

			videos, _, err := ListVideos(ctx, db, VideoFilters{}, Sort{Key: "publishedAt", Order: e.order}, Pagination{})
			require.NoError(t, err)

			ids := make([]int64, len(videos))
			for i, v := range videos {
				ids[i] = v.ID
			}

			assert.Equal(e.wantIDs, ids)
		})
	}
}

func TestSetVideoState(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	seedChannel(t, db, "UC-alpha", "Alpha Channel", true)
	id := seedVideo(t, db, "yt-1", "UC-alpha", "Video", nil)

	n, err := SetVideoState(ctx, db, id, models.VideoStateInbox, testTime)
	require.NoError(t, err)
	assert.Equal(int64(1), n)

	later := testTime.Add(time.Hour)
	n, err = SetVideoState(ctx, db, id, models.VideoStateArchive, later)
	require.NoError(t, err)
	assert.Equal(int64(1), n)

	v, err := GetVideo(ctx, db, id)
	require.NoError(t, err)
	require.NotNil(t, v.State)
	assert.Equal(models.VideoStateArchive, *v.State)
	require.NotNil(t, v.StateUpdatedAt)
	assert.WithinDuration(later, *v.StateUpdatedAt, time.Second)

	n, err = SetVideoState(ctx, db, 999999, models.VideoStateInbox, testTime)
	require.NoError(t, err)
	assert.Equal(int64(0), n, "unknown video id affects no rows")
}

func TestGetVideoNotFound(t *testing.T) {
	db := testDB(t)

	_, err := GetVideo(context.Background(), db, 42)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpsertVideoMetadataPreservesState(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureVideo(ctx, db, "yt-1", testTime))
	require.NoError(t, EnsureVideo(ctx, db, "yt-1", testTime), "ensure is idempotent")

	videos, total, err := ListVideos(ctx, db, VideoFilters{}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(models.PlaceholderTitle, videos[0].Title)
	assert.Equal(models.FetchStatusPending, videos[0].FetchStatus)

	id := videos[0].ID

	_, err = SetVideoState(ctx, db, id, models.VideoStateInbox, testTime)
	require.NoError(t, err)

	published := testTime.AddDate(0, -1, 0)
	require.NoError(t, UpsertVideoMetadata(ctx, db, VideoMetadata{
		YouTubeID:         "yt-1",
		ChannelExternalID: "UC-alpha",
		Title:             "Actual Title",
		Description:       "Actual description",
		DurationSeconds:   int64Ptr(360),
		PublishedAt:       &published,
	}, testTime))

	v, err := GetVideo(ctx, db, id)
	require.NoError(t, err)
	assert.Equal("Actual Title", v.Title)
	assert.Equal(models.FetchStatusCompleted, v.FetchStatus)
	require.NotNil(t, v.State)
	assert.Equal(models.VideoStateInbox, *v.State, "metadata refresh leaves triage state alone")
}
