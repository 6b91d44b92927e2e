package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListChannelsFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	seedChannel(t, db, "UC-a", "Alpha", true)
	seedChannel(t, db, "UC-b", "Beta", false)
	seedChannel(t, db, "UC-c", "Gamma", true)

	listID, err := CreateChannelList(ctx, db, "List", "", testTime)
	require.NoError(t, err)
	_, err = AddChannelToList(ctx, db, listID, "UC-a", testTime)
	require.NoError(t, err)

	for _, e := range []struct {
		name      string
		filters   ChannelFilters
		wantTitle []string
	}{
		{
			name:      "default is everything sorted by title",
			filters:   ChannelFilters{},
			wantTitle: []string{"Alpha", "Beta", "Gamma"},
		},
		{
			name:      "subscribed only",
			filters:   ChannelFilters{SubscribedOnly: true},
			wantTitle: []string{"Alpha", "Gamma"},
		},
		{
			name:      "not in any list",
			filters:   ChannelFilters{NotInAnyList: true},
			wantTitle: []string{"Beta", "Gamma"},
		},
		{
			name:      "search matches external id too",
			filters:   ChannelFilters{Search: "uc-b"},
			wantTitle: []string{"Beta"},
		},
	} {
		t.Run(e.name, func(t *testing.T) {
			assert := assert.New(t)

			channels, total, err := ListChannels(ctx, db, e.filters, Sort{}, Pagination{})
			require.NoError(t, err)

			titles := make([]string, len(channels))
			for i, c := range channels {
				titles[i] = c.Title
			}

			assert.Equal(e.wantTitle, titles)
			assert.Equal(int64(len(e.wantTitle)), total)
		})
	}
}

func TestListChannelsVideoCount(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	seedChannel(t, db, "UC-a", "Alpha", true)
	seedChannel(t, db, "UC-b", "Beta", true)

	seedVideo(t, db, "yt-1", "UC-a", "One", nil)
	seedVideo(t, db, "yt-2", "UC-a", "Two", nil)

	channels, _, err := ListChannels(ctx, db, ChannelFilters{}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, channels, 2)

	require.NotNil(t, channels[0].VideoCount)
	assert.Equal(int64(2), *channels[0].VideoCount)
	assert.Nil(channels[1].VideoCount, "channels with no videos have no count row")
}

func TestSetChannelSubscription(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	seedChannel(t, db, "UC-a", "Alpha", false)

	n, err := SetChannelSubscription(ctx, db, "UC-a", true, testTime)
	require.NoError(t, err)
	assert.Equal(int64(1), n)

	channels, _, err := ListChannels(ctx, db, ChannelFilters{SubscribedOnly: true}, Sort{}, Pagination{})
	require.NoError(t, err)
	assert.Len(channels, 1)

	n, err = SetChannelSubscription(ctx, db, "UC-missing", true, testTime)
	require.NoError(t, err)
	assert.Equal(int64(0), n, "unknown external id affects no rows")
}

func TestUpsertChannelMetadataPreservesSubscription(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	seedChannel(t, db, "UC-a", "Old Title", true)

	require.NoError(t, UpsertChannelMetadata(ctx, db, ChannelMetadata{
		ExternalID:      "UC-a",
		Title:           "New Title",
		SubscriberCount: int64Ptr(12345),
	}, testTime))

	channels, _, err := ListChannels(ctx, db, ChannelFilters{}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, channels, 1)

	assert.Equal("New Title", channels[0].Title)
	require.NotNil(t, channels[0].SubscriberCount)
	assert.Equal(int64(12345), *channels[0].SubscriberCount)
	assert.True(channels[0].IsSubscribed, "metadata refresh leaves the subscription flag alone")

	// Unknown external ids insert a fresh unsubscribed row.
	require.NoError(t, UpsertChannelMetadata(ctx, db, ChannelMetadata{
		ExternalID: "UC-new",
		Title:      "Fresh",
	}, testTime))

	channels, total, err := ListChannels(ctx, db, ChannelFilters{}, Sort{}, Pagination{})
	require.NoError(t, err)
	assert.Equal(int64(2), total)
	assert.False(channels[0].IsSubscribed)
}
