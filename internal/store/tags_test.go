package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTagIsIdempotent(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	seedChannel(t, db, "UC-a", "Channel A", true)
	videoID := seedVideo(t, db, "yt-1", "UC-a", "Video", nil)

	created, err := AddTag(ctx, db, videoID, "golang", testTime)
	require.NoError(t, err)
	assert.True(created)

	created, err = AddTag(ctx, db, videoID, "golang", testTime)
	require.NoError(t, err)
	assert.False(created, "same name twice writes nothing")

	created, err = AddTag(ctx, db, videoID, "tutorial", testTime)
	require.NoError(t, err)
	assert.True(created)

	tags, err := ListTags(ctx, db, videoID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal("golang", tags[0].Name)
	assert.Equal("tutorial", tags[1].Name)

	n, err := DeleteTag(ctx, db, videoID, "golang")
	require.NoError(t, err)
	assert.Equal(int64(1), n)

	n, err = DeleteTag(ctx, db, videoID, "golang")
	require.NoError(t, err)
	assert.Equal(int64(0), n)
}

func TestTagsScopedToVideo(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	seedChannel(t, db, "UC-a", "Channel A", true)
	one := seedVideo(t, db, "yt-1", "UC-a", "One", nil)
	two := seedVideo(t, db, "yt-2", "UC-a", "Two", nil)

	// The same name on two different videos is two independent tags.
	created, err := AddTag(ctx, db, one, "golang", testTime)
	require.NoError(t, err)
	assert.True(created)

	created, err = AddTag(ctx, db, two, "golang", testTime)
	require.NoError(t, err)
	assert.True(created)

	tags, err := ListTags(ctx, db, one)
	require.NoError(t, err)
	assert.Len(tags, 1)
}

func TestCommentLifecycle(t *testing.T) {
	assert := assert.New(t)

	db := testDB(t)
	ctx := context.Background()

	seedChannel(t, db, "UC-a", "Channel A", true)
	videoID := seedVideo(t, db, "yt-1", "UC-a", "Video", nil)

	id, err := AddComment(ctx, db, videoID, "first impressions", testTime)
	require.NoError(t, err)

	n, err := UpdateComment(ctx, db, id, "second thoughts", testTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(int64(1), n)

	comments, err := ListComments(ctx, db, videoID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal("second thoughts", comments[0].Content)
	assert.True(comments[0].UpdatedAt.After(comments[0].CreatedAt))

	n, err = DeleteComment(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(int64(1), n)

	comments, err = ListComments(ctx, db, videoID)
	require.NoError(t, err)
	assert.Empty(comments)
}
