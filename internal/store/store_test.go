package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jermspeaks/slowtube/internal/ptr"
	"github.com/jermspeaks/slowtube/models"
)

// testDB opens a fresh in-memory database with the full schema applied. The
// pool is pinned to one connection so every statement sees the same memory
// database.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	t.Cleanup(func() { db.Close() })

	require.NoError(t, models.Migrate(context.Background(), db))

	return db
}

var testTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func seedChannel(t *testing.T, db *sql.DB, externalID, title string, subscribed bool) {
	t.Helper()

	_, err := db.Exec(
		"insert into channels (created_at, external_id, title, is_subscribed) values (?, ?, ?, ?)",
		testTime, externalID, title, subscribed,
	)
	require.NoError(t, err)
}

func seedVideo(t *testing.T, db *sql.DB, youtubeID, channelExternalID, title string, publishedAt *time.Time) int64 {
	t.Helper()

	res, err := db.Exec(
		"insert into videos (created_at, youtube_id, channel_external_id, title, fetch_status, metadata_updated_at, published_at) values (?, ?, ?, ?, ?, ?, ?)",
		testTime, youtubeID, channelExternalID, title, models.FetchStatusCompleted, testTime, publishedAt,
	)
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)

	return id
}

func seedShow(t *testing.T, db *sql.DB, tmdbID int64, title string) int64 {
	t.Helper()

	res, err := db.Exec(
		"insert into tv_shows (created_at, tmdb_id, title, fetch_status, metadata_updated_at) values (?, ?, ?, ?, ?)",
		testTime, tmdbID, title, models.FetchStatusCompleted, testTime,
	)
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)

	return id
}

func seedEpisode(t *testing.T, db *sql.DB, showID, season, episode int64, airDate *time.Time, watched bool) int64 {
	t.Helper()

	res, err := db.Exec(
		"insert into episodes (created_at, tv_show_id, season_number, episode_number, title, air_date, is_watched) values (?, ?, ?, ?, ?, ?, ?)",
		testTime, showID, season, episode, "", airDate, watched,
	)
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)

	return id
}

func seedMovie(t *testing.T, db *sql.DB, tmdbID int64, title string, releaseDate *time.Time) int64 {
	t.Helper()

	res, err := db.Exec(
		"insert into movies (created_at, tmdb_id, title, fetch_status, metadata_updated_at, release_date) values (?, ?, ?, ?, ?, ?)",
		testTime, tmdbID, title, models.FetchStatusCompleted, testTime, releaseDate,
	)
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)

	return id
}

func boolPtr(v bool) *bool    { return ptr.Bool(v) }
func int64Ptr(v int64) *int64 { return ptr.Int64(v) }

func timePtr(v time.Time) *time.Time { return ptr.Time(v) }

// Foreign key enforcement in sqlite is per-connection, so it has to come
// from the DSN and hold on every connection the pool opens, not just the
// one that ran the migration.
func TestForeignKeysEnforcedOnEveryPooledConnection(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:fkpool?mode=memory&cache=shared&_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.SetMaxOpenConns(2)

	ctx := context.Background()
	require.NoError(t, models.Migrate(ctx, db))

	seedChannel(t, db, "UC-fk-pool", "Pooled", false)

	listID, err := CreateChannelList(ctx, db, "Favourites", "", testTime)
	require.NoError(t, err)

	_, err = AddChannelsToList(ctx, db, listID, []string{"UC-fk-pool"}, testTime)
	require.NoError(t, err)

	// Hold the first connection so everything below is forced onto a
	// freshly opened second one.
	held, err := db.Conn(ctx)
	require.NoError(t, err)
	defer held.Close()

	var enabled int64
	require.NoError(t, db.QueryRowContext(ctx, "pragma foreign_keys").Scan(&enabled))
	require.Equal(t, int64(1), enabled)

	n, err := DeleteChannelList(ctx, db, listID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	var orphans int64
	require.NoError(t, db.QueryRowContext(ctx,
		"select count(*) from channel_list_items where list_id = ?", listID,
	).Scan(&orphans))
	require.Equal(t, int64(0), orphans)
}
