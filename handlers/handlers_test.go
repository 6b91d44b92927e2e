package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jermspeaks/slowtube/internal/ctxclock"
	"github.com/jermspeaks/slowtube/internal/ctxdb"
	"github.com/jermspeaks/slowtube/models"
)

var handlersTestTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// testHandler wires a router like the application does, minus the middleware
// stack, over a fresh in-memory database.
func testHandler(t *testing.T) (http.Handler, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.SetMaxOpenConns(1)

	require.NoError(t, models.Migrate(context.Background(), db))

	m := mux.NewRouter()
	m.Methods(http.MethodGet).Path("/api/videos").HandlerFunc(Videos)
	m.Methods(http.MethodPut).Path("/api/videos/{id}/state").HandlerFunc(VideoState)
	m.Methods(http.MethodPost).Path("/api/videos/{id}/tags").HandlerFunc(VideoTagCreate)
	m.Methods(http.MethodDelete).Path("/api/videos/{id}/tags/{name}").HandlerFunc(VideoTagDelete)
	m.Methods(http.MethodPost).Path("/api/lists").HandlerFunc(ListCreate)
	m.Methods(http.MethodPost).Path("/api/lists/{id}/channels").HandlerFunc(ListChannelAdd)
	m.Methods(http.MethodGet).Path("/api/lists/{id}/channels").HandlerFunc(ListChannels)
	m.Methods(http.MethodPut).Path("/api/lists/{id}/order").HandlerFunc(ListOrder)
	m.Methods(http.MethodPost).Path("/api/playlists").HandlerFunc(PlaylistCreate)
	m.Methods(http.MethodPost).Path("/api/playlists/{id}/movies").HandlerFunc(PlaylistMovieAdd)
	m.Methods(http.MethodGet).Path("/api/playlists/{id}/movies").HandlerFunc(PlaylistMovies)
	m.Methods(http.MethodPut).Path("/api/playlists/{id}/order").HandlerFunc(PlaylistOrder)

	h := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = ctxdb.WithDB(ctx, db)
		ctx = ctxclock.WithClock(ctx, ctxclock.NewStaticClock(handlersTestTime))

		m.ServeHTTP(rw, r.WithContext(ctx))
	})

	return h, db
}

func doJSON(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func seedTestVideo(t *testing.T, db *sql.DB, youtubeID, title string) int64 {
	t.Helper()

	res, err := db.Exec(
		"insert into videos (created_at, youtube_id, title, fetch_status) values (?, ?, ?, ?)",
		handlersTestTime, youtubeID, title, models.FetchStatusCompleted,
	)
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)

	return id
}

func seedTestChannel(t *testing.T, db *sql.DB, externalID, title string) {
	t.Helper()

	_, err := db.Exec(
		"insert into channels (created_at, external_id, title, is_subscribed) values (?, ?, ?, 0)",
		handlersTestTime, externalID, title,
	)
	require.NoError(t, err)
}

func TestVideosRejectsUnknownSortKey(t *testing.T) {
	assert := assert.New(t)

	h, _ := testHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/videos?sort=nope", nil)
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/videos?order=sideways", nil)
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/videos?sort=publishedAt&order=desc", nil)
	assert.Equal(http.StatusOK, rec.Code)
}

func TestVideosRejectsNonPositivePagination(t *testing.T) {
	assert := assert.New(t)

	h, _ := testHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/videos?limit=-3&page=-2", nil)
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/videos?limit=0", nil)
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/videos?page=1&limit=5", nil)
	assert.Equal(http.StatusOK, rec.Code)
}

func TestVideoState(t *testing.T) {
	assert := assert.New(t)

	h, db := testHandler(t)
	id := seedTestVideo(t, db, "vid-state-01", "Triage Me")

	rec := doJSON(t, h, http.MethodPut, "/api/videos/1/state", map[string]string{"state": "bogus"})
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/videos/999999/state", map[string]string{"state": models.VideoStateInbox})
	assert.Equal(http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/videos/1/state", map[string]string{"state": models.VideoStateInbox})
	assert.Equal(http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/videos?state="+models.VideoStateInbox, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []models.Video `json:"items"`
		Total int64          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.Items, 1)
	assert.Equal(id, body.Items[0].ID)
	assert.Equal(int64(1), body.Total)
}

func TestVideoTagCreateIsIdempotent(t *testing.T) {
	assert := assert.New(t)

	h, db := testHandler(t)
	seedTestVideo(t, db, "vid-tags-01", "Tag Me")

	rec := doJSON(t, h, http.MethodPost, "/api/videos/1/tags", map[string]string{"name": "music"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(`{"created": true}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/api/videos/1/tags", map[string]string{"name": "music"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(`{"created": false}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodDelete, "/api/videos/1/tags/music", nil)
	assert.Equal(http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/videos/1/tags/music", nil)
	assert.Equal(http.StatusNotFound, rec.Code)
}

func TestListOrderAppliesNewOrder(t *testing.T) {
	assert := assert.New(t)

	h, db := testHandler(t)
	seedTestChannel(t, db, "UC-order-test-a", "Alpha")
	seedTestChannel(t, db, "UC-order-test-b", "Beta")

	rec := doJSON(t, h, http.MethodPost, "/api/lists", map[string]string{"name": "Favorites", "color": "#ff0000"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/lists/1/channels", map[string]interface{}{
		"channelIds": []string{"UC-order-test-a", "UC-order-test-b"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(`{"added": 2}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodPut, "/api/lists/1/order", map[string]interface{}{
		"channelIds": []string{"UC-order-test-b", "UC-order-test-a"},
	})
	assert.Equal(http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/lists/1/channels", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var channels []models.Channel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &channels))

	require.Len(t, channels, 2)
	assert.Equal("UC-order-test-b", channels[0].ExternalID)
	assert.Equal("UC-order-test-a", channels[1].ExternalID)
}

func TestPlaylistOrderRejectsUnknownMovie(t *testing.T) {
	assert := assert.New(t)

	h, db := testHandler(t)

	res, err := db.Exec(
		"insert into movies (created_at, tmdb_id, title, fetch_status) values (?, ?, ?, ?)",
		handlersTestTime, 603, "The Matrix", models.FetchStatusCompleted,
	)
	require.NoError(t, err)

	movieID, err := res.LastInsertId()
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodPost, "/api/playlists", map[string]string{"name": "Heist Night"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/playlists/1/movies", map[string]interface{}{
		"movieIds": []int64{movieID},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/playlists/1/order", map[string]interface{}{
		"movieIds": []int64{movieID, 999999},
	})
	assert.Equal(http.StatusBadRequest, rec.Code)

	// The failed reorder must leave the previous membership intact.
	rec = doJSON(t, h, http.MethodGet, "/api/playlists/1/movies", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []models.Movie `json:"items"`
		Total int64          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.Items, 1)
	assert.Equal(movieID, body.Items[0].ID)
}
