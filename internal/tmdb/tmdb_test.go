package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jermspeaks/slowtube/internal/ctxhttpclient"
)

type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host

	return http.DefaultTransport.RoundTrip(r)
}

func testContext(t *testing.T, handler http.HandlerFunc) context.Context {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	return ctxhttpclient.WithHTTPClient(context.Background(), &http.Client{
		Transport: rewriteTransport{target: target},
	})
}

func TestGetMovie(t *testing.T) {
	a := assert.New(t)

	ctx := testContext(t, func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/3/movie/603" {
			http.NotFound(rw, r)
			return
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			rw.WriteHeader(http.StatusUnauthorized)
			return
		}

		fmt.Fprint(rw, `{"id": 603, "imdb_id": "tt0133093", "title": "The Matrix", "overview": "A hacker.", "poster_path": "/matrix.jpg", "runtime": 136, "release_date": "1999-03-30"}`)
	})

	m, err := GetMovie(ctx, "test-key", 603)
	require.NoError(t, err)

	a.Equal("tt0133093", m.IMDBID)
	a.Equal("The Matrix", m.Title)
	a.Equal("1999-03-30", m.ReleaseDate)
	if a.NotNil(m.RuntimeMinutes) {
		a.Equal(int64(136), *m.RuntimeMinutes)
	}
}

func TestGetMovieNotFound(t *testing.T) {
	ctx := testContext(t, func(rw http.ResponseWriter, r *http.Request) {
		http.NotFound(rw, r)
	})

	_, err := GetMovie(ctx, "test-key", 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetShowAndSeason(t *testing.T) {
	a := assert.New(t)

	ctx := testContext(t, func(rw http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/tv/1396":
			fmt.Fprint(rw, `{"id": 1396, "name": "Breaking Bad", "overview": "A teacher.", "poster_path": "/bb.jpg", "first_air_date": "2008-01-20", "seasons": [{"season_number": 1, "episode_count": 7}, {"season_number": 2, "episode_count": 13}]}`)
		case "/3/tv/1396/season/1":
			fmt.Fprint(rw, `{"episodes": [{"episode_number": 1, "name": "Pilot", "air_date": "2008-01-20"}, {"episode_number": 2, "name": "Cat's in the Bag...", "air_date": "2008-01-27"}]}`)
		default:
			http.NotFound(rw, r)
		}
	})

	s, err := GetShow(ctx, "test-key", 1396)
	require.NoError(t, err)

	a.Equal("Breaking Bad", s.Name)
	a.Equal("2008-01-20", s.FirstAirDate)
	require.Len(t, s.Seasons, 2)
	a.Equal(int64(7), s.Seasons[0].EpisodeCount)

	episodes, err := GetSeason(ctx, "test-key", 1396, 1)
	require.NoError(t, err)

	require.Len(t, episodes, 2)
	a.Equal("Pilot", episodes[0].Name)
	a.Equal(int64(1), episodes[0].SeasonNumber)
	a.Equal(int64(2), episodes[1].EpisodeNumber)
}
