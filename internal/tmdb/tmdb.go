// Package tmdb is a minimal client for The Movie Database v3 API, covering
// just the lookups the metadata fetchers need.
package tmdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Jeffail/gabs/v2"

	"github.com/jermspeaks/slowtube/internal/ctxhttpclient"
)

const baseURL = "https://api.themoviedb.org/3"

func get(ctx context.Context, apiKey, path string) (*gabs.Container, error) {
	u := baseURL + path + "?api_key=" + url.QueryEscape(apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("tmdb.get: %w", err)
	}

	res, err := ctxhttpclient.GetHTTPClient(ctx).Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb.get: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb.get: status code: %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("tmdb.get: %w", err)
	}

	j, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, fmt.Errorf("tmdb.get: %w", err)
	}

	return j, nil
}

var ErrNotFound = fmt.Errorf("tmdb: not found")

func stringAt(j *gabs.Container, path string) string {
	if !j.ExistsP(path) {
		return ""
	}

	s, _ := j.Path(path).Data().(string)

	return s
}

func int64At(j *gabs.Container, path string) *int64 {
	if !j.ExistsP(path) {
		return nil
	}

	f, ok := j.Path(path).Data().(float64)
	if !ok {
		return nil
	}

	n := int64(f)

	return &n
}

type Movie struct {
	ID             int64
	IMDBID         string
	Title          string
	Overview       string
	PosterPath     string
	RuntimeMinutes *int64
	ReleaseDate    string
}

func GetMovie(ctx context.Context, apiKey string, id int64) (*Movie, error) {
	j, err := get(ctx, apiKey, fmt.Sprintf("/movie/%d", id))
	if err != nil {
		if err == ErrNotFound {
			return nil, err
		}

		return nil, fmt.Errorf("tmdb.GetMovie: %w", err)
	}

	return &Movie{
		ID:             id,
		IMDBID:         stringAt(j, "imdb_id"),
		Title:          stringAt(j, "title"),
		Overview:       stringAt(j, "overview"),
		PosterPath:     stringAt(j, "poster_path"),
		RuntimeMinutes: int64At(j, "runtime"),
		ReleaseDate:    stringAt(j, "release_date"),
	}, nil
}

type Show struct {
	ID           int64
	Name         string
	Overview     string
	PosterPath   string
	FirstAirDate string
	Seasons      []Season
}

type Season struct {
	SeasonNumber int64
	EpisodeCount int64
}

func GetShow(ctx context.Context, apiKey string, id int64) (*Show, error) {
	j, err := get(ctx, apiKey, fmt.Sprintf("/tv/%d", id))
	if err != nil {
		if err == ErrNotFound {
			return nil, err
		}

		return nil, fmt.Errorf("tmdb.GetShow: %w", err)
	}

	s := &Show{
		ID:           id,
		Name:         stringAt(j, "name"),
		Overview:     stringAt(j, "overview"),
		PosterPath:   stringAt(j, "poster_path"),
		FirstAirDate: stringAt(j, "first_air_date"),
	}

	for _, season := range j.Path("seasons").Children() {
		number := int64At(season, "season_number")
		count := int64At(season, "episode_count")
		if number == nil {
			continue
		}

		var episodeCount int64
		if count != nil {
			episodeCount = *count
		}

		s.Seasons = append(s.Seasons, Season{SeasonNumber: *number, EpisodeCount: episodeCount})
	}

	return s, nil
}

type Episode struct {
	SeasonNumber  int64
	EpisodeNumber int64
	Name          string
	AirDate       string
}

// GetSeason returns the episodes of one season of a show.
func GetSeason(ctx context.Context, apiKey string, showID, seasonNumber int64) ([]Episode, error) {
	j, err := get(ctx, apiKey, fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber))
	if err != nil {
		if err == ErrNotFound {
			return nil, err
		}

		return nil, fmt.Errorf("tmdb.GetSeason: %w", err)
	}

	var episodes []Episode

	for _, episode := range j.Path("episodes").Children() {
		number := int64At(episode, "episode_number")
		if number == nil {
			continue
		}

		episodes = append(episodes, Episode{
			SeasonNumber:  seasonNumber,
			EpisodeNumber: *number,
			Name:          stringAt(episode, "name"),
			AirDate:       stringAt(episode, "air_date"),
		})
	}

	return episodes, nil
}
