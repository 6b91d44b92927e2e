// Package enricher resolves a catalog row's external id to fetched metadata
// and records the outcome on the row. The enrich endpoint and the background
// workers both go through these functions, so a batch run and a queued job
// behave identically.
package enricher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jermspeaks/slowtube/internal/store"
	"github.com/jermspeaks/slowtube/internal/tmdb"
	"github.com/jermspeaks/slowtube/internal/ytdirect"
	"github.com/jermspeaks/slowtube/models"
)

func parseDate(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}

	return &t
}

func stringOrNil(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

// Video fetches metadata for one video row. A page that no longer exists
// marks the row unavailable and counts as handled; any other failure marks it
// failed and propagates so the caller can retry.
func Video(ctx context.Context, q store.Querier, id int64, now time.Time) (string, error) {
	v, err := store.GetVideo(ctx, q, id)
	if err != nil {
		return "", fmt.Errorf("enricher.Video: %w", err)
	}

	meta, err := ytdirect.GetVideo(ctx, v.YouTubeID)
	if err != nil {
		if errors.Is(err, ytdirect.ErrNotFound) {
			if _, err := store.MarkVideoFetchStatus(ctx, q, id, models.FetchStatusUnavailable, now); err != nil {
				return "", fmt.Errorf("enricher.Video: %w", err)
			}

			return fmt.Sprintf("video %s is unavailable", v.YouTubeID), nil
		}

		if _, markErr := store.MarkVideoFetchStatus(ctx, q, id, models.FetchStatusFailed, now); markErr != nil {
			return "", fmt.Errorf("enricher.Video: %w", markErr)
		}

		return "", fmt.Errorf("enricher.Video: %w", err)
	}

	if err := store.UpsertVideoMetadata(ctx, q, store.VideoMetadata{
		YouTubeID:         meta.ID,
		ChannelExternalID: meta.ChannelID,
		Title:             meta.Title,
		Description:       meta.Description,
		DurationSeconds:   meta.LengthSeconds,
		PublishedAt:       parseDate(meta.PublishDate),
		ThumbnailPath:     stringOrNil(meta.ThumbnailURL),
	}, now); err != nil {
		return "", fmt.Errorf("enricher.Video: %w", err)
	}

	return fmt.Sprintf("fetched metadata for video %s", meta.ID), nil
}

// Channel refreshes the denormalized channel fields. Channels carry no fetch
// status, so failures just propagate.
func Channel(ctx context.Context, q store.Querier, externalID string, now time.Time) (string, error) {
	meta, err := ytdirect.GetChannel(ctx, externalID)
	if err != nil {
		return "", fmt.Errorf("enricher.Channel: %w", err)
	}

	if err := store.UpsertChannelMetadata(ctx, q, store.ChannelMetadata{
		ExternalID:   meta.ID,
		Title:        meta.Title,
		ThumbnailURL: stringOrNil(meta.ThumbnailURL),
	}, now); err != nil {
		return "", fmt.Errorf("enricher.Channel: %w", err)
	}

	return fmt.Sprintf("refreshed metadata for channel %s", meta.ID), nil
}

// Show refreshes show metadata and re-imports every season's episodes. The
// episode upsert touches only metadata columns, so watch progress survives.
func Show(ctx context.Context, q store.Querier, id int64, apiKey string, now time.Time) (string, error) {
	s, err := store.GetShow(ctx, q, id)
	if err != nil {
		return "", fmt.Errorf("enricher.Show: %w", err)
	}

	meta, err := tmdb.GetShow(ctx, apiKey, s.TMDBID)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			if _, err := store.MarkShowFetchStatus(ctx, q, id, models.FetchStatusUnavailable, now); err != nil {
				return "", fmt.Errorf("enricher.Show: %w", err)
			}

			return fmt.Sprintf("show %d is unavailable", s.TMDBID), nil
		}

		if _, markErr := store.MarkShowFetchStatus(ctx, q, id, models.FetchStatusFailed, now); markErr != nil {
			return "", fmt.Errorf("enricher.Show: %w", markErr)
		}

		return "", fmt.Errorf("enricher.Show: %w", err)
	}

	if err := store.UpsertShowMetadata(ctx, q, store.ShowMetadata{
		TMDBID:       s.TMDBID,
		Title:        meta.Name,
		Description:  meta.Overview,
		PosterPath:   stringOrNil(meta.PosterPath),
		FirstAirDate: parseDate(meta.FirstAirDate),
	}, now); err != nil {
		return "", fmt.Errorf("enricher.Show: %w", err)
	}

	for _, season := range meta.Seasons {
		episodes, err := tmdb.GetSeason(ctx, apiKey, s.TMDBID, season.SeasonNumber)
		if err != nil {
			return "", fmt.Errorf("enricher.Show: %w", err)
		}

		imported := make([]store.EpisodeMetadata, 0, len(episodes))
		for _, e := range episodes {
			imported = append(imported, store.EpisodeMetadata{
				SeasonNumber:  e.SeasonNumber,
				EpisodeNumber: e.EpisodeNumber,
				Title:         e.Name,
				AirDate:       parseDate(e.AirDate),
			})
		}

		if err := store.UpsertEpisodes(ctx, q, id, imported, now); err != nil {
			return "", fmt.Errorf("enricher.Show: %w", err)
		}
	}

	return fmt.Sprintf("refreshed %d seasons for show %q", len(meta.Seasons), meta.Name), nil
}

// Movie fetches metadata for one movie row.
func Movie(ctx context.Context, q store.Querier, id int64, apiKey string, now time.Time) (string, error) {
	m, err := store.GetMovie(ctx, q, id)
	if err != nil {
		return "", fmt.Errorf("enricher.Movie: %w", err)
	}

	meta, err := tmdb.GetMovie(ctx, apiKey, m.TMDBID)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			if _, err := store.MarkMovieFetchStatus(ctx, q, id, models.FetchStatusUnavailable, now); err != nil {
				return "", fmt.Errorf("enricher.Movie: %w", err)
			}

			return fmt.Sprintf("movie %d is unavailable", m.TMDBID), nil
		}

		if _, markErr := store.MarkMovieFetchStatus(ctx, q, id, models.FetchStatusFailed, now); markErr != nil {
			return "", fmt.Errorf("enricher.Movie: %w", markErr)
		}

		return "", fmt.Errorf("enricher.Movie: %w", err)
	}

	if err := store.UpsertMovieMetadata(ctx, q, store.MovieMetadata{
		TMDBID:         m.TMDBID,
		IMDBID:         stringOrNil(meta.IMDBID),
		Title:          meta.Title,
		Description:    meta.Overview,
		PosterPath:     stringOrNil(meta.PosterPath),
		RuntimeMinutes: meta.RuntimeMinutes,
		ReleaseDate:    parseDate(meta.ReleaseDate),
	}, now); err != nil {
		return "", fmt.Errorf("enricher.Movie: %w", err)
	}

	return fmt.Sprintf("fetched metadata for movie %q", meta.Title), nil
}
