package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jermspeaks/slowtube/internal/sqlq"
	"github.com/jermspeaks/slowtube/internal/sqltypes"
	"github.com/jermspeaks/slowtube/models"
)

var EpisodeSorts = sqlq.SortConfig{
	Default:      "number",
	DefaultOrder: sqlq.OrderAsc,
	Columns: map[string]sqlq.SortColumn{
		"number":  {Expr: "e.season_number * 1000 + e.episode_number"},
		"airDate": {Expr: "e.air_date", Nullable: true},
	},
}

type EpisodeFilters struct {
	UnwatchedOnly bool
}

const episodeColumns = "e.id, e.created_at, e.tv_show_id, e.season_number, e.episode_number, e.title, e.air_date, e.is_watched, e.watched_at"

func episodeQuery(showID int64, f EpisodeFilters, sort Sort, page Pagination) *sqlq.Query {
	q := sqlq.Select("episodes e", episodeColumns).
		Where(sqlq.Equals("e.tv_show_id", showID))

	if f.UnwatchedOnly {
		q.Where(sqlq.Expr("e.is_watched = 0"))
	}

	q.OrderBy(EpisodeSorts.OrderBy(sort.Key, sort.Order))
	q.Paginate(sqlq.Page(page.Page, page.Limit))

	return q
}

func scanEpisode(rows *sql.Rows) (models.Episode, error) {
	var e models.Episode

	if err := rows.Scan(
		&e.ID,
		&sqltypes.TimeScanner{Value: &e.CreatedAt},
		&e.TVShowID,
		&e.SeasonNumber,
		&e.EpisodeNumber,
		&e.Title,
		&sqltypes.TimePointerScanner{Value: &e.AirDate},
		&sqltypes.BoolScanner{Value: &e.IsWatched},
		&sqltypes.TimePointerScanner{Value: &e.WatchedAt},
	); err != nil {
		return e, err
	}

	return e, nil
}

func ListEpisodes(ctx context.Context, db *sql.DB, showID int64, f EpisodeFilters, sort Sort, page Pagination) ([]models.Episode, int64, error) {
	query := episodeQuery(showID, f, sort, page)

	var episodes []models.Episode
	var total int64

	if err := usingTx(ctx, db, func(tx *sql.Tx) error {
		stmt, params := query.SQL()

		rows, err := tx.QueryContext(ctx, stmt, params...)
		if err != nil {
			return err
		}
		defer rows.Close()

		episodes = []models.Episode{}
		for rows.Next() {
			e, err := scanEpisode(rows)
			if err != nil {
				return err
			}
			episodes = append(episodes, e)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		total, err = queryCount(ctx, tx, query)
		return err
	}); err != nil {
		return nil, 0, fmt.Errorf("store.ListEpisodes: %w", err)
	}

	return episodes, total, nil
}

// SetEpisodeWatched flips the watched flag on one episode. watched_at is set
// on watch and cleared on unwatch. Zero rows affected means no such episode.
func SetEpisodeWatched(ctx context.Context, q Querier, episodeID int64, watched bool, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx,
		"update episodes set is_watched = ?, watched_at = ? where id = ?",
		watched, timeOrNil(watched, now), episodeID,
	)
	if err != nil {
		return 0, fmt.Errorf("store.SetEpisodeWatched: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store.SetEpisodeWatched: %w", err)
	}

	return n, nil
}

type EpisodeMetadata struct {
	SeasonNumber  int64
	EpisodeNumber int64
	Title         string
	AirDate       *time.Time
}

// UpsertEpisodes re-imports episode metadata for a show. The natural key
// (tv_show_id, season_number, episode_number) is the conflict target, and
// the conflict branch touches only metadata columns, so watch progress
// survives re-imports.
func UpsertEpisodes(ctx context.Context, q Querier, showID int64, episodes []EpisodeMetadata, now time.Time) error {
	for _, e := range episodes {
		if _, err := q.ExecContext(ctx,
			`insert into episodes (created_at, tv_show_id, season_number, episode_number, title, air_date)
			values (?, ?, ?, ?, ?, ?)
			on conflict (tv_show_id, season_number, episode_number) do update set
				title = excluded.title,
				air_date = excluded.air_date`,
			now, showID, e.SeasonNumber, e.EpisodeNumber, e.Title, e.AirDate,
		); err != nil {
			return fmt.Errorf("store.UpsertEpisodes: season %d episode %d: %w", e.SeasonNumber, e.EpisodeNumber, err)
		}
	}

	return nil
}
