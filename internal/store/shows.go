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

// ShowSorts references the derived tables' output aliases; the resolver
// never inlines the subqueries themselves. The aggregates come back as text,
// so date sorts on them are forced through datetime().
var ShowSorts = sqlq.SortConfig{
	Default:      "title",
	DefaultOrder: sqlq.OrderAsc,
	Columns: map[string]sqlq.SortColumn{
		"title":          {Expr: "s.title"},
		"createdAt":      {Expr: "s.created_at"},
		"firstAirDate":   {Expr: "s.first_air_date", Nullable: true},
		"nextAirDate":    {Expr: "ne.next_air_date", Nullable: true, DateText: true},
		"lastAirDate":    {Expr: "le.last_air_date", Nullable: true, DateText: true},
		"stateUpdatedAt": {Expr: "ss.updated_at", Nullable: true},
	},
}

type ShowFilters struct {
	Search      string
	StartedOnly bool
	// HideCompleted keeps shows with at least one unwatched episode (or no
	// episodes imported yet).
	HideCompleted bool
	// Archived shows are hidden by default; callers ask for them explicitly.
	IncludeArchived bool
}

const showColumns = "s.id, s.created_at, s.tmdb_id, s.title, s.description, s.poster_path, s.first_air_date, s.fetch_status, s.metadata_updated_at, coalesce(ss.is_archived, 0), coalesce(ss.is_started, 0), ss.updated_at, ne.next_air_date, le.last_air_date, coalesce(ec.episode_count, 0), coalesce(ec.watched_count, 0)"

// The per-show episode aggregates are joined once as named derived tables;
// both the derived-status filters and the order resolver reference the same
// aliases instead of recomputing anything per row.
func showQuery(f ShowFilters, sort Sort, page Pagination) *sqlq.Query {
	q := sqlq.Select("tv_shows s", showColumns).
		Join("left join tv_show_states ss on ss.tv_show_id = s.id").
		Join("left join (select tv_show_id, min(air_date) as next_air_date from episodes where is_watched = 0 and date(air_date) >= date('now') group by tv_show_id) ne on ne.tv_show_id = s.id").
		Join("left join (select tv_show_id, max(air_date) as last_air_date from episodes where air_date is not null and date(air_date) <= date('now') group by tv_show_id) le on le.tv_show_id = s.id").
		Join("left join (select tv_show_id, count(*) as episode_count, sum(is_watched) as watched_count from episodes group by tv_show_id) ec on ec.tv_show_id = s.id")

	if !f.IncludeArchived {
		q.Where(sqlq.Expr("coalesce(ss.is_archived, 0) = 0"))
	}

	q.Where(sqlq.Search(f.Search, "s.title", "s.description"))

	if f.StartedOnly {
		q.Where(sqlq.Expr("coalesce(ss.is_started, 0) = 1"))
	}
	if f.HideCompleted {
		q.Where(sqlq.Expr("(ec.episode_count is null or ec.watched_count < ec.episode_count)"))
	}

	q.OrderBy(ShowSorts.OrderBy(sort.Key, sort.Order))
	q.Paginate(sqlq.Page(page.Page, page.Limit))

	return q
}

func scanShow(rows *sql.Rows) (models.TVShow, error) {
	var s models.TVShow
	var poster sql.NullString

	if err := rows.Scan(
		&s.ID,
		&sqltypes.TimeScanner{Value: &s.CreatedAt},
		&s.TMDBID,
		&s.Title,
		&s.Description,
		&poster,
		&sqltypes.TimePointerScanner{Value: &s.FirstAirDate},
		&s.FetchStatus,
		&sqltypes.TimePointerScanner{Value: &s.MetadataUpdatedAt},
		&sqltypes.BoolScanner{Value: &s.IsArchived},
		&sqltypes.BoolScanner{Value: &s.IsStarted},
		&sqltypes.TimePointerScanner{Value: &s.StateUpdatedAt},
		&sqltypes.TimePointerScanner{Value: &s.NextAirDate},
		&sqltypes.TimePointerScanner{Value: &s.LastAirDate},
		&s.EpisodeCount,
		&s.WatchedCount,
	); err != nil {
		return s, err
	}

	s.PosterPath = nullString(poster)

	return s, nil
}

func ListShows(ctx context.Context, db *sql.DB, f ShowFilters, sort Sort, page Pagination) ([]models.TVShow, int64, error) {
	query := showQuery(f, sort, page)

	var shows []models.TVShow
	var total int64

	if err := usingTx(ctx, db, func(tx *sql.Tx) error {
		stmt, params := query.SQL()

		rows, err := tx.QueryContext(ctx, stmt, params...)
		if err != nil {
			return err
		}
		defer rows.Close()

		shows = []models.TVShow{}
		for rows.Next() {
			s, err := scanShow(rows)
			if err != nil {
				return err
			}
			shows = append(shows, s)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		total, err = queryCount(ctx, tx, query)
		return err
	}); err != nil {
		return nil, 0, fmt.Errorf("store.ListShows: %w", err)
	}

	return shows, total, nil
}

// GetShow returns sql.ErrNoRows when the id is unknown.
func GetShow(ctx context.Context, q Querier, id int64) (*models.TVShow, error) {
	query := showQuery(ShowFilters{IncludeArchived: true}, Sort{}, Pagination{})
	query.Where(sqlq.Equals("s.id", id))

	stmt, params := query.SQL()

	rows, err := q.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("store.GetShow: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("store.GetShow: %w", err)
		}
		return nil, sql.ErrNoRows
	}

	s, err := scanShow(rows)
	if err != nil {
		return nil, fmt.Errorf("store.GetShow: %w", err)
	}

	return &s, nil
}

// ShowIDForTMDBID returns sql.ErrNoRows when the show has not been added.
func ShowIDForTMDBID(ctx context.Context, q Querier, tmdbID int64) (int64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, "select id from tv_shows where tmdb_id = ?", tmdbID).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("store.ShowIDForTMDBID: %w", err)
	}

	return id, nil
}

// ShowFlagChanges names the columns to touch explicitly. A nil field is left
// alone: the conflict branch of the upsert is scoped to only the named
// columns, so setting one flag can never reset its sibling.
type ShowFlagChanges struct {
	Archived *bool
	Started  *bool
}

func (c ShowFlagChanges) isEmpty() bool {
	return c.Archived == nil && c.Started == nil
}

func SetShowFlags(ctx context.Context, q Querier, showID int64, changes ShowFlagChanges, now time.Time) (int64, error) {
	if changes.isEmpty() {
		return 0, fmt.Errorf("store.SetShowFlags: no flags to change")
	}

	set := "updated_at = excluded.updated_at"
	if changes.Archived != nil {
		set += ", is_archived = excluded.is_archived"
	}
	if changes.Started != nil {
		set += ", is_started = excluded.is_started"
	}

	res, err := q.ExecContext(ctx,
		`insert into tv_show_states (tv_show_id, is_archived, is_started, updated_at)
		select id, ?, ?, ? from tv_shows where id = ?
		on conflict (tv_show_id) do update set `+set,
		boolInt(changes.Archived), boolInt(changes.Started), now, showID,
	)
	if err != nil {
		return 0, fmt.Errorf("store.SetShowFlags: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store.SetShowFlags: %w", err)
	}

	return n, nil
}

type ShowMetadata struct {
	TMDBID       int64
	Title        string
	Description  string
	PosterPath   *string
	FirstAirDate *time.Time
}

func EnsureShow(ctx context.Context, q Querier, tmdbID int64, now time.Time) error {
	if _, err := q.ExecContext(ctx,
		`insert into tv_shows (created_at, tmdb_id, title, fetch_status) values (?, ?, ?, ?)
		on conflict (tmdb_id) do nothing`,
		now, tmdbID, models.PlaceholderTitle, models.FetchStatusPending,
	); err != nil {
		return fmt.Errorf("store.EnsureShow: %w", err)
	}

	return nil
}

func UpsertShowMetadata(ctx context.Context, q Querier, m ShowMetadata, now time.Time) error {
	if _, err := q.ExecContext(ctx,
		`insert into tv_shows (created_at, tmdb_id, title, description, poster_path, first_air_date, fetch_status, metadata_updated_at)
		values (?, ?, ?, ?, ?, ?, ?, ?)
		on conflict (tmdb_id) do update set
			title = excluded.title,
			description = excluded.description,
			poster_path = excluded.poster_path,
			first_air_date = excluded.first_air_date,
			fetch_status = excluded.fetch_status,
			metadata_updated_at = excluded.metadata_updated_at`,
		now, m.TMDBID, m.Title, m.Description, m.PosterPath, m.FirstAirDate, models.FetchStatusCompleted, now,
	); err != nil {
		return fmt.Errorf("store.UpsertShowMetadata: %w", err)
	}

	return nil
}
