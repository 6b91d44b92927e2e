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

var MovieSorts = sqlq.SortConfig{
	Default:      "createdAt",
	DefaultOrder: sqlq.OrderDesc,
	Columns: map[string]sqlq.SortColumn{
		"createdAt":      {Expr: "m.created_at"},
		"title":          {Expr: "m.title"},
		"releaseDate":    {Expr: "m.release_date", Nullable: true},
		"runtime":        {Expr: "m.runtime_minutes", Nullable: true},
		"stateUpdatedAt": {Expr: "ms.updated_at", Nullable: true},
	},
}

// MovieFilters uses three-valued flag filters: a nil pointer means "don't
// care", and because flags live in a left-joined state row, matches go
// through coalesce so never-triaged movies count as false.
type MovieFilters struct {
	Archived  *bool
	Starred   *bool
	Watched   *bool
	Search    string
	DateStart *time.Time
	DateEnd   *time.Time

	// NotInAnyPlaylist keeps only movies that belong to no playlist.
	NotInAnyPlaylist bool
}

const movieColumns = "m.id, m.created_at, m.tmdb_id, m.imdb_id, m.title, m.description, m.poster_path, m.runtime_minutes, m.release_date, m.fetch_status, m.metadata_updated_at, coalesce(ms.is_archived, 0), coalesce(ms.is_starred, 0), coalesce(ms.is_watched, 0), ms.updated_at"

func movieQuery(f MovieFilters, sort Sort, page Pagination) *sqlq.Query {
	q := sqlq.Select("movies m", movieColumns).
		Join("left join movie_states ms on ms.movie_id = m.id")

	if f.Archived != nil {
		q.Where(sqlq.Expr("coalesce(ms.is_archived, 0) = ?", boolInt(f.Archived)))
	}
	if f.Starred != nil {
		q.Where(sqlq.Expr("coalesce(ms.is_starred, 0) = ?", boolInt(f.Starred)))
	}
	if f.Watched != nil {
		q.Where(sqlq.Expr("coalesce(ms.is_watched, 0) = ?", boolInt(f.Watched)))
	}

	q.Where(sqlq.Search(f.Search, "m.title", "m.description"))

	if f.DateStart != nil {
		q.Where(sqlq.OnOrAfter("m.release_date", *f.DateStart))
	}
	if f.DateEnd != nil {
		q.Where(sqlq.OnOrBefore("m.release_date", *f.DateEnd))
	}

	if f.NotInAnyPlaylist {
		q.Where(sqlq.Expr("not exists (select 1 from movie_playlist_items mpi where mpi.movie_id = m.id)"))
	}

	q.OrderBy(MovieSorts.OrderBy(sort.Key, sort.Order))
	q.Paginate(sqlq.Page(page.Page, page.Limit))

	return q
}

func scanMovie(rows *sql.Rows) (models.Movie, error) {
	var m models.Movie
	var imdbID, poster sql.NullString
	var runtime sql.NullInt64

	if err := rows.Scan(
		&m.ID,
		&sqltypes.TimeScanner{Value: &m.CreatedAt},
		&m.TMDBID,
		&imdbID,
		&m.Title,
		&m.Description,
		&poster,
		&runtime,
		&sqltypes.TimePointerScanner{Value: &m.ReleaseDate},
		&m.FetchStatus,
		&sqltypes.TimePointerScanner{Value: &m.MetadataUpdatedAt},
		&sqltypes.BoolScanner{Value: &m.IsArchived},
		&sqltypes.BoolScanner{Value: &m.IsStarred},
		&sqltypes.BoolScanner{Value: &m.IsWatched},
		&sqltypes.TimePointerScanner{Value: &m.StateUpdatedAt},
	); err != nil {
		return m, err
	}

	m.IMDBID = nullString(imdbID)
	m.PosterPath = nullString(poster)
	m.RuntimeMinutes = nullInt64(runtime)

	return m, nil
}

func queryMovies(ctx context.Context, q Querier, query *sqlq.Query) ([]models.Movie, error) {
	stmt, params := query.SQL()

	rows, err := q.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := []models.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}

	return movies, rows.Err()
}

func ListMovies(ctx context.Context, db *sql.DB, f MovieFilters, sort Sort, page Pagination) ([]models.Movie, int64, error) {
	query := movieQuery(f, sort, page)

	var movies []models.Movie
	var total int64

	if err := usingTx(ctx, db, func(tx *sql.Tx) error {
		var err error

		if movies, err = queryMovies(ctx, tx, query); err != nil {
			return err
		}

		total, err = queryCount(ctx, tx, query)
		return err
	}); err != nil {
		return nil, 0, fmt.Errorf("store.ListMovies: %w", err)
	}

	return movies, total, nil
}

// GetMovie returns sql.ErrNoRows when the id is unknown.
func GetMovie(ctx context.Context, q Querier, id int64) (*models.Movie, error) {
	query := movieQuery(MovieFilters{}, Sort{}, Pagination{})
	query.Where(sqlq.Equals("m.id", id))

	movies, err := queryMovies(ctx, q, query)
	if err != nil {
		return nil, fmt.Errorf("store.GetMovie: %w", err)
	}
	if len(movies) == 0 {
		return nil, sql.ErrNoRows
	}

	return &movies[0], nil
}

// MovieIDForTMDBID returns sql.ErrNoRows when the movie has not been added.
func MovieIDForTMDBID(ctx context.Context, q Querier, tmdbID int64) (int64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, "select id from movies where tmdb_id = ?", tmdbID).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("store.MovieIDForTMDBID: %w", err)
	}

	return id, nil
}

// MovieFlagChanges names the flags to touch. Nil fields stay out of the
// conflict update entirely, so starring a watched movie never clears the
// watched flag.
type MovieFlagChanges struct {
	Archived *bool
	Starred  *bool
	Watched  *bool
}

func (c MovieFlagChanges) isEmpty() bool {
	return c.Archived == nil && c.Starred == nil && c.Watched == nil
}

func SetMovieFlags(ctx context.Context, q Querier, movieID int64, changes MovieFlagChanges, now time.Time) (int64, error) {
	if changes.isEmpty() {
		return 0, fmt.Errorf("store.SetMovieFlags: no flags to change")
	}

	set := "updated_at = excluded.updated_at"
	if changes.Archived != nil {
		set += ", is_archived = excluded.is_archived"
	}
	if changes.Starred != nil {
		set += ", is_starred = excluded.is_starred"
	}
	if changes.Watched != nil {
		set += ", is_watched = excluded.is_watched"
	}

	res, err := q.ExecContext(ctx,
		`insert into movie_states (movie_id, is_archived, is_starred, is_watched, updated_at)
		select id, ?, ?, ?, ? from movies where id = ?
		on conflict (movie_id) do update set `+set,
		boolInt(changes.Archived), boolInt(changes.Starred), boolInt(changes.Watched), now, movieID,
	)
	if err != nil {
		return 0, fmt.Errorf("store.SetMovieFlags: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store.SetMovieFlags: %w", err)
	}

	return n, nil
}

type MovieMetadata struct {
	TMDBID         int64
	IMDBID         *string
	Title          string
	Description    string
	PosterPath     *string
	RuntimeMinutes *int64
	ReleaseDate    *time.Time
}

func EnsureMovie(ctx context.Context, q Querier, tmdbID int64, now time.Time) error {
	if _, err := q.ExecContext(ctx,
		`insert into movies (created_at, tmdb_id, title, fetch_status) values (?, ?, ?, ?)
		on conflict (tmdb_id) do nothing`,
		now, tmdbID, models.PlaceholderTitle, models.FetchStatusPending,
	); err != nil {
		return fmt.Errorf("store.EnsureMovie: %w", err)
	}

	return nil
}

func UpsertMovieMetadata(ctx context.Context, q Querier, m MovieMetadata, now time.Time) error {
	if _, err := q.ExecContext(ctx,
		`insert into movies (created_at, tmdb_id, imdb_id, title, description, poster_path, runtime_minutes, release_date, fetch_status, metadata_updated_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		on conflict (tmdb_id) do update set
			imdb_id = excluded.imdb_id,
			title = excluded.title,
			description = excluded.description,
			poster_path = excluded.poster_path,
			runtime_minutes = excluded.runtime_minutes,
			release_date = excluded.release_date,
			fetch_status = excluded.fetch_status,
			metadata_updated_at = excluded.metadata_updated_at`,
		now, m.TMDBID, m.IMDBID, m.Title, m.Description, m.PosterPath, m.RuntimeMinutes, m.ReleaseDate, models.FetchStatusCompleted, now,
	); err != nil {
		return fmt.Errorf("store.UpsertMovieMetadata: %w", err)
	}

	return nil
}
