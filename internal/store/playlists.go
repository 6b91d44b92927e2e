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

func scanMoviePlaylist(rows *sql.Rows) (models.MoviePlaylist, error) {
	var p models.MoviePlaylist

	if err := rows.Scan(
		&p.ID,
		&sqltypes.TimeScanner{Value: &p.CreatedAt},
		&p.Name,
		&p.Color,
		&p.ItemCount,
	); err != nil {
		return p, err
	}

	return p, nil
}

func ListMoviePlaylists(ctx context.Context, q Querier) ([]models.MoviePlaylist, error) {
	rows, err := q.QueryContext(ctx,
		`select p.id, p.created_at, p.name, p.color, coalesce(ic.item_count, 0)
		from movie_playlists p
		left join (select playlist_id, count(*) as item_count from movie_playlist_items group by playlist_id) ic on ic.playlist_id = p.id
		order by p.name asc`,
	)
	if err != nil {
		return nil, fmt.Errorf("store.ListMoviePlaylists: %w", err)
	}
	defer rows.Close()

	playlists := []models.MoviePlaylist{}
	for rows.Next() {
		p, err := scanMoviePlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("store.ListMoviePlaylists: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.ListMoviePlaylists: %w", err)
	}

	return playlists, nil
}

func GetMoviePlaylist(ctx context.Context, q Querier, id int64) (*models.MoviePlaylist, error) {
	rows, err := q.QueryContext(ctx,
		`select p.id, p.created_at, p.name, p.color, coalesce(ic.item_count, 0)
		from movie_playlists p
		left join (select playlist_id, count(*) as item_count from movie_playlist_items group by playlist_id) ic on ic.playlist_id = p.id
		where p.id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("store.GetMoviePlaylist: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("store.GetMoviePlaylist: %w", err)
		}
		return nil, sql.ErrNoRows
	}

	p, err := scanMoviePlaylist(rows)
	if err != nil {
		return nil, fmt.Errorf("store.GetMoviePlaylist: %w", err)
	}

	return &p, nil
}

func CreateMoviePlaylist(ctx context.Context, q Querier, name, color string, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx,
		"insert into movie_playlists (created_at, name, color) values (?, ?, ?)",
		now, name, color,
	)
	if err != nil {
		return 0, fmt.Errorf("store.CreateMoviePlaylist: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store.CreateMoviePlaylist: %w", err)
	}

	return id, nil
}

func UpdateMoviePlaylist(ctx context.Context, q Querier, id int64, name, color string) (int64, error) {
	res, err := q.ExecContext(ctx,
		"update movie_playlists set name = ?, color = ? where id = ?",
		name, color, id,
	)
	if err != nil {
		return 0, fmt.Errorf("store.UpdateMoviePlaylist: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store.UpdateMoviePlaylist: %w", err)
	}

	return n, nil
}

func DeleteMoviePlaylist(ctx context.Context, q Querier, id int64) (int64, error) {
	res, err := q.ExecContext(ctx, "delete from movie_playlists where id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("store.DeleteMoviePlaylist: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store.DeleteMoviePlaylist: %w", err)
	}

	return n, nil
}

// AddMovieToPlaylist appends the movie at the end of the playlist. A movie
// already present reports added=false and changes nothing.
func AddMovieToPlaylist(ctx context.Context, db *sql.DB, playlistID, movieID int64, now time.Time) (bool, error) {
	var added bool

	if err := usingTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		added, err = moviePlaylistMembers.add(ctx, tx, playlistID, movieID, now)
		return err
	}); err != nil {
		return false, fmt.Errorf("store.AddMovieToPlaylist: %w", err)
	}

	return added, nil
}

func AddMoviesToPlaylist(ctx context.Context, db *sql.DB, playlistID int64, movieIDs []int64, now time.Time) (int64, error) {
	members := make([]interface{}, len(movieIDs))
	for i, id := range movieIDs {
		members[i] = id
	}

	var added int64

	if err := usingTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		added, err = moviePlaylistMembers.bulkAdd(ctx, tx, playlistID, members, now)
		return err
	}); err != nil {
		return added, fmt.Errorf("store.AddMoviesToPlaylist: %w", err)
	}

	return added, nil
}

func RemoveMovieFromPlaylist(ctx context.Context, q Querier, playlistID, movieID int64) (int64, error) {
	n, err := moviePlaylistMembers.remove(ctx, q, playlistID, movieID)
	if err != nil {
		return 0, fmt.Errorf("store.RemoveMovieFromPlaylist: %w", err)
	}

	return n, nil
}

// ReorderMoviePlaylist replaces the playlist's membership with the given
// movies in the given order, atomically.
func ReorderMoviePlaylist(ctx context.Context, db *sql.DB, playlistID int64, movieIDs []int64, now time.Time) error {
	members := make([]interface{}, len(movieIDs))
	for i, id := range movieIDs {
		members[i] = id
	}

	if err := moviePlaylistMembers.reorder(ctx, db, playlistID, members, now); err != nil {
		return fmt.Errorf("store.ReorderMoviePlaylist: %w", err)
	}

	return nil
}

// ListPlaylistMovies pages through a playlist's movies with the usual movie
// filters layered on top. An empty playlist short-circuits to an empty page.
func ListPlaylistMovies(ctx context.Context, db *sql.DB, playlistID int64, f MovieFilters, sort Sort, page Pagination) ([]models.Movie, int64, error) {
	memberIDs, err := moviePlaylistMembers.memberInt64s(ctx, db, playlistID)
	if err != nil {
		return nil, 0, fmt.Errorf("store.ListPlaylistMovies: %w", err)
	}

	if len(memberIDs) == 0 {
		return []models.Movie{}, 0, nil
	}

	query := movieQuery(f, sort, page)
	query.Where(sqlq.In("m.id", int64Values(memberIDs)...))

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
		return nil, 0, fmt.Errorf("store.ListPlaylistMovies: %w", err)
	}

	return movies, total, nil
}

func int64Values(ids []int64) []interface{} {
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}

	return values
}
