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

// VideoSorts is the per-entity sorting contract handed to the order
// resolver. Derived or nullable columns are marked so null rows always sort
// last.
var VideoSorts = sqlq.SortConfig{
	Default:      "createdAt",
	DefaultOrder: sqlq.OrderDesc,
	Columns: map[string]sqlq.SortColumn{
		"createdAt":      {Expr: "v.created_at"},
		"publishedAt":    {Expr: "v.published_at", Nullable: true},
		"title":          {Expr: "v.title"},
		"duration":       {Expr: "v.duration_seconds", Nullable: true},
		"stateUpdatedAt": {Expr: "vs.updated_at", Nullable: true},
		"channelTitle":   {Expr: "c.title", Nullable: true},
	},
}

// VideoDateFields maps a caller-facing date-range field selector to the
// column it filters on. Anything outside this map is silently not a filter;
// arbitrary column names never reach the statement.
var VideoDateFields = map[string]string{
	"published": "v.published_at",
	"created":   "v.created_at",
}

// VideoFilters is the open bag of optional, independently-togglable filters.
// Zero values mean "absent". Conditions are emitted in a fixed order: state,
// search, membership, date range, derived status.
type VideoFilters struct {
	State              string
	Search             string
	ChannelTitles      []string
	ChannelExternalIDs []string
	DateField          string
	DateStart          *time.Time
	DateEnd            *time.Time

	// Latest is a computed view, not a stored state: metadata has been
	// fetched AND the video is untriaged or still in the feed.
	Latest bool
	// ExcludeArchived is the watch-later default; archived videos stay
	// hidden unless the caller explicitly asks for them.
	ExcludeArchived bool
}

const videoColumns = "v.id, v.created_at, v.youtube_id, v.channel_external_id, v.title, v.description, v.thumbnail_path, v.duration_seconds, v.published_at, v.fetch_status, v.metadata_updated_at, vs.state, vs.updated_at, c.title"

func videoQuery(f VideoFilters, sort Sort, page Pagination) *sqlq.Query {
	q := sqlq.Select("videos v", videoColumns).
		Join("left join video_states vs on vs.video_id = v.id").
		Join("left join channels c on c.external_id = v.channel_external_id")

	if f.State != "" {
		q.Where(sqlq.Equals("vs.state", f.State))
	}

	q.Where(sqlq.Search(f.Search, "v.title", "v.description"))
	q.Where(sqlq.InStrings("c.title", f.ChannelTitles))
	q.Where(sqlq.InStrings("v.channel_external_id", f.ChannelExternalIDs))

	if column, ok := VideoDateFields[f.DateField]; ok {
		if f.DateStart != nil {
			q.Where(sqlq.OnOrAfter(column, *f.DateStart))
		}
		if f.DateEnd != nil {
			q.Where(sqlq.OnOrBefore(column, *f.DateEnd))
		}
	}

	if f.Latest {
		q.Where(sqlq.Expr("v.metadata_updated_at is not null and (vs.state is null or vs.state = ?)", models.VideoStateFeed))
	}
	if f.ExcludeArchived {
		q.Where(sqlq.Expr("(vs.state is null or vs.state <> ?)", models.VideoStateArchive))
	}

	q.OrderBy(VideoSorts.OrderBy(sort.Key, sort.Order))
	q.Paginate(sqlq.Page(page.Page, page.Limit))

	return q
}

func scanVideo(rows *sql.Rows) (models.Video, error) {
	var v models.Video
	var thumbnail, state, channelTitle sql.NullString
	var duration sql.NullInt64

	if err := rows.Scan(
		&v.ID,
		&sqltypes.TimeScanner{Value: &v.CreatedAt},
		&v.YouTubeID,
		&v.ChannelExternalID,
		&v.Title,
		&v.Description,
		&thumbnail,
		&duration,
		&sqltypes.TimePointerScanner{Value: &v.PublishedAt},
		&v.FetchStatus,
		&sqltypes.TimePointerScanner{Value: &v.MetadataUpdatedAt},
		&state,
		&sqltypes.TimePointerScanner{Value: &v.StateUpdatedAt},
		&channelTitle,
	); err != nil {
		return v, err
	}

	v.ThumbnailPath = nullString(thumbnail)
	v.DurationSeconds = nullInt64(duration)
	v.State = nullString(state)
	v.ChannelTitle = nullString(channelTitle)

	return v, nil
}

func queryVideos(ctx context.Context, q Querier, query *sqlq.Query) ([]models.Video, error) {
	stmt, params := query.SQL()

	rows, err := q.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}

	return videos, rows.Err()
}

func queryCount(ctx context.Context, q Querier, query *sqlq.Query) (int64, error) {
	stmt, params := query.CountSQL()

	var total int64
	if err := q.QueryRowContext(ctx, stmt, params...).Scan(&total); err != nil {
		return 0, err
	}

	return total, nil
}

// ListVideos issues the row-fetch statement and its paired count statement
// inside one transaction so they observe a consistent snapshot.
func ListVideos(ctx context.Context, db *sql.DB, f VideoFilters, sort Sort, page Pagination) ([]models.Video, int64, error) {
	query := videoQuery(f, sort, page)

	var videos []models.Video
	var total int64

	if err := usingTx(ctx, db, func(tx *sql.Tx) error {
		var err error

		if videos, err = queryVideos(ctx, tx, query); err != nil {
			return err
		}

		total, err = queryCount(ctx, tx, query)
		return err
	}); err != nil {
		return nil, 0, fmt.Errorf("store.ListVideos: %w", err)
	}

	return videos, total, nil
}

// GetVideo returns sql.ErrNoRows when the id is unknown.
func GetVideo(ctx context.Context, q Querier, id int64) (*models.Video, error) {
	query := sqlq.Select("videos v", videoColumns).
		Join("left join video_states vs on vs.video_id = v.id").
		Join("left join channels c on c.external_id = v.channel_external_id").
		Where(sqlq.Equals("v.id", id))

	stmt, params := query.SQL()

	rows, err := q.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("store.GetVideo: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("store.GetVideo: %w", err)
		}
		return nil, sql.ErrNoRows
	}

	v, err := scanVideo(rows)
	if err != nil {
		return nil, fmt.Errorf("store.GetVideo: %w", err)
	}

	return &v, nil
}

// SetVideoState upserts the one state row for a video, conflict target the
// video id. Any state is reachable from any other; there are no forbidden
// transitions. Zero rows affected means the video id does not exist.
func SetVideoState(ctx context.Context, q Querier, videoID int64, state string, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx,
		`insert into video_states (video_id, state, updated_at)
		select id, ?, ? from videos where id = ?
		on conflict (video_id) do update set state = excluded.state, updated_at = excluded.updated_at`,
		state, now, videoID,
	)
	if err != nil {
		return 0, fmt.Errorf("store.SetVideoState: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store.SetVideoState: %w", err)
	}

	return n, nil
}

// VideoMetadata is what the enrichment collaborator supplies. Optional
// fields may stay nil indefinitely.
type VideoMetadata struct {
	YouTubeID         string
	ChannelExternalID string
	Title             string
	Description       string
	ThumbnailPath     *string
	DurationSeconds   *int64
	PublishedAt       *time.Time
}

// EnsureVideo creates a placeholder row for a video we know about but have
// not fetched yet. Existing rows are left untouched.
func EnsureVideo(ctx context.Context, q Querier, youtubeID string, now time.Time) error {
	if _, err := q.ExecContext(ctx,
		`insert into videos (created_at, youtube_id, title, fetch_status) values (?, ?, ?, ?)
		on conflict (youtube_id) do nothing`,
		now, youtubeID, models.PlaceholderTitle, models.FetchStatusPending,
	); err != nil {
		return fmt.Errorf("store.EnsureVideo: %w", err)
	}

	return nil
}

// VideoIDForYouTubeID returns sql.ErrNoRows when the video has not been
// added.
func VideoIDForYouTubeID(ctx context.Context, q Querier, youtubeID string) (int64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, "select id from videos where youtube_id = ?", youtubeID).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("store.VideoIDForYouTubeID: %w", err)
	}

	return id, nil
}

// UpsertVideoMetadata persists a completed metadata fetch, keyed on the
// external id. Triage state is untouched; enrichment and triage are
// independent signals.
func UpsertVideoMetadata(ctx context.Context, q Querier, m VideoMetadata, now time.Time) error {
	if _, err := q.ExecContext(ctx,
		`insert into videos (created_at, youtube_id, channel_external_id, title, description, thumbnail_path, duration_seconds, published_at, fetch_status, metadata_updated_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		on conflict (youtube_id) do update set
			channel_external_id = excluded.channel_external_id,
			title = excluded.title,
			description = excluded.description,
			thumbnail_path = excluded.thumbnail_path,
			duration_seconds = excluded.duration_seconds,
			published_at = excluded.published_at,
			fetch_status = excluded.fetch_status,
			metadata_updated_at = excluded.metadata_updated_at`,
		now, m.YouTubeID, m.ChannelExternalID, m.Title, m.Description, m.ThumbnailPath, m.DurationSeconds, m.PublishedAt, models.FetchStatusCompleted, now,
	); err != nil {
		return fmt.Errorf("store.UpsertVideoMetadata: %w", err)
	}

	return nil
}
