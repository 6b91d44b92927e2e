package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jermspeaks/slowtube/models"
)

// Metadata enrichment works off a per-table pending set: rows whose fetch
// never ran, plus completed rows still wearing the placeholder title, which
// means an earlier fetch wrote nothing useful and should be retried. A
// completed row missing its external id would also qualify, but the schema
// declares external ids not null unique, so that case cannot exist.
const pendingCondition = "(fetch_status = ? or (fetch_status = ? and title = ?))"

func pendingParams() []interface{} {
	return []interface{}{models.FetchStatusPending, models.FetchStatusCompleted, models.PlaceholderTitle}
}

// PendingVideoIDs returns up to limit video ids awaiting metadata, oldest
// first, along with how many pending rows remain beyond the batch.
func PendingVideoIDs(ctx context.Context, q Querier, limit int64) ([]int64, int64, error) {
	ids, remaining, err := pendingIDs(ctx, q, "videos", limit)
	if err != nil {
		return nil, 0, fmt.Errorf("store.PendingVideoIDs: %w", err)
	}

	return ids, remaining, nil
}

func PendingShowIDs(ctx context.Context, q Querier, limit int64) ([]int64, int64, error) {
	ids, remaining, err := pendingIDs(ctx, q, "tv_shows", limit)
	if err != nil {
		return nil, 0, fmt.Errorf("store.PendingShowIDs: %w", err)
	}

	return ids, remaining, nil
}

func PendingMovieIDs(ctx context.Context, q Querier, limit int64) ([]int64, int64, error) {
	ids, remaining, err := pendingIDs(ctx, q, "movies", limit)
	if err != nil {
		return nil, 0, fmt.Errorf("store.PendingMovieIDs: %w", err)
	}

	return ids, remaining, nil
}

func pendingIDs(ctx context.Context, q Querier, table string, limit int64) ([]int64, int64, error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf("select id from %s where %s order by created_at asc limit ?", table, pendingCondition),
		append(pendingParams(), limit)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := q.QueryRowContext(ctx,
		fmt.Sprintf("select count(*) from %s where %s", table, pendingCondition),
		pendingParams()...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	remaining := total - int64(len(ids))
	if remaining < 0 {
		remaining = 0
	}

	return ids, remaining, nil
}

// MarkVideoFetchStatus records the outcome of a metadata fetch that did not
// produce usable metadata (unavailable or failed). Successful fetches go
// through UpsertVideoMetadata instead.
func MarkVideoFetchStatus(ctx context.Context, q Querier, videoID int64, status string, now time.Time) (int64, error) {
	n, err := markFetchStatus(ctx, q, "videos", videoID, status, now)
	if err != nil {
		return 0, fmt.Errorf("store.MarkVideoFetchStatus: %w", err)
	}

	return n, nil
}

func MarkShowFetchStatus(ctx context.Context, q Querier, showID int64, status string, now time.Time) (int64, error) {
	n, err := markFetchStatus(ctx, q, "tv_shows", showID, status, now)
	if err != nil {
		return 0, fmt.Errorf("store.MarkShowFetchStatus: %w", err)
	}

	return n, nil
}

func MarkMovieFetchStatus(ctx context.Context, q Querier, movieID int64, status string, now time.Time) (int64, error) {
	n, err := markFetchStatus(ctx, q, "movies", movieID, status, now)
	if err != nil {
		return 0, fmt.Errorf("store.MarkMovieFetchStatus: %w", err)
	}

	return n, nil
}

func markFetchStatus(ctx context.Context, q Querier, table string, id int64, status string, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx,
		fmt.Sprintf("update %s set fetch_status = ?, metadata_updated_at = ? where id = ?", table),
		status, now, id,
	)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
