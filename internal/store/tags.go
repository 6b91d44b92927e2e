package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jermspeaks/slowtube/internal/sqltypes"
	"github.com/jermspeaks/slowtube/models"
)

func scanTag(rows *sql.Rows) (models.Tag, error) {
	var t models.Tag

	if err := rows.Scan(
		&t.ID,
		&sqltypes.TimeScanner{Value: &t.CreatedAt},
		&t.VideoID,
		&t.Name,
	); err != nil {
		return t, err
	}

	return t, nil
}

func ListTags(ctx context.Context, q Querier, videoID int64) ([]models.Tag, error) {
	rows, err := q.QueryContext(ctx,
		"select id, created_at, video_id, name from tags where video_id = ? order by name asc",
		videoID,
	)
	if err != nil {
		return nil, fmt.Errorf("store.ListTags: %w", err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("store.ListTags: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.ListTags: %w", err)
	}

	return tags, nil
}

// AddTag attaches a tag to a video. Adding the same name twice is a no-op;
// created reports whether a new row was written.
func AddTag(ctx context.Context, q Querier, videoID int64, name string, now time.Time) (bool, error) {
	if _, err := q.ExecContext(ctx,
		"insert into tags (created_at, video_id, name) values (?, ?, ?)",
		now, videoID, name,
	); err != nil {
		if IsConstraintViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("store.AddTag: %w", err)
	}

	return true, nil
}

func DeleteTag(ctx context.Context, q Querier, videoID int64, name string) (int64, error) {
	res, err := q.ExecContext(ctx,
		"delete from tags where video_id = ? and name = ?",
		videoID, name,
	)
	if err != nil {
		return 0, fmt.Errorf("store.DeleteTag: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store.DeleteTag: %w", err)
	}

	return n, nil
}
