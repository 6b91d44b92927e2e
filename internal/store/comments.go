package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jermspeaks/slowtube/internal/sqltypes"
	"github.com/jermspeaks/slowtube/models"
)

func scanComment(rows *sql.Rows) (models.Comment, error) {
	var c models.Comment

	if err := rows.Scan(
		&c.ID,
		&sqltypes.TimeScanner{Value: &c.CreatedAt},
		&sqltypes.TimeScanner{Value: &c.UpdatedAt},
		&c.VideoID,
		&c.Content,
	); err != nil {
		return c, err
	}

	return c, nil
}

func ListComments(ctx context.Context, q Querier, videoID int64) ([]models.Comment, error) {
	rows, err := q.QueryContext(ctx,
		"select id, created_at, updated_at, video_id, content from comments where video_id = ? order by created_at asc",
		videoID,
	)
	if err != nil {
		return nil, fmt.Errorf("store.ListComments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("store.ListComments: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.ListComments: %w", err)
	}

	return comments, nil
}

func AddComment(ctx context.Context, q Querier, videoID int64, content string, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx,
		"insert into comments (created_at, updated_at, video_id, content) values (?, ?, ?, ?)",
		now, now, videoID, content,
	)
	if err != nil {
		return 0, fmt.Errorf("store.AddComment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store.AddComment: %w", err)
	}

	return id, nil
}

func UpdateComment(ctx context.Context, q Querier, id int64, content string, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx,
		"update comments set content = ?, updated_at = ? where id = ?",
		content, now, id,
	)
	if err != nil {
		return 0, fmt.Errorf("store.UpdateComment: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store.UpdateComment: %w", err)
	}

	return n, nil
}

func DeleteComment(ctx context.Context, q Querier, id int64) (int64, error) {
	res, err := q.ExecContext(ctx, "delete from comments where id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("store.DeleteComment: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store.DeleteComment: %w", err)
	}

	return n, nil
}
