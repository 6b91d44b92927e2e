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

var ChannelSorts = sqlq.SortConfig{
	Default:      "title",
	DefaultOrder: sqlq.OrderAsc,
	Columns: map[string]sqlq.SortColumn{
		"title":           {Expr: "c.title"},
		"createdAt":       {Expr: "c.created_at"},
		"subscriberCount": {Expr: "c.subscriber_count", Nullable: true},
		"videoCount":      {Expr: "vc.video_count", Nullable: true},
	},
}

type ChannelFilters struct {
	Search         string
	SubscribedOnly bool
	// NotInAnyList keeps only channels that belong to no channel list,
	// expressed over the junction table rather than filtered after fetch so
	// it composes with pagination.
	NotInAnyList bool
}

const channelColumns = "c.id, c.created_at, c.external_id, c.title, c.is_subscribed, c.subscriber_count, c.thumbnail_url, c.metadata_updated_at, vc.video_count"

func channelQuery(f ChannelFilters, sort Sort, page Pagination) *sqlq.Query {
	q := sqlq.Select("channels c", channelColumns).
		Join("left join (select channel_external_id, count(*) as video_count from videos group by channel_external_id) vc on vc.channel_external_id = c.external_id")

	q.Where(sqlq.Search(f.Search, "c.title", "c.external_id"))

	if f.SubscribedOnly {
		q.Where(sqlq.Expr("c.is_subscribed = 1"))
	}
	if f.NotInAnyList {
		q.Where(sqlq.Expr("not exists (select 1 from channel_list_items cli where cli.channel_external_id = c.external_id)"))
	}

	q.OrderBy(ChannelSorts.OrderBy(sort.Key, sort.Order))
	q.Paginate(sqlq.Page(page.Page, page.Limit))

	return q
}

func scanChannel(rows *sql.Rows) (models.Channel, error) {
	var c models.Channel
	var isSubscribed sqltypes.BoolScanner
	var subscriberCount, videoCount sql.NullInt64
	var thumbnailURL sql.NullString

	isSubscribed.Value = &c.IsSubscribed

	if err := rows.Scan(
		&c.ID,
		&sqltypes.TimeScanner{Value: &c.CreatedAt},
		&c.ExternalID,
		&c.Title,
		&isSubscribed,
		&subscriberCount,
		&thumbnailURL,
		&sqltypes.TimePointerScanner{Value: &c.MetadataUpdatedAt},
		&videoCount,
	); err != nil {
		return c, err
	}

	c.SubscriberCount = nullInt64(subscriberCount)
	c.ThumbnailURL = nullString(thumbnailURL)
	c.VideoCount = nullInt64(videoCount)

	return c, nil
}

func ListChannels(ctx context.Context, db *sql.DB, f ChannelFilters, sort Sort, page Pagination) ([]models.Channel, int64, error) {
	query := channelQuery(f, sort, page)

	var channels []models.Channel
	var total int64

	if err := usingTx(ctx, db, func(tx *sql.Tx) error {
		stmt, params := query.SQL()

		rows, err := tx.QueryContext(ctx, stmt, params...)
		if err != nil {
			return err
		}
		defer rows.Close()

		channels = []models.Channel{}
		for rows.Next() {
			c, err := scanChannel(rows)
			if err != nil {
				return err
			}
			channels = append(channels, c)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		total, err = queryCount(ctx, tx, query)
		return err
	}); err != nil {
		return nil, 0, fmt.Errorf("store.ListChannels: %w", err)
	}

	return channels, total, nil
}

// SetChannelSubscription flips the subscription flag. Channels are addressed
// by external id everywhere. Zero rows affected means no such channel.
func SetChannelSubscription(ctx context.Context, q Querier, externalID string, subscribed bool, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx,
		"update channels set is_subscribed = ?, metadata_updated_at = ? where external_id = ?",
		subscribed, now, externalID,
	)
	if err != nil {
		return 0, fmt.Errorf("store.SetChannelSubscription: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store.SetChannelSubscription: %w", err)
	}

	return n, nil
}

type ChannelMetadata struct {
	ExternalID      string
	Title           string
	SubscriberCount *int64
	ThumbnailURL    *string
}

// UpsertChannelMetadata refreshes the denormalized channel fields, keyed on
// the external id. The subscription flag is user state and is preserved.
func UpsertChannelMetadata(ctx context.Context, q Querier, m ChannelMetadata, now time.Time) error {
	if _, err := q.ExecContext(ctx,
		`insert into channels (created_at, external_id, title, subscriber_count, thumbnail_url, metadata_updated_at)
		values (?, ?, ?, ?, ?, ?)
		on conflict (external_id) do update set
			title = excluded.title,
			subscriber_count = excluded.subscriber_count,
			thumbnail_url = excluded.thumbnail_url,
			metadata_updated_at = excluded.metadata_updated_at`,
		now, m.ExternalID, m.Title, m.SubscriberCount, m.ThumbnailURL, now,
	); err != nil {
		return fmt.Errorf("store.UpsertChannelMetadata: %w", err)
	}

	return nil
}
