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

func scanChannelList(rows *sql.Rows) (models.ChannelList, error) {
	var l models.ChannelList

	if err := rows.Scan(
		&l.ID,
		&sqltypes.TimeScanner{Value: &l.CreatedAt},
		&l.Name,
		&l.Color,
		&l.ItemCount,
	); err != nil {
		return l, err
	}

	return l, nil
}

func ListChannelLists(ctx context.Context, q Querier) ([]models.ChannelList, error) {
	rows, err := q.QueryContext(ctx,
		`select l.id, l.created_at, l.name, l.color, coalesce(ic.item_count, 0)
		from channel_lists l
		left join (select list_id, count(*) as item_count from channel_list_items group by list_id) ic on ic.list_id = l.id
		order by l.name asc`,
	)
	if err != nil {
		return nil, fmt.Errorf("store.ListChannelLists: %w", err)
	}
	defer rows.Close()

	lists := []models.ChannelList{}
	for rows.Next() {
		l, err := scanChannelList(rows)
		if err != nil {
			return nil, fmt.Errorf("store.ListChannelLists: %w", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.ListChannelLists: %w", err)
	}

	return lists, nil
}

func GetChannelList(ctx context.Context, q Querier, id int64) (*models.ChannelList, error) {
	rows, err := q.QueryContext(ctx,
		`select l.id, l.created_at, l.name, l.color, coalesce(ic.item_count, 0)
		from channel_lists l
		left join (select list_id, count(*) as item_count from channel_list_items group by list_id) ic on ic.list_id = l.id
		where l.id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("store.GetChannelList: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("store.GetChannelList: %w", err)
		}
		return nil, sql.ErrNoRows
	}

	l, err := scanChannelList(rows)
	if err != nil {
		return nil, fmt.Errorf("store.GetChannelList: %w", err)
	}

	return &l, nil
}

func CreateChannelList(ctx context.Context, q Querier, name, color string, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx,
		"insert into channel_lists (created_at, name, color) values (?, ?, ?)",
		now, name, color,
	)
	if err != nil {
		return 0, fmt.Errorf("store.CreateChannelList: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store.CreateChannelList: %w", err)
	}

	return id, nil
}

func UpdateChannelList(ctx context.Context, q Querier, id int64, name, color string) (int64, error) {
	res, err := q.ExecContext(ctx,
		"update channel_lists set name = ?, color = ? where id = ?",
		name, color, id,
	)
	if err != nil {
		return 0, fmt.Errorf("store.UpdateChannelList: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store.UpdateChannelList: %w", err)
	}

	return n, nil
}

// DeleteChannelList removes the list; memberships go with it via the foreign
// key cascade.
func DeleteChannelList(ctx context.Context, q Querier, id int64) (int64, error) {
	res, err := q.ExecContext(ctx, "delete from channel_lists where id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("store.DeleteChannelList: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store.DeleteChannelList: %w", err)
	}

	return n, nil
}

// AddChannelToList appends the channel at the end of the list. Adding a
// channel that is already a member reports added=false and changes nothing.
func AddChannelToList(ctx context.Context, db *sql.DB, listID int64, channelExternalID string, now time.Time) (bool, error) {
	var added bool

	if err := usingTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		added, err = channelListMembers.add(ctx, tx, listID, channelExternalID, now)
		return err
	}); err != nil {
		return false, fmt.Errorf("store.AddChannelToList: %w", err)
	}

	return added, nil
}

// AddChannelsToList appends each channel in order, skipping existing members,
// and reports how many were inserted.
func AddChannelsToList(ctx context.Context, db *sql.DB, listID int64, channelExternalIDs []string, now time.Time) (int64, error) {
	members := make([]interface{}, len(channelExternalIDs))
	for i, id := range channelExternalIDs {
		members[i] = id
	}

	var added int64

	if err := usingTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		added, err = channelListMembers.bulkAdd(ctx, tx, listID, members, now)
		return err
	}); err != nil {
		return added, fmt.Errorf("store.AddChannelsToList: %w", err)
	}

	return added, nil
}

func RemoveChannelFromList(ctx context.Context, q Querier, listID int64, channelExternalID string) (int64, error) {
	n, err := channelListMembers.remove(ctx, q, listID, channelExternalID)
	if err != nil {
		return 0, fmt.Errorf("store.RemoveChannelFromList: %w", err)
	}

	return n, nil
}

// ReorderChannelList replaces the list's membership with the given channels
// in the given order, atomically.
func ReorderChannelList(ctx context.Context, db *sql.DB, listID int64, channelExternalIDs []string, now time.Time) error {
	members := make([]interface{}, len(channelExternalIDs))
	for i, id := range channelExternalIDs {
		members[i] = id
	}

	if err := channelListMembers.reorder(ctx, db, listID, members, now); err != nil {
		return fmt.Errorf("store.ReorderChannelList: %w", err)
	}

	return nil
}

// ListChannelListVideos pages through the videos of a list's member channels.
// The membership is resolved first; an empty list short-circuits to an empty
// page rather than issuing an unfiltered query.
func ListChannelListVideos(ctx context.Context, db *sql.DB, listID int64, f VideoFilters, sort Sort, page Pagination) ([]models.Video, int64, error) {
	memberIDs, err := channelListMembers.memberStrings(ctx, db, listID)
	if err != nil {
		return nil, 0, fmt.Errorf("store.ListChannelListVideos: %w", err)
	}

	if len(memberIDs) == 0 {
		return []models.Video{}, 0, nil
	}

	f.ChannelExternalIDs = memberIDs

	videos, total, err := ListVideos(ctx, db, f, sort, page)
	if err != nil {
		return nil, 0, fmt.Errorf("store.ListChannelListVideos: %w", err)
	}

	return videos, total, nil
}

// ListChannelListChannels returns the list's member channels in position
// order with their denormalized fields.
func ListChannelListChannels(ctx context.Context, q Querier, listID int64) ([]models.Channel, error) {
	query := sqlq.Select("channels c", channelColumns).
		Join("join channel_list_items cli on cli.channel_external_id = c.external_id").
		Join("left join (select channel_external_id, count(*) as video_count from videos group by channel_external_id) vc on vc.channel_external_id = c.external_id").
		Where(sqlq.Equals("cli.list_id", listID)).
		OrderBy("order by cli.position asc")

	stmt, params := query.SQL()

	rows, err := q.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("store.ListChannelListChannels: %w", err)
	}
	defer rows.Close()

	channels := []models.Channel{}
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("store.ListChannelListChannels: %w", err)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.ListChannelListChannels: %w", err)
	}

	return channels, nil
}
