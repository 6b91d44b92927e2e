package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// junctionTable describes one list-membership table so the append, bulk-add,
// remove, and reorder operations can be written once. Members sit at dense
// 0-based positions; new members always go to the end.
type junctionTable struct {
	table     string
	listCol   string
	memberCol string
}

var channelListMembers = junctionTable{
	table:     "channel_list_items",
	listCol:   "list_id",
	memberCol: "channel_external_id",
}

var moviePlaylistMembers = junctionTable{
	table:     "movie_playlist_items",
	listCol:   "playlist_id",
	memberCol: "movie_id",
}

func (j junctionTable) nextPosition(ctx context.Context, q Querier, listID int64) (int64, error) {
	var position int64

	err := q.QueryRowContext(ctx,
		fmt.Sprintf("select coalesce(max(position) + 1, 0) from %s where %s = ?", j.table, j.listCol),
		listID,
	).Scan(&position)
	if err != nil {
		return 0, err
	}

	return position, nil
}

// add appends one member at the end of the list. A member already present is
// left where it is and reported as not added.
func (j junctionTable) add(ctx context.Context, q Querier, listID int64, member interface{}, now time.Time) (bool, error) {
	position, err := j.nextPosition(ctx, q, listID)
	if err != nil {
		return false, err
	}

	if _, err := q.ExecContext(ctx,
		fmt.Sprintf("insert into %s (%s, %s, position, added_at) values (?, ?, ?, ?)", j.table, j.listCol, j.memberCol),
		listID, member, position, now,
	); err != nil {
		if IsConstraintViolation(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// bulkAdd appends each member in order, skipping the ones already present,
// and reports how many were actually inserted.
func (j junctionTable) bulkAdd(ctx context.Context, q Querier, listID int64, members []interface{}, now time.Time) (int64, error) {
	var added int64

	for _, member := range members {
		ok, err := j.add(ctx, q, listID, member, now)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}

	return added, nil
}

func (j junctionTable) remove(ctx context.Context, q Querier, listID int64, member interface{}) (int64, error) {
	res, err := q.ExecContext(ctx,
		fmt.Sprintf("delete from %s where %s = ? and %s = ?", j.table, j.listCol, j.memberCol),
		listID, member,
	)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// reorder replaces the entire membership of one list with the given members
// in the given order, positions assigned from the slice index. Runs inside a
// transaction: a failed reorder leaves the previous order intact.
func (j junctionTable) reorder(ctx context.Context, db *sql.DB, listID int64, members []interface{}, now time.Time) error {
	return usingTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("delete from %s where %s = ?", j.table, j.listCol),
			listID,
		); err != nil {
			return err
		}

		for i, member := range members {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf("insert into %s (%s, %s, position, added_at) values (?, ?, ?, ?)", j.table, j.listCol, j.memberCol),
				listID, member, int64(i), now,
			); err != nil {
				return err
			}
		}

		return nil
	})
}

// memberStrings returns the members of one list ordered by position.
func (j junctionTable) memberStrings(ctx context.Context, q Querier, listID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf("select %s from %s where %s = ? order by position", j.memberCol, j.table, j.listCol),
		listID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

func (j junctionTable) memberInt64s(ctx context.Context, q Querier, listID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf("select %s from %s where %s = ? order by position", j.memberCol, j.table, j.listCol),
		listID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []int64{}
	for rows.Next() {
		var member int64
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	return members, rows.Err()
}
