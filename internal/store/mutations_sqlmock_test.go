package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests pin the exact shape of the conflict-update clauses: the update
// list must contain only the touched columns, which a black-box integration
// test cannot observe directly. The expectations anchor on the end of the
// statement so an extra column would fail the match.

func TestSetMovieFlagsStatementShape(t *testing.T) {
	for _, e := range []struct {
		name    string
		changes MovieFlagChanges
		wantSet string
	}{
		{
			name:    "only watched",
			changes: MovieFlagChanges{Watched: boolPtr(true)},
			wantSet: `do update set updated_at = excluded\.updated_at, is_watched = excluded\.is_watched$`,
		},
		{
			name:    "only starred",
			changes: MovieFlagChanges{Starred: boolPtr(false)},
			wantSet: `do update set updated_at = excluded\.updated_at, is_starred = excluded\.is_starred$`,
		},
		{
			name:    "archived and watched",
			changes: MovieFlagChanges{Archived: boolPtr(true), Watched: boolPtr(true)},
			wantSet: `do update set updated_at = excluded\.updated_at, is_archived = excluded\.is_archived, is_watched = excluded\.is_watched$`,
		},
	} {
		t.Run(e.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec(e.wantSet).WillReturnResult(sqlmock.NewResult(0, 1))

			n, err := SetMovieFlags(context.Background(), db, 1, e.changes, testTime)
			require.NoError(t, err)

			assert.Equal(t, int64(1), n)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSetShowFlagsStatementShape(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`do update set updated_at = excluded\.updated_at, is_started = excluded\.is_started$`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err = SetShowFlags(context.Background(), db, 1, ShowFlagChanges{Started: boolPtr(true)}, testTime)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetVideoStateStatementShape(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`select id, \?, \? from videos where id = \?`).
		WithArgs("inbox", testTime, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := SetVideoState(context.Background(), db, 42, "inbox", testTime)
	require.NoError(t, err)

	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
