package models

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`create table if not exists channels (
		id integer primary key autoincrement,
		created_at timestamp not null,
		external_id text not null unique,
		title text not null default '',
		is_subscribed integer not null default 0,
		subscriber_count integer,
		thumbnail_url text,
		metadata_updated_at timestamp
	)`,
	`create table if not exists videos (
		id integer primary key autoincrement,
		created_at timestamp not null,
		youtube_id text not null unique,
		channel_external_id text not null default '',
		title text not null default '',
		description text not null default '',
		thumbnail_path text,
		duration_seconds integer,
		published_at timestamp,
		fetch_status text not null default 'pending',
		metadata_updated_at timestamp
	)`,
	`create index if not exists videos_channel_external_id on videos (channel_external_id)`,
	`create table if not exists video_states (
		video_id integer primary key references videos (id) on delete cascade,
		state text not null,
		updated_at timestamp not null
	)`,
	`create table if not exists tv_shows (
		id integer primary key autoincrement,
		created_at timestamp not null,
		tmdb_id integer not null unique,
		title text not null default '',
		description text not null default '',
		poster_path text,
		first_air_date timestamp,
		fetch_status text not null default 'pending',
		metadata_updated_at timestamp
	)`,
	`create table if not exists tv_show_states (
		tv_show_id integer primary key references tv_shows (id) on delete cascade,
		is_archived integer not null default 0,
		is_started integer not null default 0,
		updated_at timestamp not null
	)`,
	`create table if not exists episodes (
		id integer primary key autoincrement,
		created_at timestamp not null,
		tv_show_id integer not null references tv_shows (id) on delete cascade,
		season_number integer not null,
		episode_number integer not null,
		title text not null default '',
		air_date timestamp,
		is_watched integer not null default 0,
		watched_at timestamp,
		unique (tv_show_id, season_number, episode_number)
	)`,
	`create table if not exists movies (
		id integer primary key autoincrement,
		created_at timestamp not null,
		tmdb_id integer not null unique,
		imdb_id text,
		title text not null default '',
		description text not null default '',
		poster_path text,
		runtime_minutes integer,
		release_date timestamp,
		fetch_status text not null default 'pending',
		metadata_updated_at timestamp
	)`,
	`create table if not exists movie_states (
		movie_id integer primary key references movies (id) on delete cascade,
		is_archived integer not null default 0,
		is_starred integer not null default 0,
		is_watched integer not null default 0,
		updated_at timestamp not null
	)`,
	`create table if not exists tags (
		id integer primary key autoincrement,
		created_at timestamp not null,
		video_id integer not null references videos (id) on delete cascade,
		name text not null,
		unique (video_id, name)
	)`,
	`create table if not exists comments (
		id integer primary key autoincrement,
		created_at timestamp not null,
		updated_at timestamp not null,
		video_id integer not null references videos (id) on delete cascade,
		content text not null
	)`,
	`create table if not exists channel_lists (
		id integer primary key autoincrement,
		created_at timestamp not null,
		name text not null,
		color text not null default ''
	)`,
	`create table if not exists channel_list_items (
		id integer primary key autoincrement,
		list_id integer not null references channel_lists (id) on delete cascade,
		channel_external_id text not null,
		position integer not null,
		added_at timestamp not null,
		unique (list_id, channel_external_id)
	)`,
	`create table if not exists movie_playlists (
		id integer primary key autoincrement,
		created_at timestamp not null,
		name text not null,
		color text not null default ''
	)`,
	`create table if not exists movie_playlist_items (
		id integer primary key autoincrement,
		playlist_id integer not null references movie_playlists (id) on delete cascade,
		movie_id integer not null references movies (id) on delete cascade,
		position integer not null,
		added_at timestamp not null,
		unique (playlist_id, movie_id)
	)`,
	`create table if not exists jobs (
		id integer primary key autoincrement,
		created_at timestamp not null,
		queue_name text not null,
		payload text not null default '',
		run_after timestamp not null,
		failure_delay integer not null default 0,
		attempts_remaining integer not null default 0,
		reserved_at timestamp,
		reserved_until timestamp,
		finished_at timestamp,
		error_messages text not null default '[]',
		output_messages text not null default '[]'
	)`,
	`create index if not exists jobs_queue_name_run_after on jobs (queue_name, run_after)`,
}

// Migrate brings the database up to the current schema. Statements are
// idempotent, so this is safe to run on every startup. Foreign key
// enforcement is per-connection in sqlite and has to come from the DSN
// (_foreign_keys=on), not from a pragma run here; a pragma would only reach
// whichever pooled connection happened to execute it.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("models.Migrate: statement %d failed: %w", i, err)
		}
	}

	return nil
}
