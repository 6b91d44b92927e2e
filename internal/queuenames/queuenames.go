package queuenames

const (
	ChannelRefreshMetadata = "channel_refresh_metadata"
	VideoFetchMetadata     = "video_fetch_metadata"
	ShowRefreshEpisodes    = "show_refresh_episodes"
	MovieFetchMetadata     = "movie_fetch_metadata"
)

var Priority = []string{
	VideoFetchMetadata,
	MovieFetchMetadata,
	ShowRefreshEpisodes,
	ChannelRefreshMetadata,
}
