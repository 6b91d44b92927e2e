package ytdirect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jermspeaks/slowtube/internal/ctxhttpclient"
)

const watchPage = `<!doctype html>
<html><head><title>watch</title></head><body>
<script>var ytInitialPlayerResponse = {
	"videoDetails": {"videoId": "dQw4w9WgXcQ", "channelId": "UC-lHJZR3Gqxm24_Vd_AJ5Yw", "lengthSeconds": "212"},
	"microformat": {"playerMicroformatRenderer": {
		"title": {"simpleText": "An Example Video"},
		"description": {"simpleText": "A description."},
		"publishDate": "2009-10-25",
		"thumbnail": {"thumbnails": [{"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg"}]}
	}}
};</script>
</body></html>`

const channelPage = `<!doctype html>
<html><head>
<meta itemprop="channelId" content="UC-lHJZR3Gqxm24_Vd_AJ5Yw">
<meta property="og:title" content="An Example Channel">
<meta property="og:image" content="https://yt3.ggpht.com/example.jpg">
</head><body></body></html>`

// rewriteTransport sends every request to the test server regardless of the
// host the client asked for.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host

	return http.DefaultTransport.RoundTrip(r)
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/watch" && r.URL.Query().Get("v") == "dQw4w9WgXcQ":
			fmt.Fprint(rw, watchPage)
		case r.URL.Path == "/channel/UC-lHJZR3Gqxm24_Vd_AJ5Yw":
			fmt.Fprint(rw, channelPage)
		default:
			http.NotFound(rw, r)
		}
	}))
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	return ctxhttpclient.WithHTTPClient(context.Background(), &http.Client{
		Transport: rewriteTransport{target: target},
	})
}

func TestGetVideo(t *testing.T) {
	a := assert.New(t)

	ctx := testContext(t)

	v, err := GetVideo(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)

	a.Equal("dQw4w9WgXcQ", v.ID)
	a.Equal("UC-lHJZR3Gqxm24_Vd_AJ5Yw", v.ChannelID)
	a.Equal("An Example Video", v.Title)
	a.Equal("A description.", v.Description)
	a.Equal("2009-10-25", v.PublishDate)
	a.Equal("https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", v.ThumbnailURL)
	if a.NotNil(v.LengthSeconds) {
		a.Equal(int64(212), *v.LengthSeconds)
	}
}

func TestGetVideoMissingData(t *testing.T) {
	a := assert.New(t)

	ctx := testContext(t)

	v, err := GetVideo(ctx, "missing")
	a.Nil(v)
	if a.Error(err) {
		a.Contains(err.Error(), "status code: 404")
	}
}

func TestGetChannel(t *testing.T) {
	a := assert.New(t)

	ctx := testContext(t)

	ch, err := GetChannel(ctx, "UC-lHJZR3Gqxm24_Vd_AJ5Yw")
	require.NoError(t, err)

	a.Equal("UC-lHJZR3Gqxm24_Vd_AJ5Yw", ch.ID)
	a.Equal("An Example Channel", ch.Title)
	a.Equal("https://yt3.ggpht.com/example.jpg", ch.ThumbnailURL)
}
