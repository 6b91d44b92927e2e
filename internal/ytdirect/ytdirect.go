// Package ytdirect scrapes video and channel metadata straight off youtube
// watch and channel pages, without an API key. The pages embed their data as
// javascript globals holding one big JSON document.
package ytdirect

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jermspeaks/slowtube/internal/ctxhttpclient"
)

// ErrNotFound means the page is gone, not that the fetch broke.
var ErrNotFound = fmt.Errorf("ytdirect: not found")

func getDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ytdirect.getDocument: %w", err)
	}

	res, err := ctxhttpclient.GetHTTPClient(ctx).Do(req)
	if err != nil {
		return nil, fmt.Errorf("ytdirect.getDocument: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("ytdirect.getDocument: status code: %d: %w", res.StatusCode, ErrNotFound)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ytdirect.getDocument: status code: %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("ytdirect.getDocument: %w", err)
	}

	return doc, nil
}

// findEmbeddedJSON locates a script of the form "var <name> = {...};" and
// parses the JSON document out of it.
func findEmbeddedJSON(doc *goquery.Document, name string) (*gabs.Container, error) {
	prefix := "var " + name + " ="

	for _, node := range doc.Find("script").Nodes {
		if node.FirstChild == nil || node.FirstChild.Type != html.TextNode {
			continue
		}

		jsContent := node.FirstChild.Data

		if !strings.HasPrefix(jsContent, prefix) {
			continue
		}

		jsContent = strings.TrimPrefix(jsContent, prefix)
		jsContent = strings.TrimSuffix(strings.TrimSpace(jsContent), ";")

		j, err := gabs.ParseJSON([]byte(jsContent))
		if err != nil {
			return nil, fmt.Errorf("ytdirect.findEmbeddedJSON: %w", err)
		}

		return j, nil
	}

	return nil, fmt.Errorf("ytdirect.findEmbeddedJSON: could not find %s in page", name)
}

func stringAt(j *gabs.Container, path string) string {
	if !j.ExistsP(path) {
		return ""
	}

	s, _ := j.Path(path).Data().(string)

	return s
}

type Channel struct {
	ID           string
	Title        string
	ThumbnailURL string
}

func GetChannel(ctx context.Context, id string) (*Channel, error) {
	doc, err := getDocument(ctx, "https://www.youtube.com/channel/"+id)
	if err != nil {
		return nil, fmt.Errorf("ytdirect.GetChannel: %w", err)
	}

	ch := &Channel{
		ID:           doc.Find("meta[itemprop=channelId]").AttrOr("content", ""),
		Title:        doc.Find("meta[property='og:title']").AttrOr("content", ""),
		ThumbnailURL: doc.Find("meta[property='og:image']").AttrOr("content", ""),
	}

	if ch.ID == "" {
		return nil, fmt.Errorf("ytdirect.GetChannel: could not find suitable data in page")
	}

	return ch, nil
}

type Video struct {
	ID            string
	ChannelID     string
	Title         string
	Description   string
	PublishDate   string
	LengthSeconds *int64
	ThumbnailURL  string
}

func GetVideo(ctx context.Context, id string) (*Video, error) {
	doc, err := getDocument(ctx, "https://www.youtube.com/watch?v="+id)
	if err != nil {
		return nil, fmt.Errorf("ytdirect.GetVideo: %w", err)
	}

	j, err := findEmbeddedJSON(doc, "ytInitialPlayerResponse")
	if err != nil {
		return nil, fmt.Errorf("ytdirect.GetVideo: %w", err)
	}

	const (
		videoIDPath          = "videoDetails.videoId"
		videoChannelIDPath   = "videoDetails.channelId"
		videoLengthPath      = "videoDetails.lengthSeconds"
		videoTitlePath       = "microformat.playerMicroformatRenderer.title.simpleText"
		videoDescriptionPath = "microformat.playerMicroformatRenderer.description.simpleText"
		videoPublishDatePath = "microformat.playerMicroformatRenderer.publishDate"
		videoThumbnailPath   = "microformat.playerMicroformatRenderer.thumbnail.thumbnails.0.url"
	)

	v := &Video{
		ID:           stringAt(j, videoIDPath),
		ChannelID:    stringAt(j, videoChannelIDPath),
		Title:        stringAt(j, videoTitlePath),
		Description:  stringAt(j, videoDescriptionPath),
		PublishDate:  stringAt(j, videoPublishDatePath),
		ThumbnailURL: stringAt(j, videoThumbnailPath),
	}

	// lengthSeconds is a JSON string, not a number.
	if s := stringAt(j, videoLengthPath); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			v.LengthSeconds = &n
		}
	}

	if v.ID == "" {
		return nil, fmt.Errorf("ytdirect.GetVideo: could not find suitable data in page")
	}

	return v, nil
}
