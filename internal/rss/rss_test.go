package rss

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/headlines/internal/news"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Wire</title>
    <link>https://wire.example.com</link>
    <description>Test feed</description>
    <item>
      <title>Senate passes budget bill</title>
      <link>https://wire.example.com/budget</link>
      <description><![CDATA[<p>The <b>Senate</b> voted late on Tuesday.</p><img src="https://img.example.com/senate.jpg"/>]]></description>
      <pubDate>Sat, 01 Mar 2025 10:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Rover finds water ice</title>
      <link>https://wire.example.com/rover</link>
      <description>Plain text summary</description>
      <enclosure url="https://img.example.com/rover.jpg" type="image/jpeg" length="1000"/>
      <pubDate>Sat, 01 Mar 2025 09:00:00 +0000</pubDate>
    </item>
    <item>
      <title>   </title>
      <link>https://wire.example.com/empty</link>
    </item>
  </channel>
</rss>`

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, sampleFeed)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), quiet())
	articles, err := f.Fetch(context.Background(), []Feed{
		{Name: "Reuters", URL: srv.URL + "/feed"},
		{Name: "Broken", URL: srv.URL + "/broken"},
	})
	require.NoError(t, err)
	require.Len(t, articles, 2)

	first := articles[0]
	assert.Equal(t, "Senate passes budget bill", first.Title)
	assert.Equal(t, "The Senate voted late on Tuesday.", first.Description)
	assert.Equal(t, "https://img.example.com/senate.jpg", first.ImageURL)
	assert.Equal(t, "2025-03-01T10:00:00Z", first.PublishedAt)
	assert.Equal(t, "Reuters", first.SourceName())

	second := articles[1]
	assert.Equal(t, "Plain text summary", second.Description)
	assert.Equal(t, "https://img.example.com/rover.jpg", second.ImageURL)
}

func TestFetchAllFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.Client(), quiet()).Fetch(context.Background(), []Feed{{Name: "x", URL: srv.URL}})
	assert.Error(t, err)
}

func TestFetchNoFeeds(t *testing.T) {
	articles, err := NewFetcher(nil, quiet()).Fetch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, articles)
}

func TestItemToArticleFeedImage(t *testing.T) {
	item := &gofeed.Item{
		Title:   " Headline ",
		Content: "<div>Body <img src='inline.jpg'></div>",
		Image:   &gofeed.Image{URL: "https://img.example.com/feed.jpg"},
	}
	a := ItemToArticle(item, "Wire")
	assert.Equal(t, "Headline", a.Title)
	assert.Equal(t, "Body", a.Description)
	assert.Equal(t, "https://img.example.com/feed.jpg", a.ImageURL)
}

func TestLoadFeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`feeds:
  - name: BBC News
    url: https://feeds.bbci.co.uk/news/rss.xml
  - name: The Verge
    url: https://www.theverge.com/rss/index.xml
`), 0o644))

	feeds, err := LoadFeeds(path)
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, Feed{Name: "BBC News", URL: "https://feeds.bbci.co.uk/news/rss.xml"}, feeds[0])

	_, err = LoadFeeds(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFeedsFromProfiles(t *testing.T) {
	feeds := FeedsFromProfiles([]news.SourceProfile{
		{Name: "BBC News", FeedURL: "https://feeds.bbci.co.uk/news/rss.xml"},
		{Name: "Reuters"},
	})
	require.Len(t, feeds, 1)
	assert.Equal(t, "BBC News", feeds[0].Name)
}
