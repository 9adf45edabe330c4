package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 11, 3, 0, 0, 0, time.UTC) // 12:00 KST

func TestWindowStart(t *testing.T) {
	got := windowStart(fixedNow, seoul)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, seoul), got)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), windowStart(fixedNow, time.UTC))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, `삼성 "배터리" & 소재`, stripHTML(`<b>삼성</b> &quot;배터리&quot; &amp;  소재`))
	assert.Equal(t, "plain text", stripHTML(" plain\n text "))
	assert.Equal(t, "example.com", hostOf("https://www.Example.com/a?b=1"))
}

func TestNaverClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "id", r.Header.Get("X-Naver-Client-Id"))
		assert.Equal(t, "secret", r.Header.Get("X-Naver-Client-Secret"))
		assert.Equal(t, "수소", r.URL.Query().Get("query"))
		assert.Equal(t, "date", r.URL.Query().Get("sort"))
		fmt.Fprint(w, `{"items": [
			{"title": "<b>수소</b> 충전소", "originallink": "https://www.news.co.kr/a/1", "link": "https://n.news.naver.com/1",
			 "description": "정부 &quot;확대&quot;", "pubDate": "Wed, 11 Jun 2025 09:30:00 +0900"},
			{"title": "오래된 기사", "link": "https://n.news.naver.com/2", "pubDate": "Sun, 08 Jun 2025 09:30:00 +0900"},
			{"title": "", "link": "https://n.news.naver.com/3"}
		]}`)
	}))
	defer srv.Close()

	c := NewNaverClient("id", "secret", time.Second)
	c.Endpoint = srv.URL
	c.now = func() time.Time { return fixedNow }

	items := c.FetchDomestic(context.Background(), "수소")
	require.Len(t, items, 1)
	assert.Equal(t, "수소 충전소", items[0].Title)
	assert.Equal(t, `정부 "확대"`, items[0].Description)
	assert.Equal(t, "news.co.kr", items[0].Source)
	assert.Equal(t, "https://www.news.co.kr/a/1", items[0].SourceURL)
	assert.False(t, items[0].IsForeign)
}

func TestNaverClient_ErrorStatusYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewNaverClient("id", "secret", time.Second)
	c.Endpoint = srv.URL
	assert.Empty(t, c.FetchDomestic(context.Background(), "q"))
}

func TestNewsAPIClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/everything", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "hydrogen", q.Get("q"))
		assert.Equal(t, "2025-06-10", q.Get("from"))
		assert.Equal(t, "publishedAt", q.Get("sortBy"))
		assert.Equal(t, "key", q.Get("apiKey"))
		fmt.Fprint(w, `{"status": "ok", "articles": [
			{"source": {"name": "Reuters"}, "author": "A. Writer", "title": "Hydrogen hub opens", "content": "Body text",
			 "url": "https://reuters.com/x", "urlToImage": "https://img/x.png", "publishedAt": "2025-06-10T18:00:00Z"},
			{"source": {"name": ""}, "title": "Old", "url": "https://x/old", "publishedAt": "2025-06-01T00:00:00Z"}
		]}`)
	}))
	defer srv.Close()

	c := NewNewsAPIClient(time.Second)
	c.Endpoint = srv.URL + "/"
	c.now = func() time.Time { return fixedNow }

	items := c.FetchForeign(context.Background(), "hydrogen", "key")
	require.Len(t, items, 1)
	assert.Equal(t, "Hydrogen hub opens", items[0].Title)
	assert.Equal(t, "Body text", items[0].Description)
	assert.Equal(t, "Reuters", items[0].Source)
	assert.True(t, items[0].IsForeign)
	assert.Equal(t, "https://img/x.png", items[0].ImageURL)
	assert.Equal(t, "A. Writer", items[0].Author)
}

func TestNewsAPIClient_NotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"status": "error", "message": "rate limited"}`)
	}))
	defer srv.Close()

	c := NewNewsAPIClient(time.Second)
	c.Endpoint = srv.URL + "/"
	assert.Empty(t, c.FetchForeign(context.Background(), "q", "k"))
}

const rssBody = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Energy Daily</title>
<item><title>수소 경제 활성화</title><link>https://energy.kr/1</link>
<description>&lt;p&gt;수소 정책&lt;/p&gt;</description><pubDate>Tue, 10 Jun 2025 08:00:00 +0900</pubDate></item>
<item><title>태양광 보조금</title><link>https://energy.kr/2</link>
<description>무관한 기사</description><pubDate>Tue, 10 Jun 2025 09:00:00 +0900</pubDate></item>
<item><title>수소 지난주 소식</title><link>https://energy.kr/3</link>
<pubDate>Mon, 02 Jun 2025 09:00:00 +0900</pubDate></item>
</channel></rss>`

func TestFeedSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssBody)
	}))
	defer srv.Close()

	s := NewFeedSource([]string{srv.URL, srv.URL + "/missing-but-same-body", "http://127.0.0.1:1/unreachable"}, time.Second)
	s.now = func() time.Time { return fixedNow }

	items := s.FetchDomestic(context.Background(), "수소")
	require.Len(t, items, 2)
	assert.Equal(t, "수소 경제 활성화", items[0].Title)
	assert.Equal(t, "수소 정책", items[0].Description)
	assert.Equal(t, "Energy Daily", items[0].Source)
}

func TestLoadFeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feeds:\n  - https://a/rss\n  - https://b/rss\n"), 0o644))

	feeds, err := LoadFeeds(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a/rss", "https://b/rss"}, feeds)
}
