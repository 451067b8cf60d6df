package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const resultsPage = `<html><body>
<div class="results">
  <div class="result results_links result--ad">
    <a class="result__a" href="https://ads.example.com">Sponsored</a>
  </div>
  <div class="result results_links">
    <h2><a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fen.wikipedia.org%2Fwiki%2FParis&amp;rut=abc">Paris - <b>Wikipedia</b></a></h2>
    <a class="result__snippet" href="#">Paris is the <b>capital</b> of France.</a>
  </div>
  <div class="result results_links">
    <a class="result__a" href="https://www.britannica.com/place/Paris">Paris | Britannica</a>
  </div>
  <div class="result results_links">
    <a class="result__a" href="https://example.org/third">Third</a>
    <a class="result__snippet">third body</a>
  </div>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(resultsPage))
	require.NoError(t, err)

	got := ParseResults(doc, 2)
	require.Len(t, got, 2)

	assert.Equal(t, "Paris - Wikipedia", got[0].Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Paris", got[0].Href)
	assert.Equal(t, "Paris is the capital of France.", got[0].Body)

	assert.Equal(t, "Paris | Britannica", got[1].Title)
	assert.Empty(t, got[1].Body)
}

func TestDuckDuckGo_Search(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("q")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(time.Second, WithEndpoint(srv.URL), WithRateLimit(0))
	got := d.Search(context.Background(), "capital of france", 3)

	assert.Equal(t, "capital of france", gotQuery)
	require.Len(t, got, 3)
	assert.Equal(t, "Third", got[2].Title)
}

func TestDuckDuckGo_FailureIsPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(time.Second, WithEndpoint(srv.URL), WithRateLimit(0))
	got := d.Search(context.Background(), "anything", 3)

	require.Len(t, got, 1)
	assert.Equal(t, "Search unavailable", got[0].Title)
	assert.Empty(t, got[0].Href)
	assert.True(t, strings.HasPrefix(got[0].Body, "Search failed: "))
	assert.Contains(t, got[0].Body, "503")
}
