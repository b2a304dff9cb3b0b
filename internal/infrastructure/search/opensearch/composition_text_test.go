package opensearch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	opensearchgo "github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/pkg/hash"
)

func newTestCompositionTextIndex(serverURL string) *CompositionTextIndex {
	osCfg := opensearchgo.Config{Addresses: []string{serverURL}}
	osClient, err := opensearchgo.NewClient(osCfg)
	if err != nil {
		panic(err)
	}

	c := &Client{
		client: osClient,
		config: ClientConfig{Addresses: []string{serverURL}},
		logger: newMockLogger(),
	}
	c.healthy.Store(true)

	idx := NewIndexer(c, IndexerConfig{}, newMockLogger())
	srch := NewSearcher(c, SearcherConfig{}, newMockLogger())
	return NewCompositionTextIndex(idx, srch, "composition-text")
}

func TestCompositionTextIndex_EnsureIndex_CreatesWhenMissing(t *testing.T) {
	created := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "HEAD" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method == "PUT" {
			created = true
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"acknowledged": true}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := newTestCompositionTextIndex(server.URL)
	require.NoError(t, c.EnsureIndex(context.Background()))
	assert.True(t, created)
}

func TestCompositionTextIndex_EnsureIndex_NoopWhenPresent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "HEAD" {
			w.WriteHeader(http.StatusOK)
			return
		}
		t.Fatalf("unexpected request when index already exists: %s %s", r.Method, r.URL.Path)
	}))
	defer server.Close()

	c := newTestCompositionTextIndex(server.URL)
	require.NoError(t, c.EnsureIndex(context.Background()))
}

func TestCompositionTextIndex_Put(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "PUT" && strings.Contains(r.URL.Path, "/_doc/") {
			b, _ := io.ReadAll(r.Body)
			body = string(b)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"_id": "x", "result": "created"}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := newTestCompositionTextIndex(server.URL)
	id := hash.Sum([]byte("composition-1"))
	require.NoError(t, c.Put(context.Background(), id, "the quick fox"))
	assert.Contains(t, body, "the quick fox")
	assert.Contains(t, body, id.String())
}

func TestCompositionTextIndex_LookupText_Found(t *testing.T) {
	id := hash.Sum([]byte("composition-2"))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"took": 1,
			"hits": {
				"total": {"value": 1},
				"max_score": 1.0,
				"hits": [
					{"_id": "` + id.String() + `", "_score": 1.0, "_source": {"composition_id": "` + id.String() + `", "text": "the quick fox"}}
				]
			}
		}`))
	}))
	defer server.Close()

	c := newTestCompositionTextIndex(server.URL)
	text, err := c.LookupText(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "the quick fox", text)
}

func TestCompositionTextIndex_LookupText_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"took": 1, "hits": {"total": {"value": 0}, "hits": []}}`))
	}))
	defer server.Close()

	c := newTestCompositionTextIndex(server.URL)
	_, err := c.LookupText(context.Background(), substrate.ID{})
	assert.Error(t, err)
}

func TestCompositionTextIndex_FindComposition_Found(t *testing.T) {
	id := hash.Sum([]byte("composition-3"))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"took": 1,
			"hits": {
				"total": {"value": 1},
				"max_score": 1.0,
				"hits": [
					{"_id": "` + id.String() + `", "_score": 1.0, "_source": {"composition_id": "` + id.String() + `", "text": "brown fox jumps"}}
				]
			}
		}`))
	}))
	defer server.Close()

	c := newTestCompositionTextIndex(server.URL)
	found, ok, err := c.FindComposition(context.Background(), "brown fox jumps")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, found)
}

func TestCompositionTextIndex_FindComposition_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"took": 1, "hits": {"total": {"value": 0}, "hits": []}}`))
	}))
	defer server.Close()

	c := newTestCompositionTextIndex(server.URL)
	_, ok, err := c.FindComposition(context.Background(), "no such text")
	require.NoError(t, err)
	assert.False(t, ok)
}
