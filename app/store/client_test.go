package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const fullPostResponse = `{
  "data": {
    "post": {
      "id": "cG9zdDoxMjM=",
      "excerpt": "<p>Hello <b>world</b></p> [shortcode]",
      "title": "Item One",
      "link": "https://cms.example.com/news/item-1/",
      "dateGmt": "2024-01-02T03:04:05",
      "modifiedGmt": "2024-01-03T03:04:05",
      "content": "<p>Body</p>",
      "acfgoogle_news_url": {"googleNewsUrl": "https://partner.example/news/item-1"},
      "author": {"node": {"name": "Jane Roe"}},
      "seo": {"opengraphTitle": "Item One | Example", "opengraphImage": {"sourceUrl": "https://cms.example.com/og.jpg"}},
      "featuredImage": {"node": {"sourceUrl": "https://cms.example.com/featured.jpg", "altText": "A picture"}}
    }
  }
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestClient_FetchArticle_DecodesAllFields(t *testing.T) {
	var gotRequest graphQLRequest
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %s", ct)
		}
		if ua := r.Header.Get("User-Agent"); ua != "Test Agent" {
			t.Errorf("Expected user agent 'Test Agent', got '%s'", ua)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		w.Write([]byte(fullPostResponse))
	})

	client := NewClient(server.URL+"/graphql/", server.Client(), "Test Agent", time.Second)
	article, err := client.FetchArticle(context.Background(), URIForPath("news/item-1"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if article == nil {
		t.Fatal("Expected article, got nil")
	}

	if gotRequest.Variables["id"] != "/news/item-1/" {
		t.Errorf("Expected id variable '/news/item-1/', got '%v'", gotRequest.Variables["id"])
	}
	if !strings.Contains(gotRequest.Query, "idType: URI") {
		t.Error("Expected query to look up the post by URI")
	}
	if !strings.Contains(gotRequest.Query, "featuredImage") {
		t.Error("Expected full-field query")
	}

	expected := Article{
		ID:                  "cG9zdDoxMjM=",
		Excerpt:             "<p>Hello <b>world</b></p> [shortcode]",
		Title:               "Item One",
		Link:                "https://cms.example.com/news/item-1/",
		DateGMT:             "2024-01-02T03:04:05",
		ModifiedGMT:         "2024-01-03T03:04:05",
		Content:             "<p>Body</p>",
		ExternalRedirectURL: "https://partner.example/news/item-1",
		AuthorName:          "Jane Roe",
		SEOTitle:            "Item One | Example",
		SEOImageURL:         "https://cms.example.com/og.jpg",
		FeaturedImageURL:    "https://cms.example.com/featured.jpg",
		FeaturedImageAlt:    "A picture",
	}
	if *article != expected {
		t.Errorf("Expected article %+v, got %+v", expected, *article)
	}
}

func TestClient_FetchArticle_NullNestedObjects(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"post":{"id":"1","excerpt":null,"title":"T","link":null,"dateGmt":null,"modifiedGmt":null,"content":null,"acfgoogle_news_url":null,"author":null,"seo":{"opengraphTitle":null,"opengraphImage":null},"featuredImage":null}}}`))
	})

	client := NewClient(server.URL, server.Client(), "", time.Second)
	article, err := client.FetchArticle(context.Background(), "/x/")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if article.Title != "T" {
		t.Errorf("Expected title 'T', got '%s'", article.Title)
	}
	if article.Excerpt != "" || article.SEOImageURL != "" || article.FeaturedImageAlt != "" || article.AuthorName != "" {
		t.Errorf("Expected null fields to flatten to empty strings, got %+v", *article)
	}
}

func TestClient_FetchArticle_NotFound(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"post":null}}`))
	})

	client := NewClient(server.URL, server.Client(), "", time.Second)
	article, err := client.FetchArticle(context.Background(), "/missing/page/")
	if err != nil {
		t.Fatalf("Expected no error for missing post, got: %v", err)
	}
	if article != nil {
		t.Errorf("Expected nil article, got %+v", article)
	}
}

func TestClient_FetchArticle_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, `oops`, "HTTP error: 500"},
		{"malformed json", http.StatusOK, `{"data":`, "failed to decode article response"},
		{"unknown field", http.StatusOK, `{"data":{"post":{"id":"1","surprise":true}}}`, "failed to decode article response"},
		{"graphql errors", http.StatusOK, `{"errors":[{"message":"Internal server error"}],"data":{"post":null}}`, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			client := NewClient(server.URL, server.Client(), "", time.Second)
			article, err := client.FetchArticle(context.Background(), "/x/")
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if article != nil {
				t.Errorf("Expected nil article on error, got %+v", article)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing '%s', got '%s'", tt.wantErr, err.Error())
			}
		})
	}
}

func TestClient_FetchArticle_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	client := NewClient(server.URL, server.Client(), "", 50*time.Millisecond)
	_, err := client.FetchArticle(context.Background(), "/slow/")
	if err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got: %v", err)
	}
}

func TestClient_FetchRedirectTarget(t *testing.T) {
	var gotRequest graphQLRequest
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotRequest)
		w.Write([]byte(`{"data":{"post":{"id":"1","acfgoogle_news_url":{"googleNewsUrl":"https://partner.example/a"}}}}`))
	})

	client := NewClient(server.URL, server.Client(), "", time.Second)
	target, err := client.FetchRedirectTarget(context.Background(), "/a/")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if target.ExternalRedirectURL != "https://partner.example/a" {
		t.Errorf("Expected redirect URL, got '%s'", target.ExternalRedirectURL)
	}
	if strings.Contains(gotRequest.Query, "content") {
		t.Error("Expected minimal query without content fields")
	}
}

func TestClient_FetchRedirectTarget_EmptyAttribute(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"post":{"id":"1","acfgoogle_news_url":{"googleNewsUrl":null}}}}`))
	})

	client := NewClient(server.URL, server.Client(), "", time.Second)
	target, err := client.FetchRedirectTarget(context.Background(), "/a/")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if target.ExternalRedirectURL != "" {
		t.Errorf("Expected empty redirect URL, got '%s'", target.ExternalRedirectURL)
	}
}

type countingObserver struct {
	calls  atomic.Int32
	failed atomic.Int32
}

func (o *countingObserver) ObserveStoreQuery(query string, duration time.Duration, err error) {
	o.calls.Add(1)
	if err != nil {
		o.failed.Add(1)
	}
}

func TestClient_Observer(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	observer := &countingObserver{}
	client := NewClient(server.URL, server.Client(), "", time.Second)
	client.SetObserver(observer)

	client.FetchArticle(context.Background(), "/a/")
	client.FetchRedirectTarget(context.Background(), "/a/")

	if observer.calls.Load() != 2 {
		t.Errorf("Expected 2 observed queries, got %d", observer.calls.Load())
	}
	if observer.failed.Load() != 2 {
		t.Errorf("Expected 2 failed queries, got %d", observer.failed.Load())
	}
}
