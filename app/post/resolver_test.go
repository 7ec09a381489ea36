package post

import (
	"context"
	"errors"
	"testing"

	"github.com/lysyi3m/post-relay/app/store"
)

const testEndpoint = "https://cms.example.com/graphql/"

// MockArticleStore records every query it receives.
type MockArticleStore struct {
	article     *store.Article
	target      *store.RedirectTarget
	articleErr  error
	targetErr   error
	articleURIs []string
	targetURIs  []string
}

var _ store.ArticleStore = (*MockArticleStore)(nil)

func (m *MockArticleStore) FetchArticle(ctx context.Context, uri string) (*store.Article, error) {
	m.articleURIs = append(m.articleURIs, uri)
	if m.articleErr != nil {
		return nil, m.articleErr
	}
	return m.article, nil
}

func (m *MockArticleStore) FetchRedirectTarget(ctx context.Context, uri string) (*store.RedirectTarget, error) {
	m.targetURIs = append(m.targetURIs, uri)
	if m.targetErr != nil {
		return nil, m.targetErr
	}
	return m.target, nil
}

func sampleArticle() *store.Article {
	return &store.Article{
		ID:                  "cG9zdDox",
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
}

func TestResolver_Render_NotEligible(t *testing.T) {
	mockStore := &MockArticleStore{article: sampleArticle()}
	resolver := NewResolver(mockStore, testEndpoint, nil)

	outcome, err := resolver.Run(context.Background(), Request{
		Path: "news/item-1",
		Host: "example.com",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if outcome.Kind != OutcomeRender {
		t.Fatalf("Expected render outcome, got %s", outcome.Kind)
	}
	if outcome.Redirect != nil {
		t.Error("Render outcome should not carry a redirect")
	}
	if len(mockStore.targetURIs) != 0 {
		t.Errorf("Expected no redirect query, got %d", len(mockStore.targetURIs))
	}
	if len(mockStore.articleURIs) != 1 || mockStore.articleURIs[0] != "/news/item-1/" {
		t.Errorf("Expected one article query for '/news/item-1/', got %v", mockStore.articleURIs)
	}

	payload := outcome.Payload
	if payload.Article != *sampleArticle() {
		t.Errorf("Expected payload article to match fetched article verbatim, got %+v", payload.Article)
	}
	if payload.Host != "example.com" {
		t.Errorf("Expected host 'example.com', got '%s'", payload.Host)
	}
	if payload.Path != "news/item-1" {
		t.Errorf("Expected path 'news/item-1', got '%s'", payload.Path)
	}
	if got := CleanText(payload.Article.Excerpt); got != "Hello world" {
		t.Errorf("Expected cleaned excerpt 'Hello world', got '%s'", got)
	}
}

func TestResolver_Redirect_ExternalURL(t *testing.T) {
	mockStore := &MockArticleStore{
		article: sampleArticle(),
		target:  &store.RedirectTarget{ID: "cG9zdDox", ExternalRedirectURL: "https://partner.example/news/item-1"},
	}
	resolver := NewResolver(mockStore, testEndpoint, nil)

	outcome, err := resolver.Run(context.Background(), Request{
		Path:     "news/item-1",
		Referrer: "https://facebook.com/l",
		Host:     "example.com",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if outcome.Kind != OutcomeRedirect {
		t.Fatalf("Expected redirect outcome, got %s", outcome.Kind)
	}
	if outcome.Payload != nil {
		t.Error("Redirect outcome should not carry a payload")
	}
	if outcome.Redirect.Destination != "https://partner.example/news/item-1" {
		t.Errorf("Expected partner destination, got '%s'", outcome.Redirect.Destination)
	}
	if outcome.Redirect.Permanent {
		t.Error("Redirect should not be permanent")
	}
	if len(mockStore.targetURIs) != 1 || mockStore.targetURIs[0] != "/news/item-1/" {
		t.Errorf("Expected one redirect query for '/news/item-1/', got %v", mockStore.targetURIs)
	}
}

func TestResolver_Redirect_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		target *store.RedirectTarget
	}{
		{"empty attribute", &store.RedirectTarget{ID: "1"}},
		{"post vanished", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := &MockArticleStore{article: sampleArticle(), target: tt.target}
			resolver := NewResolver(mockStore, testEndpoint, nil)

			outcome, err := resolver.Run(context.Background(), Request{
				Path:     "news/item-1",
				Referrer: "https://facebook.com/l",
				Host:     "example.com",
			})
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if outcome.Kind != OutcomeRedirect {
				t.Fatalf("Expected redirect outcome, got %s", outcome.Kind)
			}
			if outcome.Redirect.Destination != "https://cms.example.com/news/item-1" {
				t.Errorf("Expected fallback destination, got '%s'", outcome.Redirect.Destination)
			}
			if outcome.Redirect.Permanent {
				t.Error("Fallback redirect should not be permanent")
			}
		})
	}
}

func TestResolver_Redirect_TrackingParam(t *testing.T) {
	mockStore := &MockArticleStore{article: sampleArticle(), target: &store.RedirectTarget{ID: "1"}}
	resolver := NewResolver(mockStore, testEndpoint, nil)

	outcome, err := resolver.Run(context.Background(), Request{
		Path:             "news/café time",
		HasTrackingParam: true,
		Host:             "example.com",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if outcome.Kind != OutcomeRedirect {
		t.Fatalf("Expected redirect outcome, got %s", outcome.Kind)
	}
	expected := "https://cms.example.com/news/caf%C3%A9%20time"
	if outcome.Redirect.Destination != expected {
		t.Errorf("Expected '%s', got '%s'", expected, outcome.Redirect.Destination)
	}
}

func TestResolver_NotFound(t *testing.T) {
	requests := []Request{
		{Path: "missing/page", Host: "example.com"},
		{Path: "missing/page", Referrer: "https://facebook.com/l", Host: "example.com"},
		{Path: "missing/page", HasTrackingParam: true, Host: "example.com"},
	}

	for _, req := range requests {
		mockStore := &MockArticleStore{}
		resolver := NewResolver(mockStore, testEndpoint, nil)

		outcome, err := resolver.Run(context.Background(), req)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if outcome.Kind != OutcomeNotFound {
			t.Errorf("Expected not found outcome for %+v, got %s", req, outcome.Kind)
		}
		if outcome.Redirect != nil || outcome.Payload != nil {
			t.Errorf("Not found outcome should carry nothing, got %+v", outcome)
		}
		if len(mockStore.targetURIs) != 0 {
			t.Errorf("Expected no redirect query when article is missing, got %d", len(mockStore.targetURIs))
		}
	}
}

func TestResolver_MalformedPath(t *testing.T) {
	mockStore := &MockArticleStore{article: sampleArticle()}
	resolver := NewResolver(mockStore, testEndpoint, nil)

	outcome, err := resolver.Run(context.Background(), Request{Path: "", Host: "example.com"})
	if !errors.Is(err, ErrMalformedPath) {
		t.Errorf("Expected ErrMalformedPath, got: %v", err)
	}
	if outcome != nil {
		t.Errorf("Expected nil outcome, got %+v", outcome)
	}
	if len(mockStore.articleURIs) != 0 {
		t.Error("Store should not be queried for an empty path")
	}
}

func TestResolver_StoreFailures(t *testing.T) {
	storeErr := errors.New("connection refused")

	tests := []struct {
		name  string
		store *MockArticleStore
		req   Request
	}{
		{
			name:  "primary query",
			store: &MockArticleStore{articleErr: storeErr},
			req:   Request{Path: "news/item-1", Host: "example.com"},
		},
		{
			name:  "redirect query",
			store: &MockArticleStore{article: sampleArticle(), targetErr: storeErr},
			req:   Request{Path: "news/item-1", HasTrackingParam: true, Host: "example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewResolver(tt.store, testEndpoint, nil)

			outcome, err := resolver.Run(context.Background(), tt.req)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, ErrStore) {
				t.Errorf("Expected ErrStore, got: %v", err)
			}
			if !errors.Is(err, storeErr) {
				t.Errorf("Expected underlying error to be preserved, got: %v", err)
			}
			if outcome != nil {
				t.Errorf("Expected no partial outcome, got %+v", outcome)
			}
		})
	}
}

func TestResolver_CustomPolicy(t *testing.T) {
	mockStore := &MockArticleStore{article: sampleArticle(), target: &store.RedirectTarget{ID: "1"}}
	policy := &Policy{ReferrerDomains: []string{"t.co"}, TrackingParams: []string{"twclid"}}
	resolver := NewResolver(mockStore, testEndpoint, policy)

	outcome, err := resolver.Run(context.Background(), Request{
		Path:     "news/item-1",
		Referrer: "https://facebook.com/l",
		Host:     "example.com",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if outcome.Kind != OutcomeRender {
		t.Errorf("Expected render outcome for unlisted referrer, got %s", outcome.Kind)
	}

	outcome, err = resolver.Run(context.Background(), Request{
		Path:     "news/item-1",
		Referrer: "https://t.co/abc",
		Host:     "example.com",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if outcome.Kind != OutcomeRedirect {
		t.Errorf("Expected redirect outcome for listed referrer, got %s", outcome.Kind)
	}
}
