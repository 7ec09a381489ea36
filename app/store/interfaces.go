package store

import "context"

// ArticleStore fetches posts from the content backend by URI.
// Both methods return (nil, nil) when the backend has no post for the URI.
type ArticleStore interface {
	FetchArticle(ctx context.Context, uri string) (*Article, error)
	FetchRedirectTarget(ctx context.Context, uri string) (*RedirectTarget, error)
}
