package post

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/post-relay/app/store"
)

type Resolver struct {
	store    store.ArticleStore
	endpoint string
	policy   *Policy
}

// NewResolver builds a resolver. endpoint is the configured GraphQL endpoint
// used to derive fallback redirect targets.
func NewResolver(articleStore store.ArticleStore, endpoint string, policy *Policy) *Resolver {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Resolver{
		store:    articleStore,
		endpoint: endpoint,
		policy:   policy,
	}
}

func (r *Resolver) Policy() *Policy {
	return r.policy
}

// Run resolves req to a not-found, redirect or render outcome. Store failures
// are returned wrapped in ErrStore and are never retried.
func (r *Resolver) Run(ctx context.Context, req Request) (*Outcome, error) {
	if req.Path == "" {
		return nil, ErrMalformedPath
	}

	uri := store.URIForPath(req.Path)

	article, err := r.store.FetchArticle(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch article: %w", ErrStore, err)
	}
	if article == nil {
		slog.Debug("Article not found", "path", req.Path)
		return &Outcome{Kind: OutcomeNotFound}, nil
	}

	if !r.policy.IsRedirectEligible(req.Referrer, req.HasTrackingParam) {
		return &Outcome{
			Kind: OutcomeRender,
			Payload: &Payload{
				Article: *article,
				Host:    req.Host,
				Path:    req.Path,
			},
		}, nil
	}

	target, err := r.store.FetchRedirectTarget(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch redirect target: %w", ErrStore, err)
	}

	if target != nil && target.ExternalRedirectURL != "" {
		return redirectTo(target.ExternalRedirectURL), nil
	}

	destination := FallbackURL(r.endpoint, req.Path)
	slog.Debug("No external redirect for article, using fallback", "path", req.Path, "destination", destination)

	return redirectTo(destination), nil
}

// Redirects are always temporary.
func redirectTo(destination string) *Outcome {
	return &Outcome{
		Kind: OutcomeRedirect,
		Redirect: &Redirect{
			Destination: destination,
			Permanent:   false,
		},
	}
}
