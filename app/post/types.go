package post

import (
	"errors"

	"github.com/lysyi3m/post-relay/app/store"
)

var (
	ErrMalformedPath = errors.New("malformed post path")
	ErrStore         = errors.New("content store failure")
)

type OutcomeKind string

const (
	OutcomeNotFound OutcomeKind = "not_found"
	OutcomeRedirect OutcomeKind = "redirect"
	OutcomeRender   OutcomeKind = "render"
)

// Request is the per-request input to the resolver.
type Request struct {
	Path             string // segments joined with "/"
	Referrer         string // empty when absent
	HasTrackingParam bool
	Host             string
}

type Redirect struct {
	Destination string
	Permanent   bool
}

// Payload carries the fetched article and request context to the formatter.
type Payload struct {
	Article store.Article
	Host    string
	Path    string
}

// Outcome holds exactly one of Redirect or Payload, or neither for NotFound.
type Outcome struct {
	Kind     OutcomeKind
	Redirect *Redirect
	Payload  *Payload
}

// Document is the metadata and body handed to the page template.
type Document struct {
	Title            string
	Description      string
	CanonicalURL     string
	OGTitle          string
	OGDescription    string
	OGURL            string
	OGType           string
	OGLocale         string
	SiteName         string
	PublishedTime    string
	ModifiedTime     string
	Image            string
	ImageAlt         string
	Heading          string
	FeaturedImageURL string
	FeaturedImageAlt string
	Author           string
	ReadingMinutes   int
	Content          string // raw HTML, rendered unescaped
}
