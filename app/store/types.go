package store

// Article is a post record as returned by the full-field query.
// Optional nested objects are flattened to empty strings.
type Article struct {
	ID                  string
	Excerpt             string // raw, may carry HTML and shortcodes
	Title               string
	Link                string
	DateGMT             string
	ModifiedGMT         string
	Content             string // raw HTML
	ExternalRedirectURL string
	AuthorName          string
	SEOTitle            string
	SEOImageURL         string
	FeaturedImageURL    string
	FeaturedImageAlt    string
}

// RedirectTarget is the result of the minimal redirect query.
type RedirectTarget struct {
	ID                  string
	ExternalRedirectURL string
}

// Wire types for the GraphQL response. Nullable objects are pointers so a
// JSON null decodes cleanly.

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message    string         `json:"message"`
	Locations  []any          `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type articleResponse struct {
	Data *struct {
		Post *postNode `json:"post"`
	} `json:"data"`
	Errors     []graphQLError `json:"errors,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type redirectResponse struct {
	Data *struct {
		Post *redirectNode `json:"post"`
	} `json:"data"`
	Errors     []graphQLError `json:"errors,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type postNode struct {
	ID            string         `json:"id"`
	Excerpt       *string        `json:"excerpt"`
	Title         *string        `json:"title"`
	Link          *string        `json:"link"`
	DateGMT       *string        `json:"dateGmt"`
	ModifiedGMT   *string        `json:"modifiedGmt"`
	Content       *string        `json:"content"`
	GoogleNewsURL *googleNewsACF `json:"acfgoogle_news_url"`
	Author        *struct {
		Node *struct {
			Name *string `json:"name"`
		} `json:"node"`
	} `json:"author"`
	SEO *struct {
		OpengraphTitle *string    `json:"opengraphTitle"`
		OpengraphImage *mediaItem `json:"opengraphImage"`
	} `json:"seo"`
	FeaturedImage *struct {
		Node *mediaItem `json:"node"`
	} `json:"featuredImage"`
}

type redirectNode struct {
	ID            string         `json:"id"`
	GoogleNewsURL *googleNewsACF `json:"acfgoogle_news_url"`
}

type googleNewsACF struct {
	GoogleNewsURL *string `json:"googleNewsUrl"`
}

type mediaItem struct {
	SourceURL *string `json:"sourceUrl"`
	AltText   *string `json:"altText"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (n *postNode) toArticle() *Article {
	article := &Article{
		ID:          n.ID,
		Excerpt:     deref(n.Excerpt),
		Title:       deref(n.Title),
		Link:        deref(n.Link),
		DateGMT:     deref(n.DateGMT),
		ModifiedGMT: deref(n.ModifiedGMT),
		Content:     deref(n.Content),
	}

	if n.GoogleNewsURL != nil {
		article.ExternalRedirectURL = deref(n.GoogleNewsURL.GoogleNewsURL)
	}
	if n.Author != nil && n.Author.Node != nil {
		article.AuthorName = deref(n.Author.Node.Name)
	}
	if n.SEO != nil {
		article.SEOTitle = deref(n.SEO.OpengraphTitle)
		if n.SEO.OpengraphImage != nil {
			article.SEOImageURL = deref(n.SEO.OpengraphImage.SourceURL)
		}
	}
	if n.FeaturedImage != nil && n.FeaturedImage.Node != nil {
		article.FeaturedImageURL = deref(n.FeaturedImage.Node.SourceURL)
		article.FeaturedImageAlt = deref(n.FeaturedImage.Node.AltText)
	}

	return article
}

func (n *redirectNode) toRedirectTarget() *RedirectTarget {
	target := &RedirectTarget{ID: n.ID}
	if n.GoogleNewsURL != nil {
		target.ExternalRedirectURL = deref(n.GoogleNewsURL.GoogleNewsURL)
	}
	return target
}
