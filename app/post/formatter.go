package post

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

const (
	DefaultLocale = "en_US"
	ogTypeArticle = "article"
)

type Formatter struct {
	locale      string
	readingTime *ReadingTimeEstimator
}

// NewFormatter takes a BCP 47 locale tag such as "en-US".
func NewFormatter(locale string) *Formatter {
	return &Formatter{
		locale:      OGLocale(locale),
		readingTime: NewReadingTimeEstimator(),
	}
}

func (f *Formatter) Run(payload Payload) Document {
	article := payload.Article
	text := CleanText(article.Excerpt)
	canonical := fmt.Sprintf("https://%s/%s", payload.Host, EncodeURI(payload.Path))

	imageAlt := article.FeaturedImageAlt
	if imageAlt == "" {
		imageAlt = article.Title
	}

	return Document{
		Title:            text,
		Description:      text,
		CanonicalURL:     canonical,
		OGTitle:          article.SEOTitle,
		OGDescription:    text,
		OGURL:            canonical,
		OGType:           ogTypeArticle,
		OGLocale:         f.locale,
		SiteName:         SiteName(payload.Host),
		PublishedTime:    article.DateGMT,
		ModifiedTime:     article.ModifiedGMT,
		Image:            article.SEOImageURL,
		ImageAlt:         imageAlt,
		Heading:          article.SEOTitle,
		FeaturedImageURL: article.FeaturedImageURL,
		FeaturedImageAlt: imageAlt,
		Author:           article.AuthorName,
		ReadingMinutes:   f.readingTime.Run(article.Content),
		Content:          article.Content,
	}
}

// SiteName returns the first dot-delimited label of host.
func SiteName(host string) string {
	name, _, _ := strings.Cut(host, ".")
	return name
}

// OGLocale renders a BCP 47 tag in the ll_RR form used by og:locale.
func OGLocale(tag string) string {
	if tag == "" {
		return DefaultLocale
	}

	t, err := language.Parse(tag)
	if err != nil {
		return DefaultLocale
	}

	base, _ := t.Base()
	region, confidence := t.Region()
	if confidence == language.No {
		return base.String()
	}
	return base.String() + "_" + region.String()
}
