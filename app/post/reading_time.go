package post

import (
	"log/slog"
	"strings"

	"github.com/go-shiori/go-readability"
)

const wordsPerMinute = 200

type ReadingTimeEstimator struct{}

func NewReadingTimeEstimator() *ReadingTimeEstimator {
	return &ReadingTimeEstimator{}
}

// Run returns the estimated reading time of an HTML body in whole minutes,
// or 0 when no readable text can be extracted.
func (e *ReadingTimeEstimator) Run(content string) int {
	if strings.TrimSpace(content) == "" {
		return 0
	}

	article, err := readability.FromReader(strings.NewReader(content), nil)
	if err != nil {
		slog.Debug("Failed to extract readable text", "error", err)
		return 0
	}

	words := len(strings.Fields(article.TextContent))
	if words == 0 {
		return 0
	}

	return (words + wordsPerMinute - 1) / wordsPerMinute
}
