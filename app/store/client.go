package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	QueryArticle  = "article"
	QueryRedirect = "redirect"

	defaultTimeout = 10 * time.Second
	maxBodySize    = 16 << 20
)

// QueryObserver receives the timing and result of every store query.
type QueryObserver interface {
	ObserveStoreQuery(query string, duration time.Duration, err error)
}

var _ ArticleStore = (*Client)(nil)

type Client struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	observer   QueryObserver
}

func NewClient(endpoint string, httpClient *http.Client, userAgent string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// SetObserver installs a query observer. Not safe to call once the client
// is serving requests.
func (c *Client) SetObserver(observer QueryObserver) {
	c.observer = observer
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) FetchArticle(ctx context.Context, uri string) (*Article, error) {
	var resp articleResponse
	if err := c.query(ctx, QueryArticle, articleQuery, uri, &resp); err != nil {
		return nil, err
	}
	if err := graphQLErrors(resp.Errors); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.Post == nil {
		return nil, nil
	}
	return resp.Data.Post.toArticle(), nil
}

func (c *Client) FetchRedirectTarget(ctx context.Context, uri string) (*RedirectTarget, error) {
	var resp redirectResponse
	if err := c.query(ctx, QueryRedirect, redirectQuery, uri, &resp); err != nil {
		return nil, err
	}
	if err := graphQLErrors(resp.Errors); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.Post == nil {
		return nil, nil
	}
	return resp.Data.Post.toRedirectTarget(), nil
}

func (c *Client) query(ctx context.Context, name, query, uri string, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveStoreQuery(name, time.Since(start), err)
		}
	}()

	body, err := json.Marshal(graphQLRequest{
		Query:     query,
		Variables: map[string]any{"id": uri},
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s query: %w", name, err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query content store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", name, err)
	}

	slog.Debug("Content store query completed",
		"query", name,
		"uri", uri,
		"duration", time.Since(start),
		"bytes", len(data))

	return nil
}

func graphQLErrors(errs []graphQLError) error {
	if len(errs) == 0 {
		return nil
	}
	joined := make([]error, 0, len(errs))
	for _, e := range errs {
		joined = append(joined, errors.New(e.Message))
	}
	return fmt.Errorf("content store returned errors: %w", errors.Join(joined...))
}
