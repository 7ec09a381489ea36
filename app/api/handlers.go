package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lysyi3m/post-relay/app/database"
	"github.com/lysyi3m/post-relay/app/metrics"
	"github.com/lysyi3m/post-relay/app/post"
	"github.com/lysyi3m/post-relay/app/tasks"
)

const (
	outcomeBadRequest   = "bad_request"
	outcomeStoreFailure = "store_failure"

	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

func NewHandler(resolver ResolverInterface, formatter FormatterInterface, policy *post.Policy,
	repo database.ResolutionRepository, scheduler tasks.TaskSchedulerInterface,
	recorder *metrics.Recorder, version string) *Handler {
	if policy == nil {
		policy = post.DefaultPolicy()
	}
	return &Handler{
		resolver:  resolver,
		formatter: formatter,
		policy:    policy,
		repo:      repo,
		scheduler: scheduler,
		recorder:  recorder,
		version:   version,
	}
}

// GetPost resolves any unrouted path as a post path.
func (h *Handler) GetPost(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Header("Allow", "GET, HEAD")
		c.Status(http.StatusMethodNotAllowed)
		return
	}

	req := post.Request{
		Path:             postPath(c.Request.URL.Path),
		Referrer:         c.GetHeader("Referer"),
		HasTrackingParam: h.policy.HasTrackingParam(c.QueryArray),
		Host:             c.Request.Host,
	}

	outcome, err := h.resolver.Run(c.Request.Context(), req)
	if err != nil {
		h.handleResolveError(c, req, err)
		return
	}

	h.observe(string(outcome.Kind))
	h.record(c, req, outcome)

	switch outcome.Kind {
	case post.OutcomeNotFound:
		c.Status(http.StatusNotFound)

	case post.OutcomeRedirect:
		status := http.StatusFound
		if outcome.Redirect.Permanent {
			status = http.StatusMovedPermanently
		}
		c.Header("Cache-Control", "no-store")
		c.Redirect(status, outcome.Redirect.Destination)

	case post.OutcomeRender:
		doc := h.formatter.Run(*outcome.Payload)
		c.HTML(http.StatusOK, postTemplate, doc)

	default:
		slog.Error("Unknown resolution outcome", "path", req.Path, "outcome", outcome.Kind)
		c.Status(http.StatusInternalServerError)
	}
}

func (h *Handler) handleResolveError(c *gin.Context, req post.Request, err error) {
	switch {
	case errors.Is(err, post.ErrMalformedPath):
		h.observe(outcomeBadRequest)
		c.Status(http.StatusBadRequest)

	case errors.Is(err, context.DeadlineExceeded):
		h.observe(outcomeStoreFailure)
		slog.Error("Content store timed out", "path", req.Path, "error", err)
		c.Status(http.StatusGatewayTimeout)

	case errors.Is(err, post.ErrStore):
		h.observe(outcomeStoreFailure)
		slog.Error("Content store error", "path", req.Path, "error", err)
		c.Status(http.StatusBadGateway)

	default:
		slog.Error("Resolution error", "path", req.Path, "error", err)
		c.Status(http.StatusInternalServerError)
	}
}

func (h *Handler) observe(outcome string) {
	if h.recorder != nil {
		h.recorder.ObserveResolution(outcome)
	}
}

// record hands the outcome to the background log writer. Failures never
// affect the response.
func (h *Handler) record(c *gin.Context, req post.Request, outcome *post.Outcome) {
	if h.scheduler == nil || h.repo == nil {
		return
	}

	resolution := database.Resolution{
		ID:        uuid.NewString(),
		RequestID: c.GetString(requestIDKey),
		Path:      req.Path,
		Outcome:   string(outcome.Kind),
		Referrer:  req.Referrer,
		Tracking:  req.HasTrackingParam,
		Host:      req.Host,
		CreatedAt: time.Now().UTC(),
	}
	if outcome.Redirect != nil {
		resolution.Destination = outcome.Redirect.Destination
	}

	var observer tasks.WriteObserver
	if h.recorder != nil {
		observer = h.recorder
	}

	task := tasks.NewRecordResolutionTask(resolution, h.repo, observer)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue RecordResolutionTask", "path", req.Path, "error", err)
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if h.repo != nil {
		if count, err := h.repo.GetResolutionCount(c.Request.Context()); err == nil {
			health["logged_resolutions"] = count
		} else {
			slog.Error("Database error", "operation", "get_resolution_count", "error", err)
			health["status"] = "degraded"
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListResolutions(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Resolution log disabled"})
		return
	}

	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = min(parsed, maxRecentLimit)
	}

	resolutions, err := h.repo.GetRecentResolutions(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_resolutions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(resolutions))
	for _, r := range resolutions {
		items = append(items, map[string]interface{}{
			"id":          r.ID,
			"request_id":  r.RequestID,
			"path":        r.Path,
			"outcome":     r.Outcome,
			"destination": r.Destination,
			"referrer":    r.Referrer,
			"tracking":    r.Tracking,
			"host":        r.Host,
			"created_at":  r.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"resolutions": items,
		"total":       len(items),
	})
}

func (h *Handler) APIGetResolutionStats(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Resolution log disabled"})
		return
	}

	stats, err := h.repo.GetResolutionStats(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_resolution_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := gin.H{
		"total":      stats.Total,
		"by_outcome": stats.ByOutcome,
	}
	if stats.Oldest != nil {
		response["oldest"] = stats.Oldest.Format(time.RFC3339)
	}
	if stats.Newest != nil {
		response["newest"] = stats.Newest.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, response)
}

// postPath joins the non-empty segments of a decoded URL path.
func postPath(urlPath string) string {
	segments := strings.Split(urlPath, "/")
	kept := segments[:0]
	for _, segment := range segments {
		if segment != "" {
			kept = append(kept, segment)
		}
	}
	return strings.Join(kept, "/")
}
