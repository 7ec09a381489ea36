package api

import (
	"context"

	"github.com/lysyi3m/post-relay/app/database"
	"github.com/lysyi3m/post-relay/app/metrics"
	"github.com/lysyi3m/post-relay/app/post"
	"github.com/lysyi3m/post-relay/app/tasks"
)

type ResolverInterface interface {
	Run(ctx context.Context, req post.Request) (*post.Outcome, error)
}

type FormatterInterface interface {
	Run(payload post.Payload) post.Document
}

var (
	_ ResolverInterface   = (*post.Resolver)(nil)
	_ FormatterInterface  = (*post.Formatter)(nil)
	_ tasks.WriteObserver = (*metrics.Recorder)(nil)
)

type Handler struct {
	resolver  ResolverInterface
	formatter FormatterInterface
	policy    *post.Policy
	repo      database.ResolutionRepository
	scheduler tasks.TaskSchedulerInterface
	recorder  *metrics.Recorder
	version   string
}
