package web

import (
	"context"
	"net/http"

	"github.com/panda279/leave-note/internal/core"
	"github.com/panda279/leave-note/internal/web/middleware"
)

// withClient tags ctx with the caller for the service's log lines.
func withClient(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, core.Client{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
}
