package core

import "context"

type contextKey string

const ctxKeyClient contextKey = "client"

// Client identifies who sent a request, for log lines.
type Client struct {
	IP        string
	UserAgent string
}

// ContextWithClient attaches the caller's address and user agent to ctx.
func ContextWithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, ctxKeyClient, c)
}

// ClientFromContext returns the client stored by ContextWithClient, or the
// zero value.
func ClientFromContext(ctx context.Context) Client {
	c, _ := ctx.Value(ctxKeyClient).(Client)
	return c
}
