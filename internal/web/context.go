package web

import (
	"context"
	"net/http"

	"github.com/belisarialeskovac-maker/opsdash/internal/core"
)

// WithRequestMetadata adds IP and User-Agent to context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	// RemoteAddr has already been resolved by the TrustedRealIP middleware
	return core.WithRequestMeta(ctx, r.RemoteAddr, r.Header.Get("User-Agent"))
}
