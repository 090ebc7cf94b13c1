package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/slumberware/slumber/internal/store"
	"github.com/slumberware/slumber/pkg/slumbersdk"
)

// writeServiceError answers failures that are not the caller's fault. A down
// database keeps its 503 and an expired request deadline its 504, so clients
// can distinguish "service degraded, retry later" from a plain server error.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		slumbersdk.ErrGatewayTimeout.WriteError(w)
	case errors.Is(err, store.ErrUnavailable):
		slumbersdk.ErrServiceUnavailable.WriteError(w)
	default:
		slumbersdk.ErrServerError.WriteError(w)
	}
}
