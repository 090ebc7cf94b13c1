package httpx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/slumberware/slumber/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestChainOrdering(t *testing.T) {
	var order []string

	tag := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), tag("outer"), tag("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestWithTimeout(t *testing.T) {
	t.Run("sets a deadline on the request context", func(t *testing.T) {
		var deadlineSet bool

		h := httpx.WithTimeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, deadlineSet = r.Context().Deadline()
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.True(t, deadlineSet)
	})

	t.Run("expired deadline surfaces as DeadlineExceeded", func(t *testing.T) {
		var ctxErr error

		h := httpx.WithTimeout(time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			ctxErr = r.Context().Err()
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.ErrorIs(t, ctxErr, context.DeadlineExceeded)
	})

	t.Run("zero duration is a no-op", func(t *testing.T) {
		var deadlineSet bool

		h := httpx.WithTimeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, deadlineSet = r.Context().Deadline()
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.False(t, deadlineSet)
	})
}
