package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func newTracedEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(err error) (string, string) {
			return "unbalanced_entry", "unbalanced_entry"
		},
	}))
	r.POST("/api/journal-entries", func(c *gin.Context) {
		_ = c.Error(errors.New("unbalanced_entry: debit 10.00, credit 9.00"))
		c.Status(http.StatusUnprocessableEntity)
	})
	r.GET("/api/reports/trial-balance", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/api/accounts/:id", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusInternalServerError)
	})
	return r
}

func TestGinMiddlewareNamesSpanAfterLedgerRoute(t *testing.T) {
	recorder := recordSpans(t)
	r := newTracedEngine()

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/reports/trial-balance?as_of=2024-05-10", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP GET /api/reports/trial-balance", spans[0].Name())
	attrs := spanAttrs(spans[0])
	assert.Equal(t, "reports", attrs["ledger.resource"].AsString())
	assert.False(t, attrs["ledger.mutation"].AsBool())
	assert.Equal(t, int64(http.StatusOK), attrs["http.status_code"].AsInt64())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestGinMiddlewareTagsRejectedPosting(t *testing.T) {
	recorder := recordSpans(t)
	r := newTracedEngine()

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/journal-entries", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, "journal-entries", attrs["ledger.resource"].AsString())
	assert.True(t, attrs["ledger.mutation"].AsBool())
	assert.Equal(t, "unbalanced_entry", attrs["error.type"].AsString())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Empty(t, spans[0].Events())
}

func TestGinMiddlewareMarksServerErrors(t *testing.T) {
	recorder := recordSpans(t)
	r := newTracedEngine()

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/accounts/42", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP GET /api/accounts/:id", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestLedgerResource(t *testing.T) {
	assert.Equal(t, "accounts", ledgerResource("/api/accounts/:id/deactivate"))
	assert.Equal(t, "audit-logs", ledgerResource("/api/audit-logs"))
	assert.Equal(t, "system", ledgerResource("/health"))
	assert.Equal(t, "system", ledgerResource("unknown"))
}
