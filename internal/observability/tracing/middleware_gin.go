package tracing

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/goldbook/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// MiddlewareConfig controls request span enrichment.
type MiddlewareConfig struct {
	// ErrorClassifier returns the error type and code sent to the client.
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware opens one server span per request, named after the matched
// ledger route.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	tracer := otel.Tracer("goldbook/http")
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		method := strings.ToUpper(c.Request.Method)
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		ctx, span := tracer.Start(ctx, "HTTP "+method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(SafeAttributes(
				attribute.String("http.method", method),
				attribute.String("http.route", route),
				attribute.String("ledger.resource", ledgerResource(route)),
				attribute.Bool("ledger.mutation", method != http.MethodGet && method != http.MethodHead),
			)...),
		)
		defer span.End()

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			if member, err := baggage.NewMember("request_id", requestID); err == nil {
				if bag, err := baggage.New(member); err == nil {
					ctx = baggage.ContextWithBaggage(ctx, bag)
				}
			}
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(SafeAttributes(
			attribute.Int("http.status_code", status),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		)...)
		if status == http.StatusTooManyRequests {
			span.SetAttributes(attribute.Bool("ledger.rate_limited", true))
		}

		lastErr := c.Errors.Last()
		if lastErr != nil && cfg.ErrorClassifier != nil && status >= http.StatusBadRequest {
			errType, errCode := cfg.ErrorClassifier(lastErr.Err)
			span.SetAttributes(
				attribute.String("error.type", errType),
				attribute.String("error.code", errCode),
			)
		}
		if status >= http.StatusInternalServerError {
			if lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, "request error")
		}
	}
}

// ledgerResource maps "/api/reports/trial-balance" to "reports" and
// "/api/journal-entries/:id/lines" to "journal-entries".
func ledgerResource(route string) string {
	trimmed := strings.TrimPrefix(route, "/api/")
	if trimmed == route {
		return "system"
	}
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "system"
	}
	return trimmed
}
