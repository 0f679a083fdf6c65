package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(previous)
	})

	return sr
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.Failf(t, "span not found", "no ended span named %q", name)
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (string, bool) {
	for _, attr := range span.Attributes() {
		if attr.Key == key {
			return attr.Value.Emit(), true
		}
	}
	return "", false
}

func tracedRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "test-service"}))
	router.Use(handlers...)
	return router
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracingWithConfig_Enabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := tracedRouter()
	router.GET("/products/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/42", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	findSpan(t, sr, "GET /products/:id")
}

func TestTracingAttributeInjector(t *testing.T) {
	sr := setupTestTracer(t)

	router := tracedRouter(
		func(c *gin.Context) {
			c.Set("request_id", "req-123")
			c.Set(JWTUserIDKey, "user-123")
			c.Set(JWTTenantIDKey, "tenant-456")
			c.Next()
		},
		TracingAttributeInjector(),
	)
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	span := findSpan(t, sr, "GET /test")
	for key, want := range map[attribute.Key]string{
		"request_id": "req-123",
		"tenant_id":  "tenant-456",
		"user_id":    "user-123",
	} {
		got, ok := spanAttr(span, key)
		assert.True(t, ok, "attribute %s not found", key)
		assert.Equal(t, want, got)
	}
}

func TestTracingAttributeInjector_Anonymous(t *testing.T) {
	sr := setupTestTracer(t)

	router := tracedRouter(TracingAttributeInjector())
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	span := findSpan(t, sr, "GET /health")
	_, ok := spanAttr(span, "tenant_id")
	assert.False(t, ok)
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantCode    codes.Code
		description string
	}{
		{name: "success", status: http.StatusOK, wantCode: codes.Unset},
		{name: "bad request", status: http.StatusBadRequest, wantCode: codes.Error, description: "Client Error"},
		{name: "unauthorized", status: http.StatusUnauthorized, wantCode: codes.Error, description: "Unauthorized"},
		{name: "forbidden", status: http.StatusForbidden, wantCode: codes.Error, description: "Forbidden"},
		{name: "not found", status: http.StatusNotFound, wantCode: codes.Error, description: "Not Found"},
		{name: "rate limited", status: http.StatusTooManyRequests, wantCode: codes.Error, description: "Rate Limited"},
		{name: "bad gateway", status: http.StatusBadGateway, wantCode: codes.Error, description: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)

			router := tracedRouter(SpanErrorMarker())
			router.GET("/test", func(c *gin.Context) {
				c.Status(tt.status)
			})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
			require.Equal(t, tt.status, rec.Code)

			span := findSpan(t, sr, "GET /test")
			assert.Equal(t, tt.wantCode, span.Status().Code)
			if tt.wantCode == codes.Error {
				assert.Equal(t, tt.description, span.Status().Description)
			}
		})
	}
}
