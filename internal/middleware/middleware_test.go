package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/popeskul/smshub/internal/middleware"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated"},
		{name: "propagated", incoming: "req-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = middleware.GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
			if tt.incoming != "" {
				req.Header.Set(middleware.RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.NotEmpty(t, seen)
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
			assert.Equal(t, seen, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(rate.Limit(1), 1)

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("127.0.0.1:1234"))
	// A new connection from the same host shares the bucket.
	assert.Equal(t, http.StatusTooManyRequests, send("127.0.0.1:5678"))
	assert.Equal(t, http.StatusOK, send("10.0.0.7:1234"))

	time.Sleep(time.Second)
	assert.Equal(t, http.StatusOK, send("127.0.0.1:1234"))
}

func TestRateLimiter_Exempt(t *testing.T) {
	rl := middleware.NewRateLimiter(rate.Limit(1), 1, "/v1/webhooks/")

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/eskiz/delivery", nil)
		req.RemoteAddr = "10.0.0.9:4000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	req.RemoteAddr = "10.0.0.9:4000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		status        int
		expectedLevel zapcore.Level
	}{
		{name: "success", path: "/v1/messages", status: http.StatusAccepted, expectedLevel: zapcore.InfoLevel},
		{name: "client error", path: "/v1/messages", status: http.StatusConflict, expectedLevel: zapcore.WarnLevel},
		{name: "server error", path: "/v1/messages", status: http.StatusInternalServerError, expectedLevel: zapcore.ErrorLevel},
		{name: "health probe", path: "/health", status: http.StatusOK, expectedLevel: zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			handler := middleware.Logger(zap.New(core))(middleware.RequestID(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte("body"))
				}),
			))

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			req.Header.Set(middleware.RequestIDHeader, "req-7")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.expectedLevel, entries[0].Level)

			fields := entries[0].ContextMap()
			assert.Equal(t, "req-7", fields["requestID"])
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, int64(4), fields["bytes"])
		})
	}
}

func TestCORS(t *testing.T) {
	config := middleware.DefaultCORSConfig()
	handler := middleware.CORS(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name          string
		method        string
		origin        string
		preflight     bool
		expectedCode  int
		expectedAllow string
	}{
		{name: "preflight", method: http.MethodOptions, origin: "http://localhost:3000", preflight: true, expectedCode: http.StatusNoContent, expectedAllow: "http://localhost:3000"},
		{name: "simple request", method: http.MethodGet, origin: "http://localhost:3000", expectedCode: http.StatusOK, expectedAllow: "http://localhost:3000"},
		{name: "no origin", method: http.MethodGet, expectedCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/messages", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedAllow, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.preflight {
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
			}
		})
	}
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	config := middleware.DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://console.example.com"}
	handler := middleware.CORS(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestRecovery(t *testing.T) {
	handler := middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		name         string
		delay        time.Duration
		expectedCode int
		expectedBody string
	}{
		{name: "completes in time", delay: 0, expectedCode: http.StatusCreated, expectedBody: "ok"},
		{name: "exceeds deadline", delay: 200 * time.Millisecond, expectedCode: http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.Timeout(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(tt.delay):
				case <-r.Context().Done():
					return
				}
				w.Header().Set("X-Handler", "done")
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte("ok"))
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/messages", nil))

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, w.Body.String())
				assert.Equal(t, "done", w.Header().Get("X-Handler"))
			} else {
				assert.Contains(t, w.Body.String(), middleware.ErrorCodeRequestTimeout)
			}
		})
	}
}

func TestTimeout_PropagatesPanic(t *testing.T) {
	handler := middleware.Recovery(zap.NewNop())(
		middleware.Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})),
	)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/messages", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestChain(t *testing.T) {
	var requestID string
	handler := middleware.Chain(&middleware.Config{
		Logger:         zap.NewNop(),
		CORS:           middleware.DefaultCORSConfig(),
		RateLimit:      rate.Limit(100),
		RateLimitBurst: 10,
		RequestTimeout: time.Second,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = middleware.GetRequestID(r.Context())
		_, ok := r.Context().Deadline()
		assert.True(t, ok)
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil).WithContext(context.Background())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.NotEmpty(t, requestID)
}

func TestOperations(t *testing.T) {
	assert.Empty(t, middleware.Operations(&middleware.Config{Logger: zap.NewNop()}))
	assert.Len(t, middleware.Operations(&middleware.Config{
		Logger: zap.NewNop(),
		Auth:   &middleware.AuthConfig{Secret: []byte("secret")},
	}), 1)
}
