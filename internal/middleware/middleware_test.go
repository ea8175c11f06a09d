package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"ignist/internal/auth"
	"ignist/internal/logging"
	"ignist/internal/models"
)

type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestAuthMiddleware(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", "ignist", "ignist-clients", time.Minute)
	token, err := issuer.Issue(&models.User{ID: "u1", UserName: "ada", Email: "ada@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	var seen *auth.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := AuthMiddleware(issuer, logging.NewNop())(next)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{name: "valid token", header: "Bearer " + token, expectedStatus: http.StatusOK},
		{name: "missing header", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, expectedStatus: http.StatusUnauthorized},
		{name: "no token", header: "Bearer", expectedStatus: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc.def.ghi", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			// Act
			h.ServeHTTP(rr, req)

			// Assert
			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "u1", seen.UserID)
				assert.Equal(t, "ada@example.com", seen.Email)
			} else {
				assert.Nil(t, seen)
				assert.NotEmpty(t, errorBody(t, rr))
			}
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	h := RoleMiddleware(models.RoleAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	ctx := auth.WithClaims(context.Background(), &auth.Claims{Role: models.RoleNormal})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req.WithContext(ctx))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	ctx = auth.WithClaims(context.Background(), &auth.Claims{Role: models.RoleAdmin})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req.WithContext(ctx))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"http://app.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/publications", nil)
	req.Header.Set("Origin", "http://app.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/publications", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	wildcard := CORSMiddleware([]string{"*"})(okHandler())
	rr = httptest.NewRecorder()
	wildcard.ServeHTTP(rr, req)
	assert.Equal(t, "http://evil.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name           string
		allowed        bool
		err            error
		expectedStatus int
	}{
		{name: "within limit", allowed: true, expectedStatus: http.StatusOK},
		{name: "over limit", allowed: false, expectedStatus: http.StatusTooManyRequests},
		{name: "limiter down fails open", err: errors.New("redis down"), expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			limiter := new(MockLimiter)
			limiter.On("Allow", mock.Anything, "ratelimit:login:203.0.113.7").Return(tt.allowed, tt.err)
			h := RateLimit(limiter, "login", nil, logging.NewNop())(okHandler())

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.RemoteAddr = "203.0.113.7:51234"
			rr := httptest.NewRecorder()
			before := testutil.ToFloat64(RateLimited.WithLabelValues("login"))

			// Act
			h.ServeHTTP(rr, req)

			// Assert
			assert.Equal(t, tt.expectedStatus, rr.Code)
			limiter.AssertExpectations(t)
			if tt.expectedStatus == http.StatusTooManyRequests {
				assert.Equal(t, before+1, testutil.ToFloat64(RateLimited.WithLabelValues("login")))
			}
		})
	}
}

func TestProxyList_ClientIP(t *testing.T) {
	proxies, err := ParseProxies([]string{"10.0.0.0/8", "192.0.2.10"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		proxies    ProxyList
		remoteAddr string
		forwarded  []string
		expected   string
	}{
		{name: "no proxies ignores header", remoteAddr: "203.0.113.7:4000", forwarded: []string{"198.51.100.2"}, expected: "203.0.113.7"},
		{name: "untrusted peer ignores header", proxies: proxies, remoteAddr: "203.0.113.7:4000", forwarded: []string{"198.51.100.2"}, expected: "203.0.113.7"},
		{name: "trusted peer without header", proxies: proxies, remoteAddr: "10.0.0.1:4000", expected: "10.0.0.1"},
		{name: "trusted peer reports client", proxies: proxies, remoteAddr: "10.0.0.1:4000", forwarded: []string{"198.51.100.2"}, expected: "198.51.100.2"},
		{name: "spoofed leading hops are skipped", proxies: proxies, remoteAddr: "10.0.0.1:4000", forwarded: []string{"1.2.3.4, 198.51.100.2"}, expected: "198.51.100.2"},
		{name: "proxy chain is walked", proxies: proxies, remoteAddr: "192.0.2.10:4000", forwarded: []string{"198.51.100.2, 10.1.1.1"}, expected: "198.51.100.2"},
		{name: "repeated headers are joined", proxies: proxies, remoteAddr: "10.0.0.1:4000", forwarded: []string{"1.2.3.4", "198.51.100.2"}, expected: "198.51.100.2"},
		{name: "all hops trusted", proxies: proxies, remoteAddr: "10.0.0.1:4000", forwarded: []string{"10.2.2.2"}, expected: "10.2.2.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for _, v := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", v)
			}

			// Act
			ip := tt.proxies.ClientIP(req)

			// Assert
			assert.Equal(t, tt.expected, ip)
		})
	}
}

func TestParseProxies_Invalid(t *testing.T) {
	_, err := ParseProxies([]string{"10.0.0.0/8", "not-an-ip"})
	assert.ErrorContains(t, err, "not-an-ip")
}

// countingLimiter allows limit hits per key.
type countingLimiter struct {
	limit int
	hits  map[string]int
}

func (c *countingLimiter) Allow(_ context.Context, key string) (bool, error) {
	c.hits[key]++
	return c.hits[key] <= c.limit, nil
}

func TestRateLimit_RotatingForwardedForIsStillLimited(t *testing.T) {
	// Arrange
	limiter := &countingLimiter{limit: 2, hits: map[string]int{}}
	h := RateLimit(limiter, "login", nil, logging.NewNop())(okHandler())

	codes := make([]int, 0, 4)
	for _, spoofed := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3", "4.4.4.4"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		req.Header.Set("X-Forwarded-For", spoofed)
		rr := httptest.NewRecorder()

		// Act
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	// Assert
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	assert.Equal(t, map[string]int{"ratelimit:login:203.0.113.7": 4}, limiter.hits)
}

func TestRedisLimiter_Allow(t *testing.T) {
	const key = "ratelimit:login:203.0.113.7"

	tests := []struct {
		name     string
		count    int64
		expected bool
	}{
		{name: "first hit opens the window", count: 1, expected: true},
		{name: "at the limit", count: 2, expected: true},
		{name: "over the limit", count: 3, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			client, redisMock := redismock.NewClientMock()
			redisMock.ExpectTxPipeline()
			redisMock.ExpectIncr(key).SetVal(tt.count)
			redisMock.ExpectExpireNX(key, time.Minute).SetVal(tt.count == 1)
			redisMock.ExpectTxPipelineExec()
			limiter := NewRedisLimiter(client, 2, time.Minute)

			// Act
			allowed, err := limiter.Allow(context.Background(), key)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.expected, allowed)
			assert.NoError(t, redisMock.ExpectationsWereMet())
		})
	}
}

func TestMetrics(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Metrics)
	router.HandleFunc("/api/publications/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	counter := HTTPRequests.WithLabelValues(http.MethodGet, "/api/publications/{id}", "404")
	before := testutil.ToFloat64(counter)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/publications/p1", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), tag("inner"), tag("outer"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestLoggingMiddleware_PassesStatus(t *testing.T) {
	h := LoggingMiddleware(logging.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
}
