package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/hotel-booking/internal/config"
	"github.com/iliyamo/hotel-booking/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, 5)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok.Token
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	e := echo.New()
	g := e.Group("/staff", JWTAuth(secret), RequireRole("STAFF"))
	g.GET("/whoami", func(c echo.Context) error {
		id, _ := CustomerID(c)
		return c.JSON(http.StatusOK, echo.Map{"id": id, "role": Role(c)})
	})

	cases := []struct {
		name   string
		auth   string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"customer", bearer(t, 7, "CUSTOMER"), http.StatusForbidden},
		{"staff", bearer(t, 9, "STAFF"), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff/whoami", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status %d, want %d: %s", rec.Code, tc.status, rec.Body.String())
			}
			if tc.status == http.StatusOK && !strings.Contains(rec.Body.String(), `"id":9`) {
				t.Fatalf("customer id not propagated: %s", rec.Body.String())
			}
		})
	}
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: 5 * time.Hour, KeyStrategy: "ip", Prefix: "rl",
	}
	e := echo.New()
	e.GET("/hotels", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, NewTokenBucket(cfg, rdb, nil))

	var codes []int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hotels", nil))
		codes = append(codes, rec.Code)
		if i == 2 && rec.Header().Get("Retry-After") == "" {
			t.Fatal("missing Retry-After on blocked request")
		}
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes %v", codes)
	}
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb, log))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
}

func TestRedisCacheHitAndPurge(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1024}
	calls := 0
	e := echo.New()
	e.GET("/hotels/:id", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "calls": calls})
	}, NewRedisCache(cfg, rdb, nil))

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}
	first := get("/hotels/1")
	second := get("/hotels/1")
	if first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("cache headers %q %q", first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}
	if first.Body.String() != second.Body.String() || calls != 1 {
		t.Fatalf("calls=%d bodies %q vs %q", calls, first.Body.String(), second.Body.String())
	}
	if get("/hotels/2"); calls != 2 {
		t.Fatal("different path params must not share a cache entry")
	}

	if err := PurgeCache(context.Background(), cfg, rdb); err != nil {
		t.Fatal(err)
	}
	if rec := get("/hotels/1"); rec.Header().Get("X-Cache") != "MISS" || calls != 3 {
		t.Fatalf("expected miss after purge, calls=%d", calls)
	}
}

func TestRedisCacheSkipsErrorsAndLargeBodies(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 8}
	e := echo.New()
	mw := NewRedisCache(cfg, rdb, nil)
	e.GET("/big", func(c echo.Context) error { return c.String(http.StatusOK, strings.Repeat("x", 64)) }, mw)
	e.GET("/missing", func(c echo.Context) error { return c.JSON(http.StatusNotFound, echo.Map{"error": "nope"}) }, mw)

	for _, p := range []string{"/big", "/missing"} {
		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
			if rec.Header().Get("X-Cache") == "HIT" {
				t.Fatalf("%s must not be cached", p)
			}
		}
	}
}

func TestRequestLogFields(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	e := echo.New()
	e.Use(RequestLog(log))
	e.GET("/hotels", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	tid, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	sid, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid, TraceFlags: trace.FlagsSampled})
	req := httptest.NewRequest(http.MethodGet, "/hotels", nil)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	rid := rec.Header().Get(RequestIDHeader)
	if rid == "" {
		t.Fatal("missing request id header")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log is not JSON: %v (%s)", err, buf.String())
	}
	if entry["trace_id"] != tid.String() || entry["request_id"] != rid || entry["status"] != float64(200) {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestRequestLogKeepsValidIncomingID(t *testing.T) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	e := echo.New()
	e.Use(RequestLog(log))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	const id = "6f1c1b1e-2f56-4a86-9b67-3a9f0d1f3f0a"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != id {
		t.Fatalf("request id replaced: %s", rec.Header().Get(RequestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\r\n")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got == "" || strings.Contains(got, "not-a-uuid") {
		t.Fatalf("malformed id must be replaced, got %q", got)
	}
}
