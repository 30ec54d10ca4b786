package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestKeyByUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/coupons/1/claim", nil)
	c.Request.RemoteAddr = "1.2.3.4:5678"

	if key := KeyByUserID(c); key != "ip:1.2.3.4" {
		t.Fatalf("anonymous key want ip:1.2.3.4 got %s", key)
	}
	c.Set(userIDKey, uint(15))
	if key := KeyByUserID(c); key != "user:15" {
		t.Fatalf("user key want user:15 got %s", key)
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("request %d should pass through, got %s", i, w.Body.String())
		}
	}
}

func TestParseRateLimitResult(t *testing.T) {
	allowed, wait, ok := parseRateLimitResult([]interface{}{int64(1), int64(0)})
	if !ok || !allowed || wait != 0 {
		t.Fatalf("allowed result parsed wrong: %v %d %v", allowed, wait, ok)
	}
	allowed, wait, ok = parseRateLimitResult([]interface{}{int64(0), int64(120)})
	if !ok || allowed || wait != 120 {
		t.Fatalf("blocked result parsed wrong: %v %d %v", allowed, wait, ok)
	}
	if _, _, ok := parseRateLimitResult("bad"); ok {
		t.Fatalf("non-slice result should be rejected")
	}
	if _, _, ok := parseRateLimitResult([]interface{}{"x", int64(1)}); ok {
		t.Fatalf("non-numeric flag should be rejected")
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}
