package router

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lingqian-next/internal/config"
	"github.com/lingqian-next/internal/constants"
	"github.com/lingqian-next/internal/models"
	"github.com/lingqian-next/internal/provider"
	"github.com/lingqian-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type apiEnvelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type routerTestEnv struct {
	db     *gorm.DB
	engine *gin.Engine
	now    time.Time
}

func setupRouterTestEnv(t *testing.T) *routerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.Migrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := &config.Config{
		UserJWT: config.JWTConfig{SecretKey: testJWTSecret},
		Coupon:  config.CouponConfig{ClaimRetryOnSerialization: true},
	}
	container := provider.Build(cfg, db, provider.Dependencies{
		Registry: prometheus.NewRegistry(),
		Clock:    func() time.Time { return now },
	})
	return &routerTestEnv{
		db:     db,
		engine: setupRouter(cfg, container, nil),
		now:    now,
	}
}

func (e *routerTestEnv) seedCoupon(t *testing.T, code string, supply int, value string) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		Code:          code,
		Name:          code,
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: models.MustMoney(value),
		TotalSupply:   supply,
		ValidFrom:     e.now.Add(-time.Hour),
		ValidUntil:    e.now.Add(24 * time.Hour),
		Status:        constants.CouponStatusActive,
	}
	if err := e.db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return coupon
}

func (e *routerTestEnv) do(t *testing.T, method, path string, userID uint, body string) apiEnvelope {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Accept-Language", "en-US")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		token, _, err := service.IssueUserToken(testJWTSecret, "", userID, time.Hour, time.Now())
		if err != nil {
			t.Fatalf("issue token failed: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s http status want 200 got %d", method, path, w.Code)
	}
	var resp apiEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestCouponRoutesClaimAndConsume(t *testing.T) {
	env := setupRouterTestEnv(t)
	coupon := env.seedCoupon(t, "TAROT10", 1, "10")

	resp := env.do(t, http.MethodGet, "/api/v1/public/coupons", 0, "")
	if resp.StatusCode != 0 {
		t.Fatalf("public list failed: %+v", resp)
	}
	var catalog []service.ClaimableCoupon
	if err := json.Unmarshal(resp.Data, &catalog); err != nil {
		t.Fatalf("decode catalog failed: %v", err)
	}
	if len(catalog) != 1 || catalog[0].Coupon.ID != coupon.ID || catalog[0].RemainingSupply != 1 {
		t.Fatalf("unexpected catalog: %+v", catalog)
	}

	claimPath := fmt.Sprintf("/api/v1/coupons/%d/claim", coupon.ID)
	resp = env.do(t, http.MethodPost, claimPath, 1, "")
	if resp.StatusCode != 0 {
		t.Fatalf("claim failed: %+v", resp)
	}
	var claimed struct {
		Grant models.UserCoupon `json:"grant"`
	}
	if err := json.Unmarshal(resp.Data, &claimed); err != nil {
		t.Fatalf("decode grant failed: %v", err)
	}
	if claimed.Grant.ID == 0 || claimed.Grant.Status != constants.UserCouponStatusUnused {
		t.Fatalf("unexpected grant: %+v", claimed.Grant)
	}

	resp = env.do(t, http.MethodPost, claimPath, 2, "")
	if resp.StatusCode != 409 || resp.Msg != "Coupon is fully claimed" {
		t.Fatalf("second user should see exhausted, got %+v", resp)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/me/coupons/usable?order_amount=100", 1, "")
	if resp.StatusCode != 0 {
		t.Fatalf("list usable failed: %+v", resp)
	}
	var usable []struct {
		Grant    models.UserCoupon `json:"grant"`
		Discount string            `json:"discount"`
	}
	if err := json.Unmarshal(resp.Data, &usable); err != nil {
		t.Fatalf("decode usable failed: %v", err)
	}
	if len(usable) != 1 || usable[0].Discount != "10.00" {
		t.Fatalf("unexpected usable list: %+v", usable)
	}

	quotePath := fmt.Sprintf("/api/v1/me/coupons/%d/quote?order_amount=6", claimed.Grant.ID)
	resp = env.do(t, http.MethodGet, quotePath, 1, "")
	if resp.StatusCode != 0 || !strings.Contains(string(resp.Data), `"discount":"6.00"`) {
		t.Fatalf("quote should cap discount at order amount, got %+v data=%s", resp, resp.Data)
	}

	consumePath := fmt.Sprintf("/api/v1/me/coupons/%d/consume", claimed.Grant.ID)
	resp = env.do(t, http.MethodPost, consumePath, 2, `{"order_id": 77}`)
	if resp.StatusCode != 404 {
		t.Fatalf("other user consume should be not found, got %+v", resp)
	}
	resp = env.do(t, http.MethodPost, consumePath, 1, `{"order_id": 77}`)
	if resp.StatusCode != 0 {
		t.Fatalf("consume failed: %+v", resp)
	}
	resp = env.do(t, http.MethodPost, consumePath, 1, `{"order_id": 78}`)
	if resp.StatusCode != 400 || resp.Msg != "Coupon cannot be used for this order" {
		t.Fatalf("second consume should be not usable, got %+v", resp)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/me/coupons?status=used", 1, "")
	if resp.StatusCode != 0 || !strings.Contains(string(resp.Data), `"status":"used"`) {
		t.Fatalf("my coupons should list the used grant, got %+v data=%s", resp, resp.Data)
	}
}

func TestCouponRoutesErrorMapping(t *testing.T) {
	env := setupRouterTestEnv(t)
	coupon := env.seedCoupon(t, "BAZI5", 5, "5")

	cases := []struct {
		name   string
		method string
		path   string
		userID uint
		body   string
		code   int
		msg    string
	}{
		{name: "claim without token", method: http.MethodPost, path: fmt.Sprintf("/api/v1/coupons/%d/claim", coupon.ID), code: 401},
		{name: "claim missing coupon", method: http.MethodPost, path: "/api/v1/coupons/999/claim", userID: 1, code: 404, msg: "Coupon not found"},
		{name: "claim bad id", method: http.MethodPost, path: "/api/v1/coupons/abc/claim", userID: 1, code: 400, msg: "Invalid coupon id"},
		{name: "usable bad amount", method: http.MethodGet, path: "/api/v1/me/coupons/usable?order_amount=abc", userID: 1, code: 400, msg: "Invalid order amount"},
		{name: "usable zero amount", method: http.MethodGet, path: "/api/v1/me/coupons/usable?order_amount=0", userID: 1, code: 400, msg: "Invalid argument"},
		{name: "consume missing body", method: http.MethodPost, path: "/api/v1/me/coupons/1/consume", userID: 1, code: 400, msg: "Invalid order id"},
		{name: "consume unknown grant", method: http.MethodPost, path: "/api/v1/me/coupons/555/consume", userID: 1, body: `{"order_id": 1}`, code: 404, msg: "Claimed coupon not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.do(t, tc.method, tc.path, tc.userID, tc.body)
			if resp.StatusCode != tc.code {
				t.Fatalf("status_code want %d got %d (%s)", tc.code, resp.StatusCode, resp.Msg)
			}
			if tc.msg != "" && resp.Msg != tc.msg {
				t.Fatalf("msg want %q got %q", tc.msg, resp.Msg)
			}
		})
	}

	claimPath := fmt.Sprintf("/api/v1/coupons/%d/claim", coupon.ID)
	if resp := env.do(t, http.MethodPost, claimPath, 3, ""); resp.StatusCode != 0 {
		t.Fatalf("first claim failed: %+v", resp)
	}
	resp := env.do(t, http.MethodPost, claimPath, 3, "")
	if resp.StatusCode != 409 || resp.Msg != "You have already claimed this coupon" {
		t.Fatalf("repeat claim should be already claimed, got %+v", resp)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/coupons/claimable", 3, "")
	if resp.StatusCode != 0 || !strings.Contains(string(resp.Data), `"already_claimed":true`) {
		t.Fatalf("claimable list should mark claimed coupon, got %+v data=%s", resp, resp.Data)
	}
}

func TestMetricsAndHealthRoutes(t *testing.T) {
	env := setupRouterTestEnv(t)
	coupon := env.seedCoupon(t, "ASTRO8", 3, "8")
	env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/coupons/%d/claim", coupon.ID), 1, "")

	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `lingqian_coupon_claims_total{result="success"} 1`) {
		t.Fatalf("metrics should expose claim counter, got:\n%s", w.Body.String())
	}

	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health check failed: %d %s", w.Code, w.Body.String())
	}
}
