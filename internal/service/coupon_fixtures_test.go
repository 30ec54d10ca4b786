package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lingqian-next/internal/cache"
	"github.com/lingqian-next/internal/constants"
	"github.com/lingqian-next/internal/models"
	"github.com/lingqian-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type couponTestEnv struct {
	db          *gorm.DB
	couponRepo  *repository.GormCouponRepository
	grantRepo   *repository.GormUserCouponRepository
	redemption  *CouponRedemptionService
	eligibility *CouponEligibilityService
}

func setupCouponTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:coupon_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 单连接串行化事务，避免共享内存库的表锁
	sqlDB.SetMaxOpenConns(1)
	if err := models.Migrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func setupCouponTestEnv(t *testing.T, opts CouponRedemptionOptions) *couponTestEnv {
	t.Helper()
	db := setupCouponTestDB(t)
	couponRepo := repository.NewCouponRepository(db)
	grantRepo := repository.NewUserCouponRepository(db)
	return &couponTestEnv{
		db:          db,
		couponRepo:  couponRepo,
		grantRepo:   grantRepo,
		redemption:  NewCouponRedemptionService(couponRepo, grantRepo, opts),
		eligibility: NewCouponEligibilityService(couponRepo, grantRepo, opts.Catalog),
	}
}

type couponSeed struct {
	Code       string
	Type       models.DiscountType
	Value      string
	Min        string
	Max        string
	Supply     int
	Claimed    int
	From       time.Time
	Until      time.Time
	Status     string
	Categories []string
}

func seedCoupon(t *testing.T, db *gorm.DB, seed couponSeed) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		Code:          seed.Code,
		Name:          seed.Code,
		DiscountType:  seed.Type,
		DiscountValue: models.MustMoney(seed.Value),
		TotalSupply:   seed.Supply,
		ClaimedCount:  seed.Claimed,
		ValidFrom:     seed.From,
		ValidUntil:    seed.Until,
		Status:        seed.Status,
	}
	if coupon.DiscountType == models.DiscountTypeUnknown {
		coupon.DiscountType = models.DiscountTypeFixed
	}
	if coupon.Status == "" {
		coupon.Status = constants.CouponStatusActive
	}
	if seed.Min != "" {
		coupon.MinOrderAmount = models.MoneyPtr(models.MustMoney(seed.Min))
	}
	if seed.Max != "" {
		coupon.MaxDiscountAmount = models.MoneyPtr(models.MustMoney(seed.Max))
	}
	if err := coupon.SetCategories(seed.Categories); err != nil {
		t.Fatalf("set categories failed: %v", err)
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon %s failed: %v", seed.Code, err)
	}
	return coupon
}

func reloadCoupon(t *testing.T, db *gorm.DB, id uint) *models.Coupon {
	t.Helper()
	var coupon models.Coupon
	if err := db.First(&coupon, id).Error; err != nil {
		t.Fatalf("reload coupon %d failed: %v", id, err)
	}
	return &coupon
}

func reloadGrant(t *testing.T, db *gorm.DB, id uint) *models.UserCoupon {
	t.Helper()
	var grant models.UserCoupon
	if err := db.First(&grant, id).Error; err != nil {
		t.Fatalf("reload grant %d failed: %v", id, err)
	}
	return &grant
}

func countGrants(t *testing.T, db *gorm.DB, couponID uint) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.UserCoupon{}).Where("coupon_id = ?", couponID).Count(&count).Error; err != nil {
		t.Fatalf("count grants failed: %v", err)
	}
	return count
}

// memoryCatalogStore 内存目录快照存储，beforeSet 可在写入前挂起当前加载
type memoryCatalogStore struct {
	mu          sync.Mutex
	snapshot    *cache.CouponCatalogSnapshot
	generation  int64
	sets        int
	skipped     int
	invalidates int
	beforeSet   func()
}

func (m *memoryCatalogStore) Get(_ context.Context) (*cache.CouponCatalogSnapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return nil, false, nil
	}
	return m.snapshot, true, nil
}

func (m *memoryCatalogStore) Generation(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation, nil
}

func (m *memoryCatalogStore) SetIfGeneration(_ context.Context, snapshot *cache.CouponCatalogSnapshot, _ time.Duration, generation int64) (bool, error) {
	m.mu.Lock()
	hook := m.beforeSet
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != m.generation {
		m.skipped++
		return false, nil
	}
	snapshot.Generation = generation
	m.snapshot = snapshot
	m.sets++
	return true, nil
}

func (m *memoryCatalogStore) Invalidate(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.snapshot = nil
	m.invalidates++
	return nil
}

type recordingRefresher struct {
	mu        sync.Mutex
	couponIDs []uint
}

func (r *recordingRefresher) EnqueueCouponCatalogRefresh(_ context.Context, couponID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.couponIDs = append(r.couponIDs, couponID)
	return nil
}

func newRepos(db *gorm.DB) (*repository.GormCouponRepository, *repository.GormUserCouponRepository) {
	return repository.NewCouponRepository(db), repository.NewUserCouponRepository(db)
}
