package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lingqian-next/internal/constants"
	"github.com/lingqian-next/internal/models"

	"github.com/stretchr/testify/require"
)

func TestListClaimableFiltersAndAnnotates(t *testing.T) {
	env := setupCouponTestEnv(t, CouponRedemptionOptions{})
	now := time.Now().UTC()
	from, until := openWindow(now)

	open := seedCoupon(t, env.db, couponSeed{Code: "OPEN", Value: "5", Supply: 10, Claimed: 3, From: from, Until: until})
	taken := seedCoupon(t, env.db, couponSeed{Code: "TAKEN", Value: "5", Supply: 10, From: from, Until: until})
	seedCoupon(t, env.db, couponSeed{Code: "SOON", Value: "5", Supply: 10, From: now.Add(time.Hour), Until: until})
	seedCoupon(t, env.db, couponSeed{Code: "FULL", Value: "5", Supply: 2, Claimed: 2, From: from, Until: until})
	seedCoupon(t, env.db, couponSeed{Code: "OFF", Value: "5", Supply: 10, From: from, Until: until, Status: constants.CouponStatusInactive})

	_, err := env.redemption.Claim(context.Background(), 5, taken.ID, now)
	require.NoError(t, err)

	anonymous, err := env.eligibility.ListClaimable(context.Background(), now, 0)
	require.NoError(t, err)
	require.Len(t, anonymous, 2)
	for _, item := range anonymous {
		require.False(t, item.AlreadyClaimed)
	}

	mine, err := env.eligibility.ListClaimable(context.Background(), now, 5)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	byCode := map[string]ClaimableCoupon{}
	for _, item := range mine {
		byCode[item.Coupon.Code] = item
	}
	require.Equal(t, 7, byCode["OPEN"].RemainingSupply)
	require.False(t, byCode["OPEN"].AlreadyClaimed)
	require.Equal(t, 9, byCode["TAKEN"].RemainingSupply)
	require.True(t, byCode["TAKEN"].AlreadyClaimed)
	require.Equal(t, open.ID, byCode["OPEN"].Coupon.ID)
}

func TestListClaimableThroughCatalogCache(t *testing.T) {
	db := setupCouponTestDB(t)
	couponRepo, grantRepo := newRepos(db)
	store := &memoryCatalogStore{}
	catalog := NewCouponCatalogCache(couponRepo, store, time.Minute, nil)
	eligibility := NewCouponEligibilityService(couponRepo, grantRepo, catalog)
	redemption := NewCouponRedemptionService(couponRepo, grantRepo, CouponRedemptionOptions{Catalog: catalog})

	now := time.Now().UTC()
	from, until := openWindow(now)
	coupon := seedCoupon(t, db, couponSeed{Code: "CACHED", Value: "5", Supply: 1, From: from, Until: until, Categories: []string{constants.CategoryTarot}})
	seedCoupon(t, db, couponSeed{Code: "LATER", Value: "5", Supply: 1, From: now.Add(time.Hour), Until: until})

	first, err := eligibility.ListClaimable(context.Background(), now, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, store.sets)

	// 快照包含尚未开始的优惠券，到点后无需回源即可出现
	later, err := eligibility.ListClaimable(context.Background(), now.Add(2*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, later, 2)
	require.Equal(t, 1, store.sets)

	categories, err := first[0].Coupon.Categories()
	require.NoError(t, err)
	require.Equal(t, []string{constants.CategoryTarot}, categories)

	_, err = redemption.Claim(context.Background(), 9, coupon.ID, now)
	require.NoError(t, err)
	require.Equal(t, 1, store.invalidates)

	after, err := eligibility.ListClaimable(context.Background(), now, 0)
	require.NoError(t, err)
	require.Empty(t, after, "sold out coupon disappears after invalidation")
	require.Equal(t, 2, store.sets)
}

func TestListClaimableDropsSnapshotLoadedBeforeClaim(t *testing.T) {
	db := setupCouponTestDB(t)
	couponRepo, grantRepo := newRepos(db)
	store := &memoryCatalogStore{}
	catalog := NewCouponCatalogCache(couponRepo, store, time.Minute, nil)
	eligibility := NewCouponEligibilityService(couponRepo, grantRepo, catalog)
	redemption := NewCouponRedemptionService(couponRepo, grantRepo, CouponRedemptionOptions{Catalog: catalog})

	now := time.Now().UTC()
	from, until := openWindow(now)
	coupon := seedCoupon(t, db, couponSeed{Code: "ONE", Value: "5", Supply: 1, From: from, Until: until})

	// 第一次加载读库后停在写快照之前
	loaded := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.beforeSet = func() {
		once.Do(func() {
			close(loaded)
			<-release
		})
	}

	type listResult struct {
		items []ClaimableCoupon
		err   error
	}
	inflight := make(chan listResult, 1)
	go func() {
		items, err := eligibility.ListClaimable(context.Background(), now, 0)
		inflight <- listResult{items: items, err: err}
	}()
	<-loaded

	_, err := redemption.Claim(context.Background(), 1, coupon.ID, now)
	require.NoError(t, err)
	close(release)

	stale := <-inflight
	require.NoError(t, stale.err)
	require.Len(t, stale.items, 1, "the in-flight read saw the coupon before the claim")
	require.Equal(t, 1, store.skipped, "snapshot loaded before invalidation must not be stored")

	after, err := eligibility.ListClaimable(context.Background(), now, 0)
	require.NoError(t, err)
	require.Empty(t, after, "sold out coupon must not be served from a stale snapshot")

	require.NoError(t, catalog.Refresh(context.Background()))
	snapshot, hit, err := store.Get(context.Background())
	require.NoError(t, err)
	require.True(t, hit)
	require.Empty(t, snapshot.Coupons)
}

func TestListUsableAppliesEligibilityAndSorts(t *testing.T) {
	env := setupCouponTestEnv(t, CouponRedemptionOptions{})
	now := time.Now().UTC()
	from, until := openWindow(now)

	small := seedCoupon(t, env.db, couponSeed{Code: "SMALL", Value: "5", Supply: 5, From: from, Until: until})
	pct := seedCoupon(t, env.db, couponSeed{Code: "PCT20", Type: models.DiscountTypePercentage, Value: "20", Max: "15", Supply: 5, From: from, Until: until})
	tie := seedCoupon(t, env.db, couponSeed{Code: "FIX15", Value: "15", Supply: 5, From: from, Until: until})
	floor := seedCoupon(t, env.db, couponSeed{Code: "MIN200", Value: "50", Min: "200", Supply: 5, From: from, Until: until})
	bazi := seedCoupon(t, env.db, couponSeed{Code: "BAZI", Value: "30", Supply: 5, From: from, Until: until, Categories: []string{constants.CategoryBazi}})

	for _, coupon := range []*models.Coupon{small, pct, tie, floor, bazi} {
		_, err := env.redemption.Claim(context.Background(), 3, coupon.ID, now)
		require.NoError(t, err)
	}

	usable, err := env.eligibility.ListUsable(context.Background(), UsableQuery{
		UserID:      3,
		OrderAmount: models.MustMoney("100"),
		Category:    " Tarot ",
		Now:         now,
	})
	require.NoError(t, err)
	codes := make([]string, 0, len(usable))
	for _, item := range usable {
		codes = append(codes, item.Grant.Coupon.Code)
	}
	// PCT20 与 FIX15 优惠相同，保持领取顺序
	require.Equal(t, []string{"PCT20", "FIX15", "SMALL"}, codes)
	require.Equal(t, "15.00", usable[0].Discount.String())
	require.Equal(t, "5.00", usable[2].Discount.String())

	withoutCategory, err := env.eligibility.ListUsable(context.Background(), UsableQuery{
		UserID:      3,
		OrderAmount: models.MustMoney("250"),
		Now:         now,
	})
	require.NoError(t, err)
	require.Len(t, withoutCategory, 5)
	require.Equal(t, "MIN200", withoutCategory[0].Grant.Coupon.Code)
}

func TestListUsableRejectsNonPositiveAmount(t *testing.T) {
	env := setupCouponTestEnv(t, CouponRedemptionOptions{})
	for _, amount := range []string{"0", "-10"} {
		_, err := env.eligibility.ListUsable(context.Background(), UsableQuery{
			UserID:      1,
			OrderAmount: models.MustMoney(amount),
			Now:         time.Now(),
		})
		require.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestQuoteGrantReportsNotUsable(t *testing.T) {
	env := setupCouponTestEnv(t, CouponRedemptionOptions{})
	now := time.Now().UTC()
	from, until := openWindow(now)
	coupon := seedCoupon(t, env.db, couponSeed{Code: "MIN50", Value: "10", Min: "50", Supply: 5, From: from, Until: until, Categories: []string{constants.CategoryAstrology}})
	grant, err := env.redemption.Claim(context.Background(), 4, coupon.ID, now)
	require.NoError(t, err)

	_, err = env.eligibility.QuoteGrant(context.Background(), grant.ID, UsableQuery{UserID: 4, OrderAmount: models.MustMoney("30"), Now: now})
	require.ErrorIs(t, err, ErrCouponNotUsable)

	_, err = env.eligibility.QuoteGrant(context.Background(), grant.ID, UsableQuery{UserID: 4, OrderAmount: models.MustMoney("80"), Category: constants.CategoryTarot, Now: now})
	require.ErrorIs(t, err, ErrCouponNotUsable)

	_, err = env.eligibility.QuoteGrant(context.Background(), grant.ID, UsableQuery{UserID: 5, OrderAmount: models.MustMoney("80"), Now: now})
	require.ErrorIs(t, err, ErrUserCouponNotFound)

	_, err = env.eligibility.QuoteGrant(context.Background(), grant.ID, UsableQuery{UserID: 4, OrderAmount: models.MustMoney("80"), Now: until.Add(time.Second)})
	require.ErrorIs(t, err, ErrUserCouponExpired)

	quote, err := env.eligibility.QuoteGrant(context.Background(), grant.ID, UsableQuery{UserID: 4, OrderAmount: models.MustMoney("80"), Category: constants.CategoryAstrology, Now: now})
	require.NoError(t, err)
	require.Equal(t, "10.00", quote.Discount.String())
}

func TestListUserCouponsShowsDerivedExpiry(t *testing.T) {
	env := setupCouponTestEnv(t, CouponRedemptionOptions{})
	now := time.Now().UTC()
	from, until := openWindow(now)
	live := seedCoupon(t, env.db, couponSeed{Code: "LIVE", Value: "5", Supply: 5, From: from, Until: until})
	short := seedCoupon(t, env.db, couponSeed{Code: "SHORT", Value: "5", Supply: 5, From: from, Until: now.Add(time.Minute)})

	for _, coupon := range []*models.Coupon{live, short} {
		_, err := env.redemption.Claim(context.Background(), 6, coupon.ID, now)
		require.NoError(t, err)
	}

	later := now.Add(time.Hour)
	all, total, err := env.eligibility.ListUserCoupons(context.Background(), UserCouponQuery{UserID: 6, Page: 1, PageSize: 10, Now: later})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	statuses := map[string]string{}
	for _, grant := range all {
		statuses[grant.Coupon.Code] = grant.Status
	}
	require.Equal(t, constants.UserCouponStatusUnused, statuses["LIVE"])
	require.Equal(t, constants.UserCouponStatusExpired, statuses["SHORT"])

	expired, total, err := env.eligibility.ListUserCoupons(context.Background(), UserCouponQuery{UserID: 6, Status: constants.UserCouponStatusExpired, Now: later})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "SHORT", expired[0].Coupon.Code)

	// 展示派生状态不写库
	var stored models.UserCoupon
	require.NoError(t, env.db.Where("user_id = ? AND coupon_id = ?", 6, short.ID).First(&stored).Error)
	require.Equal(t, constants.UserCouponStatusUnused, stored.Status)
}
