package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lingqian-next/internal/constants"
	"github.com/lingqian-next/internal/models"

	"gorm.io/gorm"
)

// CouponRepository 优惠券定义数据访问接口
type CouponRepository interface {
	GetByID(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	ListClaimable(now time.Time) ([]models.Coupon, error)
	ListOpen(now time.Time) ([]models.Coupon, error)
	Create(coupon *models.Coupon) error
	IncrementClaimedCount(id uint) (bool, error)
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormCouponRepository
	WithContext(ctx context.Context) *GormCouponRepository
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) *GormCouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormCouponRepository) WithContext(ctx context.Context) *GormCouponRepository {
	if ctx == nil {
		return r
	}
	return &GormCouponRepository{db: r.db.WithContext(ctx)}
}

// Transaction 在事务中执行
func (r *GormCouponRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := r.db
	if ctx != nil {
		db = db.WithContext(ctx)
	}
	return db.Transaction(fn)
}

// GetByID 根据ID获取优惠券
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	if id == 0 {
		return nil, nil
	}
	var coupon models.Coupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByCode 根据优惠码获取优惠券
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// ListClaimable 获取当前可领取的优惠券（启用、在有效期内、仍有余量）
func (r *GormCouponRepository) ListClaimable(now time.Time) ([]models.Coupon, error) {
	now = now.UTC()
	var coupons []models.Coupon
	if err := r.db.Model(&models.Coupon{}).
		Where("status = ?", constants.CouponStatusActive).
		Where("valid_from <= ? AND valid_until >= ?", now, now).
		Where("claimed_count < total_supply").
		Order("id asc").
		Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

// ListOpen 获取尚未结束且仍有余量的启用优惠券（含未开始），供目录缓存使用
func (r *GormCouponRepository) ListOpen(now time.Time) ([]models.Coupon, error) {
	now = now.UTC()
	var coupons []models.Coupon
	if err := r.db.Model(&models.Coupon{}).
		Where("status = ?", constants.CouponStatusActive).
		Where("valid_until >= ?", now).
		Where("claimed_count < total_supply").
		Order("id asc").
		Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

// Create 创建优惠券
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	return r.db.Create(coupon).Error
}

// IncrementClaimedCount 条件自增已领取数量，仅当仍有余量时写入。
// 返回 false 表示写入时余量已耗尽（未修改任何行）。
func (r *GormCouponRepository) IncrementClaimedCount(id uint) (bool, error) {
	result := r.db.Model(&models.Coupon{}).
		Where("id = ?", id).
		Where("claimed_count < total_supply").
		UpdateColumn("claimed_count", gorm.Expr("claimed_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
