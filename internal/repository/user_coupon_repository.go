package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lingqian-next/internal/constants"
	"github.com/lingqian-next/internal/models"

	"gorm.io/gorm"
)

// UserCouponRepository 用户优惠券数据访问接口
type UserCouponRepository interface {
	Create(grant *models.UserCoupon) error
	GetByID(id uint) (*models.UserCoupon, error)
	GetByUserAndCoupon(userID, couponID uint) (*models.UserCoupon, error)
	ListUsableByUser(userID uint, now time.Time) ([]models.UserCoupon, error)
	ListClaimedCouponIDs(userID uint, couponIDs []uint) (map[uint]struct{}, error)
	List(filter UserCouponListFilter) ([]models.UserCoupon, int64, error)
	MarkUsed(id, userID, orderID uint, now time.Time) (bool, error)
	MarkExpired(id uint, now time.Time) (bool, error)
	WithTx(tx *gorm.DB) *GormUserCouponRepository
	WithContext(ctx context.Context) *GormUserCouponRepository
}

// GormUserCouponRepository GORM 实现
type GormUserCouponRepository struct {
	db *gorm.DB
}

// NewUserCouponRepository 创建用户优惠券仓库
func NewUserCouponRepository(db *gorm.DB) *GormUserCouponRepository {
	return &GormUserCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserCouponRepository) WithTx(tx *gorm.DB) *GormUserCouponRepository {
	if tx == nil {
		return r
	}
	return &GormUserCouponRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormUserCouponRepository) WithContext(ctx context.Context) *GormUserCouponRepository {
	if ctx == nil {
		return r
	}
	return &GormUserCouponRepository{db: r.db.WithContext(ctx)}
}

// Create 创建领取记录，(user_id, coupon_id) 唯一约束冲突时返回 gorm.ErrDuplicatedKey
func (r *GormUserCouponRepository) Create(grant *models.UserCoupon) error {
	return r.db.Omit("Coupon").Create(grant).Error
}

// GetByID 根据ID获取领取记录（含优惠券定义）
func (r *GormUserCouponRepository) GetByID(id uint) (*models.UserCoupon, error) {
	if id == 0 {
		return nil, nil
	}
	var grant models.UserCoupon
	if err := r.db.Preload("Coupon", unscopedCoupon).First(&grant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}

// GetByUserAndCoupon 获取用户对某优惠券的领取记录
func (r *GormUserCouponRepository) GetByUserAndCoupon(userID, couponID uint) (*models.UserCoupon, error) {
	var grant models.UserCoupon
	if err := r.db.Where("user_id = ? AND coupon_id = ?", userID, couponID).First(&grant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}

// ListUsableByUser 获取用户未使用且未过期的领取记录
func (r *GormUserCouponRepository) ListUsableByUser(userID uint, now time.Time) ([]models.UserCoupon, error) {
	var grants []models.UserCoupon
	if err := r.db.Preload("Coupon", unscopedCoupon).
		Where("user_id = ? AND status = ?", userID, constants.UserCouponStatusUnused).
		Where("expires_at >= ?", now.UTC()).
		Order("id asc").
		Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

// ListClaimedCouponIDs 批量查询用户已领取的优惠券ID
func (r *GormUserCouponRepository) ListClaimedCouponIDs(userID uint, couponIDs []uint) (map[uint]struct{}, error) {
	result := make(map[uint]struct{}, len(couponIDs))
	if userID == 0 || len(couponIDs) == 0 {
		return result, nil
	}
	var ids []uint
	if err := r.db.Model(&models.UserCoupon{}).
		Where("user_id = ? AND coupon_id IN ?", userID, couponIDs).
		Pluck("coupon_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = struct{}{}
	}
	return result, nil
}

// List 获取用户领取记录列表
func (r *GormUserCouponRepository) List(filter UserCouponListFilter) ([]models.UserCoupon, int64, error) {
	query := r.db.Model(&models.UserCoupon{})
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.CouponID > 0 {
		query = query.Where("coupon_id = ?", filter.CouponID)
	}
	if status := strings.ToLower(strings.TrimSpace(filter.Status)); status != "" {
		now := filter.Now.UTC()
		if filter.Now.IsZero() {
			now = time.Now().UTC()
		}
		switch status {
		case constants.UserCouponStatusExpired:
			query = query.Where("status = ? OR (status = ? AND expires_at < ?)",
				constants.UserCouponStatusExpired, constants.UserCouponStatusUnused, now)
		case constants.UserCouponStatusUnused:
			query = query.Where("status = ? AND expires_at >= ?", constants.UserCouponStatusUnused, now)
		default:
			query = query.Where("status = ?", status)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var grants []models.UserCoupon
	if err := query.Preload("Coupon", unscopedCoupon).Order("id desc").Find(&grants).Error; err != nil {
		return nil, 0, err
	}
	return grants, total, nil
}

// MarkUsed 条件核销：仅当记录属于该用户、未使用且未过期时写入
func (r *GormUserCouponRepository) MarkUsed(id, userID, orderID uint, now time.Time) (bool, error) {
	now = now.UTC()
	result := r.db.Model(&models.UserCoupon{}).
		Where("id = ? AND user_id = ?", id, userID).
		Where("status = ?", constants.UserCouponStatusUnused).
		Where("expires_at >= ?", now).
		Updates(map[string]interface{}{
			"status":     constants.UserCouponStatusUsed,
			"order_id":   orderID,
			"used_at":    now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkExpired 条件过期：仅将已过期的未使用记录置为 expired
func (r *GormUserCouponRepository) MarkExpired(id uint, now time.Time) (bool, error) {
	now = now.UTC()
	result := r.db.Model(&models.UserCoupon{}).
		Where("id = ?", id).
		Where("status = ?", constants.UserCouponStatusUnused).
		Where("expires_at < ?", now).
		Updates(map[string]interface{}{
			"status":     constants.UserCouponStatusExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// unscopedCoupon 预加载时包含已软删除的优惠券，已发放的券保留其优惠条款
func unscopedCoupon(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}
