package service

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultUserTokenTTL = 24 * time.Hour

// UserJWTClaims 用户 JWT 声明（与账号服务约定的字段）
type UserJWTClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// IssueUserToken 签发用户令牌。
// 线上由账号服务签发，这里供种子数据与联调使用。
func IssueUserToken(secretKey, issuer string, userID uint, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(secretKey) == "" || userID == 0 {
		return "", time.Time{}, ErrInvalidArgument
	}
	if ttl <= 0 {
		ttl = defaultUserTokenTTL
	}
	expiresAt := now.Add(ttl)
	claims := UserJWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    strings.TrimSpace(issuer),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
