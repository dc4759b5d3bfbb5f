package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength HS256 密钥最短长度
const MinSecretLength = 32

// DefaultAccessTokenTTL 访问令牌默认有效期
const DefaultAccessTokenTTL = 24 * time.Hour

const tokenTypeAccess = "access"

var (
	// ErrAuthDisabled 未配置密钥
	ErrAuthDisabled = errors.New("authentication is disabled")
	// ErrInvalidToken 令牌无效或已过期
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenClaims JWT 令牌声明
type TokenClaims struct {
	Subject    string
	BuildingID string
	Type       string
	Exp        int64
	Iat        int64
}

// JWTService 签发和校验访问令牌，密钥为空时认证关闭
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService 创建 JWT 服务
func NewJWTService(secret string, ttl time.Duration) (*JWTService, error) {
	if secret != "" && len(secret) < MinSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d characters long, got %d", MinSecretLength, len(secret))
	}
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &JWTService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Enabled 是否启用认证
func (s *JWTService) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// GenerateAccessToken 为外壳签发访问令牌，buildingID 可为空
func (s *JWTService) GenerateAccessToken(subject, buildingID string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrAuthDisabled
	}
	now := s.now()
	expiry := now.Add(s.ttl)

	claims := jwt.MapClaims{
		"sub":  subject,
		"type": tokenTypeAccess,
		"exp":  expiry.Unix(),
		"iat":  now.Unix(),
	}
	if buildingID != "" {
		claims["building_id"] = buildingID
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiry, nil
}

// ParseToken 校验签名与有效期
func (s *JWTService) ParseToken(tokenString string) (jwt.MapClaims, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractClaims 解析为结构化声明，只接受访问令牌
func (s *JWTService) ExtractClaims(tokenString string) (*TokenClaims, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	tc := &TokenClaims{}
	tc.Subject, _ = claims["sub"].(string)
	tc.BuildingID, _ = claims["building_id"].(string)
	tc.Type, _ = claims["type"].(string)
	if exp, ok := claims["exp"].(float64); ok {
		tc.Exp = int64(exp)
	}
	if iat, ok := claims["iat"].(float64); ok {
		tc.Iat = int64(iat)
	}

	if tc.Type != tokenTypeAccess {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}
	return tc, nil
}
