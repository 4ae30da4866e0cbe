package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"recipe-discovery/internal/pkg/common"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Verifier 驗證身分憑證並返回使用者 ID
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// JWTVerifier 以 HS256 共享密鑰驗證 JWT
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier 創建 JWT 驗證器
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Verify 驗證 token，失敗一律返回 common.ErrUnauthorized
func (v *JWTVerifier) Verify(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return "", common.ErrUnauthorized.WithMessage("missing authorization token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		common.LogDebug("JWT verification failed", zap.Error(err))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrUnauthorized.WithMessage("token expired").Wrap(err)
		}
		return "", common.ErrUnauthorized.WithMessage("invalid token").Wrap(err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", common.ErrUnauthorized.WithMessage("invalid token")
	}

	userID := claimString(claims, "sub")
	if userID == "" {
		userID = claimString(claims, "user_id")
	}
	if userID == "" {
		return "", common.ErrUnauthorized.WithMessage("invalid token claims")
	}

	return userID, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}

// IssueToken 簽發 HS256 token，供本機開發與測試使用
func IssueToken(secret, userID, issuer string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if issuer != "" {
		claims["iss"] = issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
