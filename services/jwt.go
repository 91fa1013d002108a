package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"github.com/lac-hong-legacy/devscope/cache"
	"github.com/lac-hong-legacy/devscope/middleware"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// IdentityService resolves bearer tokens to user ids. Successful
// verifications are cached per token for at most the configured TTL and
// never past the token's own expiry.
type IdentityService struct {
	appContext.DefaultService

	AccessTokenDuration time.Duration
	jwtSecretKey        string
	cacheTTL            time.Duration
	cache               cache.Cache
}

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

const IDENTITY_SVC = "identity_svc"

const identityCachePrefix = "identity:"

func NewIdentityService(secret string, c cache.Cache, ttl time.Duration) *IdentityService {
	return &IdentityService{
		AccessTokenDuration: 24 * time.Hour,
		jwtSecretKey:        secret,
		cacheTTL:            ttl,
		cache:               c,
	}
}

func (svc IdentityService) Id() string {
	return IDENTITY_SVC
}

func (svc *IdentityService) Configure(ctx *appContext.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()
	svc.AccessTokenDuration = 24 * time.Hour
	svc.jwtSecretKey = cfg.JWTSecret
	svc.cacheTTL = cfg.IdentityCacheTTL
	return svc.DefaultService.Configure(ctx)
}

func (svc *IdentityService) Start() error {
	if svc.cache == nil {
		if redisSvc, ok := svc.Service(REDIS_SVC).(*RedisService); ok && redisSvc.GetClient() != nil {
			svc.cache = cache.NewRedisCache(redisSvc.GetClient(), identityCachePrefix)
		} else {
			svc.cache = cache.NewMemoryCache()
		}
	}
	if svc.jwtSecretKey == "" {
		log.Warn("JWT_SECRET is empty, every bearer token will be rejected")
	}
	return nil
}

// Resolve returns the user id behind token, consulting the cache first.
// Cache failures fall through to verification.
func (svc *IdentityService) Resolve(ctx context.Context, token string) (string, error) {
	key := tokenKey(token)

	if svc.cache != nil {
		userID, ok, err := svc.cache.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("Identity cache lookup failed")
		} else if ok {
			return userID, nil
		}
	}

	claims, err := svc.VerifyJWTToken(token)
	if err != nil {
		return "", err
	}

	if svc.cache != nil && svc.cacheTTL > 0 {
		ttl := svc.cacheTTL
		if claims.ExpiresAt != nil {
			if untilExpiry := time.Until(claims.ExpiresAt.Time); untilExpiry < ttl {
				ttl = untilExpiry
			}
		}
		if err := svc.cache.Set(ctx, key, claims.UserID, ttl); err != nil {
			log.WithError(err).Warn("Identity cache write failed")
		}
	}
	return claims.UserID, nil
}

func (svc *IdentityService) VerifyJWTToken(jwtToken string) (*CustomClaims, error) {
	if svc.jwtSecretKey == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(jwtToken, &CustomClaims{}, svc.getJWTKey, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || claims == nil || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (svc *IdentityService) getJWTKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	return []byte(svc.jwtSecretKey), nil
}

// ToJWT issues an access token for userID.
func (svc *IdentityService) ToJWT(userID string) (string, error) {
	now := time.Now()

	claims := &CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(svc.AccessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    SERVICE_NAME,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(svc.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}

	return tokenString, nil
}

func (svc *IdentityService) ExtractTokenFromHeader(authHeader string) (string, error) {
	return middleware.BearerToken(authHeader)
}

func tokenKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
