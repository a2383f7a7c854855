package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bivex/stripe-gateway/internal/infrastructure/logging"
)

// JWTClaims represents the JWT claims structure
type JWTClaims struct {
	UserID string `json:"sub"`
	JTI    string `json:"jti"` // JWT ID for revocation
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTMiddleware handles JWT validation and revocation checking
type JWTMiddleware struct {
	secret          []byte
	cache           *redis.Client
	accessTTL       time.Duration
	blocklistPrefix string
	logger          *zap.Logger
}

// NewJWTMiddleware creates a new JWT middleware
func NewJWTMiddleware(secret string, redisClient *redis.Client, accessTTL time.Duration) *JWTMiddleware {
	return &JWTMiddleware{
		secret:          []byte(secret),
		cache:           redisClient,
		accessTTL:       accessTTL,
		blocklistPrefix: "jwt:blocked:",
		logger:          logging.Logger,
	}
}

// Authenticate validates the JWT token and sets user context
func (j *JWTMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "Missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return j.secret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "Invalid token"})
			c.Abort()
			return
		}

		// Check if token is revoked
		ctx := c.Request.Context()
		blocklisted, err := j.cache.Get(ctx, j.blocklistPrefix+claims.JTI).Result()
		if err != nil && err != redis.Nil {
			j.logger.Error("failed to check token blocklist", zap.Error(err))
			// Fail closed for security
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "SERVICE_UNAVAILABLE", "message": "Token validation unavailable"})
			c.Abort()
			return
		}
		if blocklisted != "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "TOKEN_REVOKED", "message": "Token has been revoked"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("jti", claims.JTI)
		if claims.Role != "" {
			c.Set("role", claims.Role)
		}

		c.Next()
	}
}

// AuthenticateOptional validates the JWT when one is presented and lets
// anonymous requests through as guests. A presented-but-invalid token is
// still rejected.
func (j *JWTMiddleware) AuthenticateOptional() gin.HandlerFunc {
	required := j.Authenticate()
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		required(c)
	}
}

// GenerateAccessToken creates a new access token
func (j *JWTMiddleware) GenerateAccessToken(userID, role string) (string, string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := &JWTClaims{
		UserID: userID,
		JTI:    jti,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
			Issuer:    "stripe-gateway",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", "", err
	}

	return tokenString, jti, nil
}

// RevokeToken adds a token's JTI to the blocklist until its natural expiry
func (j *JWTMiddleware) RevokeToken(c *gin.Context, jti string) error {
	return j.cache.Set(c.Request.Context(), j.blocklistPrefix+jti, "revoked", j.accessTTL).Err()
}
