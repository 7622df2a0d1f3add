package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"cryptostock/internal/config"
	apperrors "cryptostock/internal/errors"
)

const (
	// EmailKey and TokenKey are the gin context keys set by AuthMiddleware.
	EmailKey = "email"
	TokenKey = "token"

	accessTokenExpiry = 15 * time.Minute
	tokenQueryParam   = "access_token"
)

// getJWTKey returns the JWT key from configuration
func getJWTKey() []byte {
	return []byte(config.Get().JWTSecret)
}

// JWTClaims represents the claims in the JWT. Tokens are issued by the
// identity service; the email claim names the ledger user.
type JWTClaims struct {
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// GenerateAccessToken generates a short-lived JWT access token for a user.
// The servers only verify tokens; this is used by tests and local tooling.
func GenerateAccessToken(email string) (string, error) {
	claims := &JWTClaims{
		Email:     email,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "cryptostock",
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTKey())
}

// ValidateAccessToken parses and validates an access token.
func ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTKey(), nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType == "refresh" {
		return nil, fmt.Errorf("refresh token used as access token")
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("token has no email claim")
	}

	return claims, nil
}

// AuthMiddleware verifies the bearer token and sets the user's email and raw
// token in the context. Browsers cannot set headers on websocket upgrades, so
// the token is also accepted as the access_token query parameter.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			abortWithError(c, err.(*apperrors.AppError))
			return
		}

		claims, err := ValidateAccessToken(tokenString)
		if err != nil {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired token"))
			return
		}

		c.Set(EmailKey, claims.Email)
		c.Set(TokenKey, tokenString)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query(tokenQueryParam); token != "" {
			return token, nil
		}
		return "", apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format")
	}
	return parts[1], nil
}

func abortWithError(c *gin.Context, appErr *apperrors.AppError) {
	c.Abort()
	WriteError(c, appErr)
}
