package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

var ErrWrongTokenType = errors.New("wrong token type")

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	AccessTokenExpiresAt  int64  `json:"access_token_expires_at"`
	RefreshTokenExpiresAt int64  `json:"refresh_token_expires_at"`
}

// TokenSettings carries the signing secret and lifetimes of issued tokens.
type TokenSettings struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func generateToken(userID uint, email, role string, typ TokenType, ttl time.Duration, secret string) (string, time.Time, error) {
	now := time.Now()
	expirationTime := now.Add(ttl)

	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   string(typ),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   email,
		},
	}
	// refresh tokens are stored with a unique index, two issued in the same second must differ
	if typ == RefreshToken {
		id, err := GenerateRandomString(16)
		if err != nil {
			return "", time.Time{}, err
		}
		claims.ID = id
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expirationTime, nil
}

// GenerateTokenPair issues a short-lived access token and a long-lived refresh token.
func GenerateTokenPair(userID uint, email, role string, settings TokenSettings) (*TokenPair, error) {
	accessToken, accessExp, err := generateToken(userID, email, role, AccessToken, settings.AccessTTL, settings.Secret)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExp, err := generateToken(userID, email, role, RefreshToken, settings.RefreshTTL, settings.Secret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  accessExp.Unix(),
		RefreshTokenExpiresAt: refreshExp.Unix(),
	}, nil
}

// ParseToken validates tokenString and requires it to be of the given type, so
// a refresh token cannot be replayed as an access token and vice versa.
func ParseToken(tokenString, secret string, typ TokenType) (*Claims, error) {
	claims, err := ValidateToken(tokenString, secret)
	if err != nil {
		return nil, err
	}
	if claims.Type != string(typ) {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// ValidateToken checks signature and expiry and returns the claims.
func ValidateToken(tokenString, jwtSecret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// Generate random string for additional security
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
