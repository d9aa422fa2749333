// Package auth validates access tokens issued by the account service and guards routes by role
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the caller's role carried in the access token
type Role string

const (
	RoleMember Role = "member"
	RoleMentor Role = "mentor"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the validated payload of an access token
type Claims struct {
	UserID primitive.ObjectID
	Role   Role
}

// TokenGenerator handles JWT access token generation and validation
type TokenGenerator struct {
	secret            string
	accessTokenExpiry time.Duration
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, accessExpiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret:            secret,
		accessTokenExpiry: accessExpiry,
	}
}

// GenerateAccessToken creates an access token with user_id and role in payload
func (tg *TokenGenerator) GenerateAccessToken(userID primitive.ObjectID, role Role) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID.Hex(),
		"role":    string(role),
		"exp":     now.Add(tg.accessTokenExpiry).Unix(),
		"iat":     now.Unix(),
		"type":    "access",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tg.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (tg *TokenGenerator) ValidateAccessToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tg.secret), nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return Claims{}, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: user_id is malformed", ErrInvalidToken)
	}

	role := Role(fmt.Sprint(claims["role"]))
	if role != RoleMember && role != RoleMentor {
		return Claims{}, fmt.Errorf("%w: unknown role", ErrInvalidToken)
	}

	return Claims{UserID: userID, Role: role}, nil
}
