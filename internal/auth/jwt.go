// Package auth holds what the portal server and its clients agree on about
// credentials: ACL strings, JWT claims and password hashing.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer is the iss claim of every token minted by the API
	Issuer = "sponsor_auburnhacks"

	// TokenTTL is how long the API honours a token it issued
	TokenTTL = 30 * 24 * time.Hour
)

// Roles carried in the role claim
const (
	RoleAdmin   = "admin"
	RoleSponsor = "sponsor"
)

var jwtSecret []byte

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	ACL  string `json:"acl"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Claim returns ErrUnauthorized unless the token's ACL grants capability
func (c *JWTClaims) Claim(capability string) error {
	return Claim(c.ACL, capability)
}

// InitializeJWT sets the JWT secret key
func InitializeJWT(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateToken creates a new JWT token for an account
func GenerateToken(userID, role, acl string) (string, error) {
	if len(jwtSecret) == 0 {
		return "", fmt.Errorf("JWT secret not initialized")
	}

	now := time.Now()
	claims := JWTClaims{
		ACL:  acl,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        userID,
			Subject:   userID,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*JWTClaims, error) {
	if len(jwtSecret) == 0 {
		return nil, fmt.Errorf("JWT secret not initialized")
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// InspectToken decodes the claims of a token without checking its signature.
// Only use it to display what a token says, never to trust it.
func InspectToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return claims, nil
}
