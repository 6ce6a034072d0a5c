package auth

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Invite tokens admit the bearer to a private study group. They are
// signed with the service secret and expire after a week.

const inviteTTL = 7 * 24 * time.Hour

func CreateInviteToken(groupPublicID string) (string, error) {
	secretKeyStr := os.Getenv("JWT_SECRET_KEY")
	if secretKeyStr == "" {
		log.Fatal("invite.go: JWT_SECRET_KEY not set")
	}

	secretKey := []byte(secretKeyStr)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"group": groupPublicID,
			"exp":   time.Now().Add(inviteTTL).Unix(),
		})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyInviteToken checks the signature and expiry and returns the
// public ID of the group the invite admits to.
func VerifyInviteToken(tokenString string) (string, error) {
	secretKeyStr := os.Getenv("JWT_SECRET_KEY")
	if secretKeyStr == "" {
		return "", fmt.Errorf("invite.go: JWT secret key not set")
	}

	secretKey := []byte(secretKeyStr)
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	})

	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}

	groupID, ok := claims["group"].(string)
	if !ok || groupID == "" {
		return "", fmt.Errorf("invite has no group claim")
	}

	return groupID, nil
}
