package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/ZanzyTHEbar/calcbot/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// GatewayIssuer is the issuer claim of gateway tokens.
const GatewayIssuer = "calcbot-gateway"

var errMissingToken = errors.New("missing bearer token")

// IssueGatewayToken signs an HS256 token the chat platform adapter sends
// with each request.
func IssueGatewayToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": GatewayIssuer,
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyGatewayToken validates signature, expiry and issuer and returns the
// subject.
func VerifyGatewayToken(secret, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(GatewayIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	subject, _ := claims.GetSubject()
	return subject, nil
}

// GatewayAuth requires a valid bearer token signed with secret. An empty
// secret disables the check.
func (sm *SecurityMiddleware) GatewayAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		var err error
		if !found || tokenString == "" {
			err = errMissingToken
		}

		var subject string
		if err == nil {
			subject, err = VerifyGatewayToken(secret, tokenString)
		}

		if err != nil {
			if sm.recorder != nil {
				sm.recorder.IncrementAuthFailure()
			}
			appErr := apperrors.NewUnauthorizedError("Invalid or missing gateway token", err)
			apperrors.LogError(c, appErr)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response(c.GetString("request_id")))
			return
		}

		c.Set("gateway_subject", subject)
		c.Next()
	}
}
