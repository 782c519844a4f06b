package auth

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	HeaderUserID          = "X-User-Id"
	HeaderPrincipalID     = "X-MS-CLIENT-PRINCIPAL-ID"
	HeaderClientPrincipal = "X-MS-CLIENT-PRINCIPAL"

	callerKey = "caller_id"
)

// CallerIdentity stores the caller id in the gin context when the request
// carries one. Requests without an identity pass through untouched; handlers
// that need one call CallerID. A bearer token is only honoured when secret
// is set.
func CallerIdentity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := callerFromRequest(c, secret); id != "" {
			c.Set(callerKey, id)
		}
		c.Next()
	}
}

func callerFromRequest(c *gin.Context, secret string) string {
	if id := strings.TrimSpace(c.GetHeader(HeaderUserID)); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetHeader(HeaderPrincipalID)); id != "" {
		return id
	}
	if v := c.GetHeader(HeaderClientPrincipal); v != "" {
		p, err := DecodePrincipalHeader(v)
		if err == nil {
			return p.UserID
		}
		log.Printf("Ignoring client principal header: %v", err)
	}
	if secret == "" {
		return ""
	}
	authHeader := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return ""
	}
	claims, err := ValidateJWT(secret, token)
	if err != nil {
		log.Printf("Ignoring bearer token: %v", err)
		return ""
	}
	return claims.Username
}

// CallerID returns the identity stored by CallerIdentity.
func CallerID(c *gin.Context) (string, bool) {
	id := c.GetString(callerKey)
	return id, id != ""
}

// RequireCaller is CallerID for handlers that cannot proceed anonymously.
func RequireCaller(c *gin.Context) (string, error) {
	id, ok := CallerID(c)
	if !ok {
		return "", ErrNoIdentity
	}
	return id, nil
}
