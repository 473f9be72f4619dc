package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDKey   = contextKey("userID")
	tenantIDKey = contextKey("tenantID")
)

// ledgerClaims are the access-token claims the ledger cares about: the actor
// (subject) and the pre-authorized store the token is scoped to. The tenant
// id is opaque to the core; token issuance lives with the auth collaborator.
type ledgerClaims struct {
	StoreUUID string `json:"store_uuid"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and stores the actor and tenant
// ids in the gin context. A non-empty issuer is verified against the iss
// claim.
func AuthMiddleware(jwtSecret, issuer string) gin.HandlerFunc {
	var parseOpts []jwt.ParserOption
	if issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(issuer))
	}
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims := &ledgerClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		}, parseOpts...)
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.Subject == "" || claims.StoreUUID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token missing subject or store claim"})
			return
		}

		c.Set(string(userIDKey), claims.Subject)
		c.Set(string(tenantIDKey), claims.StoreUUID)
		c.Next()
	}
}

// GetUserIDFromContext retrieves the authenticated actor id.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	v, exists := c.Get(string(userIDKey))
	if !exists {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok
}

// GetTenantIDFromContext retrieves the tenant (store) id the token is
// scoped to.
func GetTenantIDFromContext(c *gin.Context) (string, bool) {
	v, exists := c.Get(string(tenantIDKey))
	if !exists {
		return "", false
	}
	tenantID, ok := v.(string)
	return tenantID, ok
}
