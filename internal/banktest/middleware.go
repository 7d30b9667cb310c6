package banktest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/eaglebank/client/shared/models"
	"github.com/eaglebank/client/shared/validation"
)

// Claims mirrors the payload issued by the real auth service.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenTTL matches the validity period of production tokens.
const TokenTTL = 50 * time.Minute

func (s *Server) issueToken(u *user) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    "eaglebank-auth",
			Audience:  jwt.ClaimStrings{"eaglebank-api"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respondWithError(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			respondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func getUserID(c *gin.Context) string {
	return c.GetString("userId")
}

// recordRequests appends every request to the server log before routing.
func (s *Server) recordRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			Authorization: c.GetHeader("Authorization"),
			RequestID:     c.GetHeader("X-Request-ID"),
		})
		s.mu.Unlock()
		c.Next()
	}
}

// overrides lets a test replace the reply of one method and path.
func (s *Server) overrides() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		h, ok := s.override[c.Request.Method+" "+c.Request.URL.Path]
		s.mu.Unlock()
		if !ok {
			c.Next()
			return
		}
		h(c)
		c.Abort()
	}
}

type badRequestErrorResponse struct {
	Message string               `json:"message"`
	Details []models.FieldDetail `json:"details"`
}

func respondWithValidationError(c *gin.Context, err error) {
	resp := badRequestErrorResponse{Message: "Invalid request data"}
	if verr, ok := err.(*validation.Error); ok {
		for _, f := range verr.Fields {
			resp.Details = append(resp.Details, models.FieldDetail{Field: f.Field, Message: f.Message, Type: f.Type})
		}
	}
	c.JSON(http.StatusBadRequest, resp)
}

func respondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}
