package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/api"
)

const ClientIDKey contextKey = "clientID"

// AuthConfig configures bearer-token verification.
type AuthConfig struct {
	Secret []byte
	Issuer string
}

// Auth verifies HS256 bearer tokens on operations that declare bearer security.
// Operations without security requirements, such as health and vendor webhooks, pass through.
func Auth(cfg AuthConfig, logger *zap.Logger) func(next http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Context().Value(api.BearerAuthScopes) == nil {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			tokenString := strings.TrimPrefix(header, "Bearer ")
			if header == "" || tokenString == header {
				unauthorized(w, r, ErrorMessageMissingToken)
				return
			}

			claims := &jwt.RegisteredClaims{}
			_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
				return cfg.Secret, nil
			})
			if err == nil {
				err = checkClaims(claims, cfg.Issuer)
			}
			if err != nil {
				logger.Warn("Rejected API token",
					zap.String("requestID", GetRequestID(r.Context())),
					zap.Error(err))
				unauthorized(w, r, ErrorMessageInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), ClientIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func checkClaims(claims *jwt.RegisteredClaims, issuer string) error {
	if claims.ExpiresAt == nil {
		return errors.New("token has no expiry")
	}
	if claims.Subject == "" {
		return errors.New("token has no subject")
	}
	if issuer != "" && !claims.VerifyIssuer(issuer, true) {
		return errors.New("unexpected token issuer")
	}
	return nil
}

// GetClientID returns the authenticated client, or "" for anonymous requests.
func GetClientID(ctx context.Context) string {
	if id, ok := ctx.Value(ClientIDKey).(string); ok {
		return id
	}
	return ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]interface{}{
		"error":   ErrorCodeUnauthorized,
		"message": message,
	})
}
