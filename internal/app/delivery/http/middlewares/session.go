package middlewares

import (
	"context"
	"net/http"
	"strings"

	"scribe-service/internal/app/models"
	"scribe-service/internal/pkg/constvars"
	"scribe-service/internal/pkg/exceptions"
	"scribe-service/internal/pkg/utils"

	"github.com/golang-jwt/jwt/v4"
)

type sessionClaims struct {
	UserID     string `json:"user_id"`
	FacilityID string `json:"facility_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// SessionRequired parses the bearer token issued by the identity service and
// stores the resulting session in the request context. Authentication itself
// is external; this only verifies and unpacks the claims.
func (m *Middlewares) SessionRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(constvars.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTokenMissing(nil))
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := new(sessionClaims)
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, exceptions.ErrTokenInvalidOrExpired(nil)
			}
			return []byte(m.InternalConfig.JWT.Secret), nil
		})
		if err != nil || !token.Valid {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTokenInvalidOrExpired(err))
			return
		}
		if claims.UserID == "" || claims.FacilityID == "" {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTokenInvalidOrExpired(nil))
			return
		}

		session := &models.Session{
			UserID:     claims.UserID,
			FacilityID: claims.FacilityID,
			RoleName:   claims.Role,
		}
		ctx := context.WithValue(r.Context(), constvars.ContextKeySession, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFromContext retrieves the session planted by SessionRequired.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(constvars.ContextKeySession).(*models.Session)
	return session, ok
}
