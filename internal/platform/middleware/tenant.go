package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "catapult/pkg/domain-errors"
	"catapult/pkg/platform/httputil"
	"catapult/pkg/requestcontext"
)

// ErrInvalidToken indicates the bearer token failed validation.
var ErrInvalidToken = errors.New("invalid token")

// TenantClaims is the bearer token body. Only the tenant is read; callers are
// otherwise trusted by the gateway in front of this service.
type TenantClaims struct {
	TenantID int64 `json:"tenantId"`
	jwt.RegisteredClaims
}

// TenantValidator checks HS256 tokens signed with a shared key.
type TenantValidator struct {
	key []byte
}

func NewTenantValidator(signingKey string) *TenantValidator {
	return &TenantValidator{key: []byte(signingKey)}
}

func (v *TenantValidator) Validate(token string) (*TenantClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TenantClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return v.key, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*TenantClaims)
	if !ok || !parsed.Valid || claims.TenantID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Sign issues a token for tenantID. Used by the operator CLI and tests.
func (v *TenantValidator) Sign(tenantID int64, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := TenantClaims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
}

// RequireTenant resolves the tenant from the bearer token.
func RequireTenant(validator *TenantValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			ctx = requestcontext.WithTenantID(ctx, claims.TenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
