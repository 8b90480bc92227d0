package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/caffeinepub/raffle-backend/api/responses"
	pkgauth "github.com/caffeinepub/raffle-backend/pkg/auth"
	"github.com/caffeinepub/raffle-backend/pkg/config"
	"github.com/caffeinepub/raffle-backend/pkg/enums"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
	"github.com/caffeinepub/raffle-backend/pkg/logger"
)

// RoleResolver answers the caller's current role from storage. The role is
// resolved per request and never cached between calls.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID uuid.UUID) (enums.UserRole, error)
}

// Auth validates a bearer token, resolves the caller's role, and seeds the
// request context. Requests without a valid token are rejected.
func Auth(cfg config.JWTConfig, roles RoleResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := identityFromRequest(cfg, r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if userID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			role, err := roles.ResolveRole(r.Context(), userID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithIdentity(r.Context(), userID, role)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    userID.String(),
					"actor_role": role.String(),
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves identity when a token is present and falls back to
// guest when it is not. Used on open read routes that still want the caller
// in logs.
func OptionalAuth(cfg config.JWTConfig, roles RoleResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := identityFromRequest(cfg, r)
			if err != nil || userID == uuid.Nil {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), uuid.Nil, enums.UserRoleGuest)))
				return
			}

			role, resolveErr := roles.ResolveRole(r.Context(), userID)
			if resolveErr != nil {
				responses.WriteError(r.Context(), logg, w, resolveErr)
				return
			}

			ctx := WithIdentity(r.Context(), userID, role)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    userID.String(),
					"actor_role": role.String(),
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromRequest(cfg config.JWTConfig, r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return uuid.Nil, nil
	}

	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgauth.ParseAccessToken(cfg, token)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.UserID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "token carries no identity")
	}
	return claims.UserID, nil
}
