package controllers

import (
	"net/http"

	"github.com/caffeinepub/raffle-backend/api/middleware"
	"github.com/caffeinepub/raffle-backend/api/responses"
	"github.com/caffeinepub/raffle-backend/api/validators"
	"github.com/caffeinepub/raffle-backend/internal/users"
	"github.com/caffeinepub/raffle-backend/pkg/enums"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
	"github.com/caffeinepub/raffle-backend/pkg/logger"
)

type saveProfileRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

// CallerRole reports the role resolved for this request. Guests get guest.
func CallerRole(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"role": middleware.RoleFromContext(r.Context()).String(),
		})
	}
}

// CallerIsAdmin reports whether the caller currently holds the admin role.
func CallerIsAdmin(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]bool{
			"is_admin": middleware.RoleFromContext(r.Context()) == enums.UserRoleAdmin,
		})
	}
}

// CallerProfile serves the authenticated caller's profile.
func CallerProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.GetProfile(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// SaveCallerProfile upserts the caller's display name.
func SaveCallerProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload saveProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.SaveProfile(r.Context(), middleware.UserIDFromContext(r.Context()), payload.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// UserProfile serves any user's public profile.
func UserProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.UUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.GetProfile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// AdminAssignRole stores an explicit role for a user.
func AdminAssignRole(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.UUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignRoleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		if err := svc.AssignRole(r.Context(), userID, role); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"user_id": userID.String(),
			"role":    role.String(),
		})
	}
}
