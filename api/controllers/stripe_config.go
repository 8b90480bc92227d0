package controllers

import (
	"net/http"

	"github.com/caffeinepub/raffle-backend/api/responses"
	"github.com/caffeinepub/raffle-backend/api/validators"
	checkoutsvc "github.com/caffeinepub/raffle-backend/internal/checkout"
	"github.com/caffeinepub/raffle-backend/pkg/logger"
)

type stripeConfigRequest struct {
	SecretKey        string   `json:"secret_key" validate:"required"`
	AllowedCountries []string `json:"allowed_countries" validate:"omitempty,dive,len=2"`
}

// AdminSetStripeConfig stores the payment gateway secret. The secret is
// write-only: it is never echoed back in any response.
func AdminSetStripeConfig(svc *checkoutsvc.ConfigService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload stripeConfigRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetConfiguration(r.Context(), payload.SecretKey, payload.AllowedCountries); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"configured": true})
	}
}

// AdminStripeConfigured reports whether the gateway has been configured.
func AdminStripeConfigured(svc *checkoutsvc.ConfigService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		configured, err := svc.IsConfigured(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"configured": configured})
	}
}
