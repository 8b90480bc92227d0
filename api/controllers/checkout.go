package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/caffeinepub/raffle-backend/api/middleware"
	"github.com/caffeinepub/raffle-backend/api/responses"
	"github.com/caffeinepub/raffle-backend/api/validators"
	checkoutsvc "github.com/caffeinepub/raffle-backend/internal/checkout"
	"github.com/caffeinepub/raffle-backend/pkg/logger"
)

type shoppingItemRequest struct {
	ProductName        string `json:"product_name" validate:"required"`
	ProductDescription string `json:"product_description"`
	Currency           string `json:"currency" validate:"omitempty,len=3"`
	PriceInCents       int    `json:"price_in_cents" validate:"required,gt=0"`
	Quantity           int    `json:"quantity" validate:"required,gt=0"`
}

type createSessionRequest struct {
	RaffleID uuid.UUID             `json:"raffle_id" validate:"required"`
	Quantity int                   `json:"quantity" validate:"required,gt=0"`
	Items    []shoppingItemRequest `json:"items" validate:"omitempty,dive"`
}

type purchaseEntriesRequest struct {
	RaffleID          uuid.UUID `json:"raffle_id" validate:"required"`
	Quantity          int       `json:"quantity" validate:"required,gt=0"`
	ConfirmedQuantity int       `json:"confirmed_quantity" validate:"required,gt=0"`
	SessionID         string    `json:"session_id" validate:"required"`
}

// CheckoutCreateSession opens a payment session for raffle spots.
func CheckoutCreateSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]checkoutsvc.ShoppingItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, checkoutsvc.ShoppingItem{
				ProductName:        item.ProductName,
				ProductDescription: item.ProductDescription,
				Currency:           item.Currency,
				PriceCents:         item.PriceInCents,
				Quantity:           item.Quantity,
			})
		}

		session, err := svc.CreateSession(r.Context(), middleware.UserIDFromContext(r.Context()), checkoutsvc.CreateSessionInput{
			RaffleID: payload.RaffleID,
			Quantity: payload.Quantity,
			Items:    items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// CheckoutSessionStatus reconciles and reports a session's disposition.
func CheckoutSessionStatus(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.StringParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.SessionStatus(r.Context(), middleware.UserIDFromContext(r.Context()), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// CheckoutListSessions serves the caller's checkout session history.
func CheckoutListSessions(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := svc.ListSessions(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessions)
	}
}

// PurchaseEntries confirms a paid session into ledger entries.
func PurchaseEntries(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload purchaseEntriesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PurchaseEntries(r.Context(), middleware.UserIDFromContext(r.Context()), checkoutsvc.PurchaseInput{
			RaffleID:          payload.RaffleID,
			Quantity:          payload.Quantity,
			ConfirmedQuantity: payload.ConfirmedQuantity,
			SessionID:         payload.SessionID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.AlreadyConfirmed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}
