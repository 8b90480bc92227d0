package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/caffeinepub/raffle-backend/api/responses"
	"github.com/caffeinepub/raffle-backend/api/validators"
	"github.com/caffeinepub/raffle-backend/internal/entries"
	"github.com/caffeinepub/raffle-backend/internal/raffles"
	"github.com/caffeinepub/raffle-backend/pkg/logger"
)

// RaffleList serves every raffle regardless of status.
func RaffleList(svc raffles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.GetAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// RaffleActive serves raffles currently open for entries.
func RaffleActive(svc raffles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.GetActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// RaffleCompleted serves drawn raffles with their outcome summary.
func RaffleCompleted(svc raffles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.GetCompleted(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// RaffleDetail serves one raffle by id.
func RaffleDetail(svc raffles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raffleID, err := validators.UUIDParam(r, "raffleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		raffle, err := svc.Get(r.Context(), raffleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, raffle)
	}
}

// RaffleLive serves the raffle with its countdown and entry snapshot.
func RaffleLive(svc raffles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raffleID, err := validators.UUIDParam(r, "raffleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		live, err := svc.GetLive(r.Context(), raffleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, live)
	}
}

// RaffleEntries serves the paid entries of a raffle.
func RaffleEntries(svc entries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raffleID, err := validators.UUIDParam(r, "raffleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListEntries(r.Context(), raffleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]entryResponse, 0, len(rows))
		for i := range rows {
			out = append(out, entryResponse{
				ID:          rows[i].ID,
				RaffleID:    rows[i].RaffleID,
				BuyerID:     rows[i].BuyerID,
				Quantity:    rows[i].Quantity,
				PurchasedAt: rows[i].PurchasedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

// RaffleRemainingSpots serves the live remaining-inventory count.
func RaffleRemainingSpots(svc entries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raffleID, err := validators.UUIDParam(r, "raffleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		remaining, err := svc.RemainingSpots(r.Context(), raffleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, remainingSpotsResponse{
			RaffleID:       raffleID,
			RemainingSpots: remaining,
			SoldOut:        remaining == 0,
		})
	}
}

type entryResponse struct {
	ID          uuid.UUID `json:"id"`
	RaffleID    uuid.UUID `json:"raffle_id"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	Quantity    int       `json:"quantity"`
	PurchasedAt time.Time `json:"purchased_at"`
}

type remainingSpotsResponse struct {
	RaffleID       uuid.UUID `json:"raffle_id"`
	RemainingSpots int       `json:"remaining_spots"`
	SoldOut        bool      `json:"sold_out"`
}
