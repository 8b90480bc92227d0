package controllers

import (
	"net/http"
	"time"

	"github.com/caffeinepub/raffle-backend/api/responses"
	"github.com/caffeinepub/raffle-backend/api/validators"
	"github.com/caffeinepub/raffle-backend/internal/draw"
	"github.com/caffeinepub/raffle-backend/internal/raffles"
	"github.com/caffeinepub/raffle-backend/pkg/enums"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
	"github.com/caffeinepub/raffle-backend/pkg/logger"
)

type createRaffleRequest struct {
	Title            string    `json:"title" validate:"required"`
	Description      string    `json:"description"`
	TotalSpots       int       `json:"total_spots" validate:"required,gt=0"`
	SpotPriceCents   int       `json:"spot_price_cents" validate:"required,gt=0"`
	PrizeAmountCents int       `json:"prize_amount_cents" validate:"gte=0"`
	DrawTimestamp    time.Time `json:"draw_timestamp" validate:"required"`
	VideoURL         *string   `json:"video_url,omitempty" validate:"omitempty,url"`
}

type updateRaffleRequest struct {
	Title            *string    `json:"title,omitempty"`
	Description      *string    `json:"description,omitempty"`
	TotalSpots       *int       `json:"total_spots,omitempty" validate:"omitempty,gt=0"`
	SpotPriceCents   *int       `json:"spot_price_cents,omitempty" validate:"omitempty,gt=0"`
	PrizeAmountCents *int       `json:"prize_amount_cents,omitempty" validate:"omitempty,gte=0"`
	DrawTimestamp    *time.Time `json:"draw_timestamp,omitempty"`
	VideoURL         *string    `json:"video_url,omitempty" validate:"omitempty,url"`
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=upcoming open closed"`
}

// AdminCreateRaffle creates a raffle in the upcoming state.
func AdminCreateRaffle(svc raffles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createRaffleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), raffles.CreateRaffleInput{
			Title:            payload.Title,
			Description:      payload.Description,
			TotalSpots:       payload.TotalSpots,
			SpotPriceCents:   payload.SpotPriceCents,
			PrizeAmountCents: payload.PrizeAmountCents,
			DrawTimestamp:    payload.DrawTimestamp,
			VideoURL:         payload.VideoURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AdminUpdateRaffle updates raffle configuration; drawn raffles are immutable.
func AdminUpdateRaffle(svc raffles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raffleID, err := validators.UUIDParam(r, "raffleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateRaffleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), raffleID, raffles.UpdateRaffleInput{
			Title:            payload.Title,
			Description:      payload.Description,
			TotalSpots:       payload.TotalSpots,
			SpotPriceCents:   payload.SpotPriceCents,
			PrizeAmountCents: payload.PrizeAmountCents,
			DrawTimestamp:    payload.DrawTimestamp,
			VideoURL:         payload.VideoURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// AdminChangeRaffleStatus applies a lifecycle transition.
func AdminChangeRaffleStatus(svc raffles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raffleID, err := validators.UUIDParam(r, "raffleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload changeStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseRaffleStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		updated, err := svc.ChangeStatus(r.Context(), raffleID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// AdminTriggerDraw runs the draw for a raffle.
func AdminTriggerDraw(svc draw.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raffleID, err := validators.UUIDParam(r, "raffleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.TriggerDraw(r.Context(), raffleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminDrawResult serves the recorded outcome of a completed draw.
func AdminDrawResult(svc draw.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raffleID, err := validators.UUIDParam(r, "raffleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.GetResult(r.Context(), raffleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
