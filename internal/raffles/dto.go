package raffles

import (
	"time"

	"github.com/google/uuid"

	"github.com/caffeinepub/raffle-backend/pkg/db/models"
	"github.com/caffeinepub/raffle-backend/pkg/enums"
)

// RaffleDTO is the API-facing raffle shape.
type RaffleDTO struct {
	ID               uuid.UUID          `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	TotalSpots       int                `json:"total_spots"`
	SpotPriceCents   int                `json:"spot_price_cents"`
	PrizeAmountCents int                `json:"prize_amount_cents"`
	DrawTimestamp    time.Time          `json:"draw_timestamp"`
	VideoURL         *string            `json:"video_url,omitempty"`
	Status           enums.RaffleStatus `json:"status"`
	WinnerID         *uuid.UUID         `json:"winner_id,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// NewRaffleDTO maps the stored raffle onto the API shape.
func NewRaffleDTO(raffle *models.Raffle) *RaffleDTO {
	if raffle == nil {
		return nil
	}
	return &RaffleDTO{
		ID:               raffle.ID,
		Title:            raffle.Title,
		Description:      raffle.Description,
		TotalSpots:       raffle.TotalSpots,
		SpotPriceCents:   raffle.SpotPriceCents,
		PrizeAmountCents: raffle.PrizeAmountCents,
		DrawTimestamp:    raffle.DrawTimestamp,
		VideoURL:         raffle.VideoURL,
		Status:           raffle.Status,
		WinnerID:         raffle.WinnerID,
		CreatedAt:        raffle.CreatedAt,
		UpdatedAt:        raffle.UpdatedAt,
	}
}

// NewRaffleDTOs maps a slice of stored raffles.
func NewRaffleDTOs(rows []models.Raffle) []RaffleDTO {
	out := make([]RaffleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewRaffleDTO(&rows[i]))
	}
	return out
}

// CompletedRaffleDTO is the reduced shape served for drawn raffles.
type CompletedRaffleDTO struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	DrawTimestamp time.Time  `json:"draw_timestamp"`
	Winner        *uuid.UUID `json:"winner,omitempty"`
	Participants  int        `json:"participants"`
	SpotsSold     int        `json:"spots_sold"`
}

// LiveRaffleDTO is the raffle plus its countdown and entry snapshot.
type LiveRaffleDTO struct {
	Raffle            RaffleDTO  `json:"raffle"`
	TimeToDrawSeconds int64      `json:"time_to_draw_seconds"`
	Entries           []EntryRow `json:"entries"`
}

// EntryRow is the public view of a paid entry.
type EntryRow struct {
	ID          uuid.UUID `json:"id"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	Quantity    int       `json:"quantity"`
	PurchasedAt time.Time `json:"purchased_at"`
}
