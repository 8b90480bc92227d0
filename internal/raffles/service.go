package raffles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caffeinepub/raffle-backend/pkg/db/models"
	"github.com/caffeinepub/raffle-backend/pkg/enums"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
)

// Service exposes raffle lifecycle and listing operations.
type Service interface {
	Create(ctx context.Context, input CreateRaffleInput) (*RaffleDTO, error)
	Update(ctx context.Context, raffleID uuid.UUID, input UpdateRaffleInput) (*RaffleDTO, error)
	ChangeStatus(ctx context.Context, raffleID uuid.UUID, target enums.RaffleStatus) (*RaffleDTO, error)
	Get(ctx context.Context, raffleID uuid.UUID) (*RaffleDTO, error)
	GetAll(ctx context.Context) ([]RaffleDTO, error)
	GetActive(ctx context.Context) ([]RaffleDTO, error)
	GetCompleted(ctx context.Context) ([]CompletedRaffleDTO, error)
	GetLive(ctx context.Context, raffleID uuid.UUID) (*LiveRaffleDTO, error)
}

// CreateRaffleInput holds the validated payload to create a raffle.
type CreateRaffleInput struct {
	Title            string
	Description      string
	TotalSpots       int
	SpotPriceCents   int
	PrizeAmountCents int
	DrawTimestamp    time.Time
	VideoURL         *string
}

// UpdateRaffleInput holds optional mutation values for a raffle.
type UpdateRaffleInput struct {
	Title            *string
	Description      *string
	TotalSpots       *int
	SpotPriceCents   *int
	PrizeAmountCents *int
	DrawTimestamp    *time.Time
	VideoURL         *string
}

type paidEntryReader interface {
	ListPaidByRaffle(ctx context.Context, raffleID uuid.UUID) ([]models.Entry, error)
	PaidStats(ctx context.Context, raffleID uuid.UUID) (participants int, spotsSold int, err error)
}

type service struct {
	repo    Repository
	entries paidEntryReader
	now     func() time.Time
}

// NewService constructs a raffle service instance.
func NewService(repo Repository, entries paidEntryReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("raffle repository required")
	}
	if entries == nil {
		return nil, fmt.Errorf("entry reader required")
	}
	return &service{repo: repo, entries: entries, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateRaffleInput) (*RaffleDTO, error) {
	if err := validateConfig(input.Title, input.TotalSpots, input.SpotPriceCents, input.PrizeAmountCents); err != nil {
		return nil, err
	}

	raffle := &models.Raffle{
		Title:            strings.TrimSpace(input.Title),
		Description:      input.Description,
		TotalSpots:       input.TotalSpots,
		SpotPriceCents:   input.SpotPriceCents,
		PrizeAmountCents: input.PrizeAmountCents,
		DrawTimestamp:    input.DrawTimestamp,
		VideoURL:         input.VideoURL,
		Status:           enums.RaffleStatusUpcoming,
	}
	if err := s.repo.Create(ctx, raffle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert raffle")
	}
	return NewRaffleDTO(raffle), nil
}

func (s *service) Update(ctx context.Context, raffleID uuid.UUID, input UpdateRaffleInput) (*RaffleDTO, error) {
	raffle, err := s.repo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if raffle.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "drawn raffles are immutable")
	}

	applyUpdate(raffle, input)
	if err := validateConfig(raffle.Title, raffle.TotalSpots, raffle.SpotPriceCents, raffle.PrizeAmountCents); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, raffle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update raffle")
	}
	return NewRaffleDTO(raffle), nil
}

// ChangeStatus applies an administrative status transition. The drawn state is
// reserved to the draw engine and is never reachable through this path.
func (s *service) ChangeStatus(ctx context.Context, raffleID uuid.UUID, target enums.RaffleStatus) (*RaffleDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid raffle status")
	}
	if target == enums.RaffleStatusDrawn {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "drawn status is set by the draw, not by status change")
	}

	raffle, err := s.repo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if !raffle.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition raffle from %s to %s", raffle.Status, target))
	}

	raffle.Status = target
	if err := s.repo.Save(ctx, raffle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update raffle status")
	}
	return NewRaffleDTO(raffle), nil
}

func (s *service) Get(ctx context.Context, raffleID uuid.UUID) (*RaffleDTO, error) {
	raffle, err := s.repo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	return NewRaffleDTO(raffle), nil
}

func (s *service) GetAll(ctx context.Context) ([]RaffleDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list raffles")
	}
	return NewRaffleDTOs(rows), nil
}

func (s *service) GetActive(ctx context.Context) ([]RaffleDTO, error) {
	rows, err := s.repo.ListByStatus(ctx, enums.RaffleStatusOpen)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list active raffles")
	}
	return NewRaffleDTOs(rows), nil
}

func (s *service) GetCompleted(ctx context.Context) ([]CompletedRaffleDTO, error) {
	rows, err := s.repo.ListByStatus(ctx, enums.RaffleStatusDrawn)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list completed raffles")
	}

	completed := make([]CompletedRaffleDTO, 0, len(rows))
	for i := range rows {
		participants, spotsSold, err := s.entries.PaidStats(ctx, rows[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: aggregate raffle entries")
		}
		completed = append(completed, CompletedRaffleDTO{
			ID:            rows[i].ID,
			Title:         rows[i].Title,
			DrawTimestamp: rows[i].DrawTimestamp,
			Winner:        rows[i].WinnerID,
			Participants:  participants,
			SpotsSold:     spotsSold,
		})
	}
	return completed, nil
}

func (s *service) GetLive(ctx context.Context, raffleID uuid.UUID) (*LiveRaffleDTO, error) {
	raffle, err := s.repo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	paid, err := s.entries.ListPaidByRaffle(ctx, raffleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list raffle entries")
	}

	entryRows := make([]EntryRow, 0, len(paid))
	for i := range paid {
		entryRows = append(entryRows, EntryRow{
			ID:          paid[i].ID,
			BuyerID:     paid[i].BuyerID,
			Quantity:    paid[i].Quantity,
			PurchasedAt: paid[i].PurchasedAt,
		})
	}

	timeToDraw := int64(raffle.DrawTimestamp.Sub(s.now()).Seconds())
	if timeToDraw < 0 {
		timeToDraw = 0
	}

	return &LiveRaffleDTO{
		Raffle:            *NewRaffleDTO(raffle),
		TimeToDrawSeconds: timeToDraw,
		Entries:           entryRows,
	}, nil
}

func applyUpdate(raffle *models.Raffle, input UpdateRaffleInput) {
	if input.Title != nil {
		raffle.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		raffle.Description = *input.Description
	}
	if input.TotalSpots != nil {
		raffle.TotalSpots = *input.TotalSpots
	}
	if input.SpotPriceCents != nil {
		raffle.SpotPriceCents = *input.SpotPriceCents
	}
	if input.PrizeAmountCents != nil {
		raffle.PrizeAmountCents = *input.PrizeAmountCents
	}
	if input.DrawTimestamp != nil {
		raffle.DrawTimestamp = *input.DrawTimestamp
	}
	if input.VideoURL != nil {
		raffle.VideoURL = input.VideoURL
	}
}

func validateConfig(title string, totalSpots, spotPriceCents, prizeAmountCents int) error {
	if strings.TrimSpace(title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if totalSpots <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "total_spots must be positive")
	}
	if spotPriceCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "spot_price_cents must be positive")
	}
	if prizeAmountCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "prize_amount_cents must be non-negative")
	}
	return nil
}
