package entries

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/caffeinepub/raffle-backend/pkg/db/models"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
	"github.com/caffeinepub/raffle-backend/pkg/metrics"
)

// Service answers spot-ledger questions for a raffle.
type Service interface {
	RemainingSpots(ctx context.Context, raffleID uuid.UUID) (int, error)
	ListEntries(ctx context.Context, raffleID uuid.UUID) ([]models.Entry, error)
}

type raffleLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Raffle, error)
}

type service struct {
	repo    Repository
	raffles raffleLoader
	metrics *metrics.RaffleMetrics
}

// NewService constructs the spot-ledger service.
func NewService(repo Repository, raffles raffleLoader, m *metrics.RaffleMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("entry repository required")
	}
	if raffles == nil {
		return nil, fmt.Errorf("raffle loader required")
	}
	return &service{repo: repo, raffles: raffles, metrics: m}, nil
}

// RemainingSpots computes totalSpots minus the confirmed sum at call time.
// The result is clamped at zero so a read never reports negative inventory.
func (s *service) RemainingSpots(ctx context.Context, raffleID uuid.UUID) (int, error) {
	raffle, err := s.raffles.FindByID(ctx, raffleID)
	if err != nil {
		return 0, err
	}

	sold, err := s.repo.SumPaidQuantity(ctx, raffleID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum paid entries")
	}

	s.metrics.IncRemainingQuery()

	remaining := raffle.TotalSpots - sold
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *service) ListEntries(ctx context.Context, raffleID uuid.UUID) ([]models.Entry, error) {
	if _, err := s.raffles.FindByID(ctx, raffleID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListPaidByRaffle(ctx, raffleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list paid entries")
	}
	return rows, nil
}
