package draw

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caffeinepub/raffle-backend/internal/entries"
	"github.com/caffeinepub/raffle-backend/internal/raffles"
	"github.com/caffeinepub/raffle-backend/pkg/db"
	"github.com/caffeinepub/raffle-backend/pkg/db/models"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
	"github.com/caffeinepub/raffle-backend/pkg/logger"
	"github.com/caffeinepub/raffle-backend/pkg/metrics"
)

// Service performs exactly-once raffle draws.
type Service interface {
	TriggerDraw(ctx context.Context, raffleID uuid.UUID) (*ResultDTO, error)
	GetResult(ctx context.Context, raffleID uuid.UUID) (*ResultDTO, error)
}

// ResultDTO is the API-facing outcome of a draw.
type ResultDTO struct {
	RaffleID     uuid.UUID `json:"raffle_id"`
	WinnerID     uuid.UUID `json:"winner_id"`
	DrawRecordID uuid.UUID `json:"draw_record_id"`
	TotalTickets int       `json:"total_tickets"`
	DrawnAt      time.Time `json:"drawn_at"`
}

// eligibleEntry is the snapshot row frozen into the draw record.
type eligibleEntry struct {
	EntryID  uuid.UUID `json:"entry_id"`
	BuyerID  uuid.UUID `json:"buyer_id"`
	Quantity int       `json:"quantity"`
}

type service struct {
	repo     Repository
	raffles  raffles.Repository
	entries  entries.Repository
	dbClient *db.Client
	seeds    SeedSource
	metrics  *metrics.RaffleMetrics
	logg     *logger.Logger
}

// NewService constructs the draw engine.
func NewService(
	repo Repository,
	raffleRepo raffles.Repository,
	entryRepo entries.Repository,
	dbClient *db.Client,
	seeds SeedSource,
	m *metrics.RaffleMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("draw repository required")
	}
	if raffleRepo == nil {
		return nil, fmt.Errorf("raffle repository required")
	}
	if entryRepo == nil {
		return nil, fmt.Errorf("entry repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if seeds == nil {
		seeds = CryptoSeedSource{}
	}
	return &service{
		repo:     repo,
		raffles:  raffleRepo,
		entries:  entryRepo,
		dbClient: dbClient,
		seeds:    seeds,
		metrics:  m,
		logg:     logg,
	}, nil
}

// TriggerDraw selects and records a winner in a single transaction. The raffle
// row lock serializes concurrent triggers; the conditional status flip and the
// unique draw-record index guarantee at most one draw survives.
func (s *service) TriggerDraw(ctx context.Context, raffleID uuid.UUID) (*ResultDTO, error) {
	seed, err := s.seeds.Seed()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seeding draw")
	}

	var result *ResultDTO
	txErr := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		raffleTx := s.raffles.WithTx(tx)
		entryTx := s.entries.WithTx(tx)
		recordTx := s.repo.WithTx(tx)

		raffle, err := raffleTx.FindByIDForUpdate(ctx, raffleID)
		if err != nil {
			return err
		}
		if !raffle.Status.Drawable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "raffle already drawn or not yet open")
		}
		if existing, err := recordTx.FindByRaffle(ctx, raffleID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load draw record")
		} else if existing != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "raffle already drawn")
		}

		paid, err := entryTx.ListPaidByRaffle(ctx, raffleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list paid entries")
		}

		totalTickets := 0
		snapshot := make([]eligibleEntry, 0, len(paid))
		for i := range paid {
			totalTickets += paid[i].Quantity
			snapshot = append(snapshot, eligibleEntry{
				EntryID:  paid[i].ID,
				BuyerID:  paid[i].BuyerID,
				Quantity: paid[i].Quantity,
			})
		}
		if totalTickets == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no eligible entries")
		}

		winnerID, err := selectWinner(snapshot, seed, totalTickets)
		if err != nil {
			return err
		}

		encoded, err := json.Marshal(snapshot)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode entry snapshot")
		}

		record := &models.DrawRecord{
			RaffleID:        raffleID,
			WinnerID:        winnerID,
			Seed:            seed,
			TotalTickets:    totalTickets,
			EligibleEntries: encoded,
			DrawnAt:         time.Now().UTC(),
		}
		if err := recordTx.Create(ctx, record); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "raffle already drawn")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert draw record")
		}

		flipped, err := raffleTx.FinalizeDraw(ctx, raffleID, winnerID, record.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: finalize draw")
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "raffle already drawn")
		}

		result = &ResultDTO{
			RaffleID:     raffleID,
			WinnerID:     winnerID,
			DrawRecordID: record.ID,
			TotalTickets: totalTickets,
			DrawnAt:      record.DrawnAt,
		}
		return nil
	})
	if txErr != nil {
		if pkgerrors.As(txErr) != nil {
			return nil, txErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "db: trigger draw")
	}

	s.metrics.IncDrawCompleted()
	if s.logg != nil {
		ctx = s.logg.WithRaffleID(ctx, raffleID.String())
		s.logg.Info(ctx, "raffle drawn")
	}
	return result, nil
}

// GetResult returns the recorded outcome for a drawn raffle.
func (s *service) GetResult(ctx context.Context, raffleID uuid.UUID) (*ResultDTO, error) {
	record, err := s.repo.FindByRaffle(ctx, raffleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load draw record")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "raffle has not been drawn")
	}
	return &ResultDTO{
		RaffleID:     record.RaffleID,
		WinnerID:     record.WinnerID,
		DrawRecordID: record.ID,
		TotalTickets: record.TotalTickets,
		DrawnAt:      record.DrawnAt,
	}, nil
}

// selectWinner maps a seeded ticket index onto the entry owning that ticket.
// Each purchased spot is one ticket, so a buyer holding k of T spots wins
// with probability k/T.
func selectWinner(snapshot []eligibleEntry, seed int64, totalTickets int) (uuid.UUID, error) {
	ticket := pickTicket(seed, totalTickets)
	cursor := 0
	for i := range snapshot {
		cursor += snapshot[i].Quantity
		if ticket < cursor {
			return snapshot[i].BuyerID, nil
		}
	}
	return uuid.Nil, pkgerrors.New(pkgerrors.CodeInternal, "ticket out of range")
}
