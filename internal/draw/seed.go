package draw

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	mathrand "math/rand"
)

// SeedSource produces the seed that pins a draw's winner selection. The seed
// is persisted with the draw record so a draw can be replayed.
type SeedSource interface {
	Seed() (int64, error)
}

// CryptoSeedSource derives seeds from the OS entropy pool.
type CryptoSeedSource struct{}

func (CryptoSeedSource) Seed() (int64, error) {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("reading entropy: %w", err)
	}
	seed := int64(binary.BigEndian.Uint64(buf[:]) &^ (1 << 63))
	return seed, nil
}

// FixedSeedSource always returns the same seed. Used when the deploy pins the
// RNG and in tests.
type FixedSeedSource struct {
	Value int64
}

func (f FixedSeedSource) Seed() (int64, error) {
	return f.Value, nil
}

// NewSeedSource picks the fixed source when a non-zero seed is configured.
func NewSeedSource(configured int64) SeedSource {
	if configured != 0 {
		return FixedSeedSource{Value: configured}
	}
	return CryptoSeedSource{}
}

// pickTicket selects a ticket index in [0, totalTickets) from the seed.
func pickTicket(seed int64, totalTickets int) int {
	rng := mathrand.New(mathrand.NewSource(seed))
	return rng.Intn(totalTickets)
}
