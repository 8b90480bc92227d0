package enums

import "fmt"

// RaffleStatus tracks the lifecycle of a raffle.
type RaffleStatus string

const (
	RaffleStatusUpcoming RaffleStatus = "upcoming"
	RaffleStatusOpen     RaffleStatus = "open"
	RaffleStatusClosed   RaffleStatus = "closed"
	RaffleStatusDrawn    RaffleStatus = "drawn"
)

var validRaffleStatuses = []RaffleStatus{
	RaffleStatusUpcoming,
	RaffleStatusOpen,
	RaffleStatusClosed,
	RaffleStatusDrawn,
}

// legalTransitions is the fixed transition table. `drawn` is terminal and the
// open/closed → drawn edges are reserved to the draw engine.
var legalTransitions = map[RaffleStatus][]RaffleStatus{
	RaffleStatusUpcoming: {RaffleStatusOpen},
	RaffleStatusOpen:     {RaffleStatusClosed, RaffleStatusDrawn},
	RaffleStatusClosed:   {RaffleStatusOpen, RaffleStatusDrawn},
	RaffleStatusDrawn:    {},
}

// String implements fmt.Stringer.
func (s RaffleStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RaffleStatus.
func (s RaffleStatus) IsValid() bool {
	for _, candidate := range validRaffleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s RaffleStatus) IsTerminal() bool {
	return s == RaffleStatusDrawn
}

// CanTransitionTo reports whether s → next is a legal transition.
func (s RaffleStatus) CanTransitionTo(next RaffleStatus) bool {
	for _, candidate := range legalTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Drawable reports whether a draw may be performed from this status.
func (s RaffleStatus) Drawable() bool {
	return s == RaffleStatusOpen || s == RaffleStatusClosed
}

// ParseRaffleStatus converts raw input into a RaffleStatus.
func ParseRaffleStatus(value string) (RaffleStatus, error) {
	for _, candidate := range validRaffleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid raffle status %q", value)
}
